package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Mail      MailConfig      `yaml:"mail"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Library   LibraryConfig   `yaml:"library"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// ServerConfig contains REST and gRPC listener settings
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	GRPCPort       int      `yaml:"grpc_port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // "postgres" (lib/pq) or "pgx"
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
}

// RedisConfig contains the refresh session store settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MailConfig contains SendGrid settings
type MailConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	From           string `yaml:"from"`
	FromName       string `yaml:"from_name"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret             string `yaml:"secret"`
	AccessTokenExpiry  int    `yaml:"access_token_expiry_minutes"`
	RefreshTokenExpiry int    `yaml:"refresh_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// LibraryConfig contains circulation policy
type LibraryConfig struct {
	LoanPeriodDays         int    `yaml:"loan_period_days"`
	DailyFineRate          string `yaml:"daily_fine_rate"`
	MaxActiveLoans         int    `yaml:"max_active_loans"`
	MaxPendingReservations int    `yaml:"max_pending_reservations"`
	DueSoonDays            int    `yaml:"due_soon_days"`
}

// FineRate returns the daily fine as a decimal. Validate has already
// checked that it parses.
func (l LibraryConfig) FineRate() decimal.Decimal {
	rate, err := decimal.NewFromString(l.DailyFineRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	AccrueOverdueFines   string `yaml:"accrue_overdue_fines"`
	SendOverdueReminders string `yaml:"send_overdue_reminders"`
	SendDueSoonReminders string `yaml:"send_due_soon_reminders"`
	PromoteReservations  string `yaml:"promote_reservations"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envBinding maps one environment variable onto a config field.
type envBinding struct {
	name string
	set  func(string)
}

func setString(dst *string) func(string) { return func(v string) { *dst = v } }

// setInt ignores values that do not parse; Validate reports the result.
func setInt(dst *int) func(string) {
	return func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c *Config) envBindings() []envBinding {
	return []envBinding{
		{"DB_DRIVER", setString(&c.Database.Driver)},
		{"DB_HOST", setString(&c.Database.Host)},
		{"DB_PORT", setInt(&c.Database.Port)},
		{"DB_USER", setString(&c.Database.User)},
		{"DB_PASSWORD", setString(&c.Database.Password)},
		{"DB_NAME", setString(&c.Database.Database)},
		{"DB_SSL_MODE", setString(&c.Database.SSLMode)},
		{"REDIS_ADDR", setString(&c.Redis.Addr)},
		{"REDIS_PASSWORD", setString(&c.Redis.Password)},
		{"SENDGRID_API_KEY", setString(&c.Mail.SendGridAPIKey)},
		{"MAIL_FROM", setString(&c.Mail.From)},
		{"JWT_SECRET", setString(&c.JWT.Secret)},
		{"SERVER_HOST", setString(&c.Server.Host)},
		{"SERVER_PORT", setInt(&c.Server.Port)},
		{"GRPC_PORT", setInt(&c.Server.GRPCPort)},
		{"ALLOWED_ORIGINS", func(v string) { c.Server.AllowedOrigins = strings.Split(v, ",") }},
		{"LOG_LEVEL", setString(&c.Log.Level)},
		{"LOG_FORMAT", setString(&c.Log.Format)},
		{"LIBRARY_DAILY_FINE_RATE", setString(&c.Library.DailyFineRate)},
		{"LIBRARY_LOAN_PERIOD_DAYS", setInt(&c.Library.LoanPeriodDays)},
	}
}

// overrideWithEnv applies every non-empty bound environment variable.
func (c *Config) overrideWithEnv() {
	for _, b := range c.envBindings() {
		if v := os.Getenv(b.name); v != "" {
			b.set(v)
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort == 0 {
		c.Server.GRPCPort = c.Server.Port + 1
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 || c.Server.GRPCPort == c.Server.Port {
		return fmt.Errorf("invalid grpc port: %d", c.Server.GRPCPort)
	}

	// Database validation
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.Database.Driver != "postgres" && c.Database.Driver != "pgx" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 60
	}

	// Redis validation
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	// Mail validation
	if c.Mail.Enabled {
		if c.Mail.SendGridAPIKey == "" {
			return fmt.Errorf("sendgrid api key is required when mail is enabled")
		}
		if c.Mail.From == "" {
			return fmt.Errorf("mail sender address is required when mail is enabled")
		}
	}
	if c.Mail.FromName == "" {
		c.Mail.FromName = "Library"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.AccessTokenExpiry == 0 {
		c.JWT.AccessTokenExpiry = 60
	}
	if c.JWT.RefreshTokenExpiry == 0 {
		c.JWT.RefreshTokenExpiry = 7 * 24 * 60
	}

	// Library defaults
	if c.Library.LoanPeriodDays == 0 {
		c.Library.LoanPeriodDays = 14
	}
	if c.Library.LoanPeriodDays < 0 {
		return fmt.Errorf("invalid loan period: %d days", c.Library.LoanPeriodDays)
	}
	if c.Library.DailyFineRate == "" {
		c.Library.DailyFineRate = "0.50"
	}
	rate, err := decimal.NewFromString(c.Library.DailyFineRate)
	if err != nil {
		return fmt.Errorf("invalid daily fine rate %q: %w", c.Library.DailyFineRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("daily fine rate cannot be negative: %s", c.Library.DailyFineRate)
	}
	if c.Library.MaxActiveLoans == 0 {
		c.Library.MaxActiveLoans = 5
	}
	if c.Library.MaxPendingReservations == 0 {
		c.Library.MaxPendingReservations = 5
	}
	if c.Library.DueSoonDays == 0 {
		c.Library.DueSoonDays = 2
	}

	// Scheduler defaults
	if c.Scheduler.AccrueOverdueFines == "" {
		c.Scheduler.AccrueOverdueFines = "0 5 0 * * *" // 00:05 UTC
	}
	if c.Scheduler.SendOverdueReminders == "" {
		c.Scheduler.SendOverdueReminders = "0 0 8 * * *" // 8 AM UTC
	}
	if c.Scheduler.SendDueSoonReminders == "" {
		c.Scheduler.SendDueSoonReminders = "0 30 8 * * *" // 8:30 AM UTC
	}
	if c.Scheduler.PromoteReservations == "" {
		c.Scheduler.PromoteReservations = "0 */15 * * * *" // every 15 minutes
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL URL accepted by both
// lib/pq and pgx. Credentials are escaped.
func (c *Config) GetDatabaseConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:     "/" + c.Database.Database,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

// GetServerAddress returns the REST server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health server address
func (c *Config) GetGRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}
