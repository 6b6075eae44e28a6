package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	grpcapi "mylib-backend/internal/api/grpc"
	httpapi "mylib-backend/internal/api/http"
	"mylib-backend/internal/config"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/realtime"
	"mylib-backend/internal/repository/postgres"
	"mylib-backend/internal/security"
	"mylib-backend/internal/service"
	"mylib-backend/internal/session"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting library backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "rest", cfg.GetServerAddress(), "grpc", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := postgres.Open(ctx, cfg.Database, cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	// Initialize session store
	redisClient, err := session.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Failed to connect to redis", "error", err, "addr", cfg.Redis.Addr)
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	sessions := session.NewRedisStore(redisClient)

	// Initialize Security
	tokenManager := security.NewTokenManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute,
	)

	// Initialize realtime push
	hub := realtime.NewHub(cfg.Server.AllowedOrigins)
	go hub.Run(ctx)

	// Initialize Email Service
	var emailSvc service.EmailService
	if cfg.Mail.Enabled {
		emailSvc = service.NewEmailService(cfg.Mail.SendGridAPIKey, cfg.Mail.From, cfg.Mail.FromName)
	} else {
		logger.Info("Mail delivery disabled, emails will only be logged")
		emailSvc = service.NewLogEmailService()
	}

	// Initialize Services
	policy := service.LendingPolicy{
		LoanPeriodDays:         cfg.Library.LoanPeriodDays,
		DailyFineRate:          cfg.Library.FineRate(),
		MaxActiveLoans:         cfg.Library.MaxActiveLoans,
		MaxPendingReservations: cfg.Library.MaxPendingReservations,
		DueSoonDays:            cfg.Library.DueSoonDays,
	}
	noteSvc := service.NewNotificationService(store.Notifications, hub)
	notifier := service.NewLoanNotifier(store.Users, store.Books, noteSvc, emailSvc)
	reservationSvc := service.NewReservationService(store.Repositories, store, notifier, policy)

	services := httpapi.Services{
		Auth:          service.NewAuthService(store.Users, store, tokenManager, sessions, emailSvc),
		Users:         service.NewUserService(store.Users, store),
		Books:         service.NewBookService(store.Books, store, notifier, policy),
		Borrows:       service.NewBorrowService(store.Repositories, store, notifier, policy, time.Now),
		Reservations:  reservationSvc,
		Fines:         service.NewFineService(store.Repositories, store, policy, time.Now),
		Notifications: noteSvc,
	}

	// Set up REST server
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           httpapi.NewRouter(services, tokenManager, store, hub, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// Set up gRPC health server
	reporter := grpcapi.NewHealthReporter(store, 15*time.Second)
	go reporter.Run(ctx)
	grpcServer := grpcapi.NewServer(reporter)
	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped. Goodbye!")
}
