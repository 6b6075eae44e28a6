package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mylib-backend/internal/config"
	"mylib-backend/internal/jobs"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository/postgres"
	"mylib-backend/internal/scheduler"
	"mylib-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'accrue-overdue-fines', 'all-nightly')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting library cronjob runner...", "log_level", cfg.Log.Level)

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := postgres.Open(context.Background(), cfg.Database, cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	store := postgres.NewStore(db)

	var emailService service.EmailService
	if cfg.Mail.Enabled {
		emailService = service.NewEmailService(cfg.Mail.SendGridAPIKey, cfg.Mail.From, cfg.Mail.FromName)
	} else {
		emailService = service.NewLogEmailService()
	}

	policy := service.LendingPolicy{
		LoanPeriodDays:         cfg.Library.LoanPeriodDays,
		DailyFineRate:          cfg.Library.FineRate(),
		MaxActiveLoans:         cfg.Library.MaxActiveLoans,
		MaxPendingReservations: cfg.Library.MaxPendingReservations,
		DueSoonDays:            cfg.Library.DueSoonDays,
	}
	// The cronjob process has no websocket clients; notifications are only
	// stored and picked up on the next poll.
	noteService := service.NewNotificationService(store.Notifications, nil)
	notifier := service.NewLoanNotifier(store.Users, store.Books, noteService, emailService)

	jobServices := &jobs.Services{
		Fines:        service.NewFineService(store.Repositories, store, policy, time.Now),
		Reminders:    service.NewReminderService(store.Borrows, notifier, policy, time.Now),
		Reservations: service.NewReservationService(store.Repositories, store, notifier, policy),
	}

	jobRunner := jobs.NewJobRunner(jobServices, cfg)

	if *runOnce != "" {
		run, ok := jobRunner.Lookup(*runOnce)
		if !ok {
			logger.Error("Unknown job name", "job", *runOnce)
			fmt.Fprintf(os.Stderr, "unknown job %q, available: %s\n", *runOnce, strings.Join(jobRunner.Names(), ", "))
			os.Exit(2)
		}
		logger.Info("Running job once", "job", *runOnce)
		run()
		return
	}

	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to register cron jobs: %v", err)
	}

	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped")
}
