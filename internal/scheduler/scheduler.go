package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"mylib-backend/internal/config"
	"mylib-backend/internal/logger"
)

// Jobs is the set of scheduled tasks
type Jobs interface {
	Config() *config.Config
	AccrueOverdueFines()
	SendOverdueReminders()
	SendDueSoonReminders()
	PromoteReservations()
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
}

// NewScheduler creates a new scheduler with the provided job runner. An
// invalid cron spec is a configuration error and is returned.
func NewScheduler(jobs Jobs) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobs,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	entries := []struct {
		name string
		spec string
		run  func()
	}{
		{"AccrueOverdueFines", cfg.AccrueOverdueFines, s.jobs.AccrueOverdueFines},
		{"SendOverdueReminders", cfg.SendOverdueReminders, s.jobs.SendOverdueReminders},
		{"SendDueSoonReminders", cfg.SendDueSoonReminders, s.jobs.SendDueSoonReminders},
		{"PromoteReservations", cfg.PromoteReservations, s.jobs.PromoteReservations},
	}
	for _, e := range entries {
		if _, err := s.cron.AddFunc(e.spec, e.run); err != nil {
			logger.Error("Failed to register job", "job", e.name, "spec", e.spec, "error", err)
			return err
		}
		logger.Debug("Registered job", "job", e.name, "spec", e.spec)
	}

	logger.Info("All cron jobs registered successfully", "count", len(entries))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// Entries returns the number of registered jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
