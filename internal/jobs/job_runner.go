package jobs

import (
	"context"
	"sort"
	"time"

	"mylib-backend/internal/config"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/service"
)

// jobTimeout bounds a single run so a hung database call cannot pile up
// overlapping executions.
const jobTimeout = 10 * time.Minute

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Fines        service.FineService
	Reminders    service.ReminderService
	Reservations service.ReservationService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery and reports how
// many records the job touched.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) (int, error)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	start := time.Now()
	count, err := jobFunc(ctx)
	if err != nil {
		logger.Error("Job failed", "job", jobName, "processed", count, "error", err)
		return
	}
	logger.Info("Job completed", "job", jobName, "processed", count, "duration", time.Since(start).String())
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.AccrueOverdueFines()
	jr.SendOverdueReminders()
	jr.SendDueSoonReminders()
	jr.PromoteReservations()
}

// Lookup returns the job registered under a command-line name such as
// "accrue-overdue-fines" or "all-nightly".
func (jr *JobRunner) Lookup(name string) (func(), bool) {
	run, ok := jr.byName()[name]
	return run, ok
}

// Names lists the names accepted by Lookup, sorted.
func (jr *JobRunner) Names() []string {
	names := make([]string, 0, 5)
	for name := range jr.byName() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (jr *JobRunner) byName() map[string]func() {
	return map[string]func(){
		"accrue-overdue-fines":    jr.AccrueOverdueFines,
		"send-overdue-reminders":  jr.SendOverdueReminders,
		"send-due-soon-reminders": jr.SendDueSoonReminders,
		"promote-reservations":    jr.PromoteReservations,
		"all-nightly":             jr.RunAllNightlyJobs,
	}
}
