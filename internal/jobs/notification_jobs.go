package jobs

import "context"

// SendOverdueReminders reminds members holding overdue copies
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("SendOverdueReminders", func(ctx context.Context) (int, error) {
		return jr.services.Reminders.SendOverdueReminders(ctx)
	})
}

// SendDueSoonReminders reminds members whose loans fall due shortly
func (jr *JobRunner) SendDueSoonReminders() {
	jr.runWithRecovery("SendDueSoonReminders", func(ctx context.Context) (int, error) {
		return jr.services.Reminders.SendDueSoonReminders(ctx)
	})
}
