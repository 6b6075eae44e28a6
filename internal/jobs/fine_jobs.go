package jobs

import "context"

// AccrueOverdueFines stores today's fine on every unpaid overdue loan
func (jr *JobRunner) AccrueOverdueFines() {
	jr.runWithRecovery("AccrueOverdueFines", func(ctx context.Context) (int, error) {
		return jr.services.Fines.AccrueOverdueFines(ctx)
	})
}
