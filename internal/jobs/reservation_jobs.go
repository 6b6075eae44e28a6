package jobs

import "context"

// PromoteReservations hands shelf copies to waiting reservations. Returns and
// restocks already promote inline; this sweep catches anything they missed.
func (jr *JobRunner) PromoteReservations() {
	jr.runWithRecovery("PromoteReservations", func(ctx context.Context) (int, error) {
		return jr.services.Reservations.PromoteAll(ctx)
	})
}
