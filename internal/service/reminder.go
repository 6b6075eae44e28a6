package service

import (
	"context"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/repository"
)

type reminderService struct {
	borrows  repository.BorrowRepository
	notifier LoanNotifier
	policy   LendingPolicy
	clock    Clock
}

func NewReminderService(borrows repository.BorrowRepository, notifier LoanNotifier, policy LendingPolicy, clock Clock) ReminderService {
	return &reminderService{borrows: borrows, notifier: notifier, policy: policy, clock: clock}
}

// SendOverdueReminders reminds every member holding an overdue copy, with the
// part of the fine still unpaid.
func (s *reminderService) SendOverdueReminders(ctx context.Context) (int, error) {
	t := today(s.clock)
	recs, err := s.borrows.List(ctx, repository.BorrowFilter{
		Statuses:  domain.OnLoanStatuses,
		DueBefore: &t,
	})
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		s.notifier.OverdueReminder(ctx, rec, rec.OutstandingFine(t, s.policy.DailyFineRate))
	}
	return len(recs), nil
}

// SendDueSoonReminders reminds members whose loan falls due exactly
// DueSoonDays from today.
func (s *reminderService) SendDueSoonReminders(ctx context.Context) (int, error) {
	due := today(s.clock).AddDays(s.policy.DueSoonDays)
	recs, err := s.borrows.List(ctx, repository.BorrowFilter{
		Statuses: []domain.BorrowStatus{domain.BorrowStatusBorrowed},
		DueOn:    &due,
	})
	if err != nil {
		return 0, err
	}
	for _, rec := range recs {
		s.notifier.DueSoonReminder(ctx, rec)
	}
	return len(recs), nil
}
