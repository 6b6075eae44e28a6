package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

type fineService struct {
	repos  repository.Repositories
	tx     repository.Transactor
	policy LendingPolicy
	clock  Clock
}

func NewFineService(repos repository.Repositories, tx repository.Transactor, policy LendingPolicy, clock Clock) FineService {
	return &fineService{repos: repos, tx: tx, policy: policy, clock: clock}
}

// ListAll returns every record carrying a fine today, optionally filtered by
// payment state.
func (s *fineService) ListAll(ctx context.Context, paid *bool) ([]domain.Fine, error) {
	return s.list(ctx, repository.BorrowFilter{FinePaid: paid})
}

func (s *fineService) ListByUser(ctx context.Context, actor domain.Actor, userID int64) ([]domain.Fine, error) {
	if !actor.CanActFor(userID) {
		return nil, ErrForbidden
	}
	return s.list(ctx, repository.BorrowFilter{UserID: &userID})
}

func (s *fineService) list(ctx context.Context, filter repository.BorrowFilter) ([]domain.Fine, error) {
	t := today(s.clock)
	filter.FinedAsOf = &t
	recs, err := s.repos.Borrows.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	fines := make([]domain.Fine, 0, len(recs))
	for _, rec := range recs {
		f := domain.FineFromRecord(rec, t, s.policy.DailyFineRate)
		if f.Amount.IsPositive() {
			fines = append(fines, f)
		}
	}
	return fines, nil
}

func (s *fineService) TotalOutstanding(ctx context.Context, actor domain.Actor, userID int64) (decimal.Decimal, error) {
	fines, err := s.ListByUser(ctx, actor, userID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, f := range fines {
		total = total.Add(f.Outstanding)
	}
	return total, nil
}

// MarkAsPaid pays what the record owes today. Paying twice is an error and
// the loan status is never touched.
func (s *fineService) MarkAsPaid(ctx context.Context, actor domain.Actor, borrowRecordID int64) (*domain.Fine, error) {
	logger.EnterMethod("fineService.MarkAsPaid", "borrowID", borrowRecordID, "actorID", actor.UserID)
	now := s.clock().UTC()
	t := domain.DateOf(now)

	var fine domain.Fine
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rec, err := repos.Borrows.GetByID(ctx, borrowRecordID)
		if err != nil {
			return mapRepoErr(err, ErrBorrowNotFound)
		}
		if !actor.CanActFor(rec.UserID) {
			return ErrForbidden
		}
		prev := rec.Version()
		if err := rec.PayFine(t, s.policy.DailyFineRate, now); err != nil {
			return err
		}
		if err := repos.Borrows.Save(ctx, rec, prev); err != nil {
			return mapRepoErr(err, ErrBorrowNotFound)
		}
		fine = domain.FineFromRecord(*rec, t, s.policy.DailyFineRate)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("fineService.MarkAsPaid", err, "borrowID", borrowRecordID)
		return nil, err
	}

	logger.ExitMethod("fineService.MarkAsPaid", "borrowID", borrowRecordID, "amount", fine.Amount.StringFixed(2))
	return &fine, nil
}

// AccrueOverdueFines refreshes the stored fine of every overdue loan and
// returns how many records changed.
func (s *fineService) AccrueOverdueFines(ctx context.Context) (int, error) {
	t := today(s.clock)
	recs, err := s.repos.Borrows.List(ctx, repository.BorrowFilter{
		Statuses:  domain.OnLoanStatuses,
		DueBefore: &t,
	})
	if err != nil {
		return 0, err
	}

	var updated int
	for i := range recs {
		rec := &recs[i]
		prev := rec.Version()
		if !rec.AccrueFine(t, s.policy.DailyFineRate) {
			continue
		}
		if err := s.repos.Borrows.Save(ctx, rec, prev); err != nil {
			if errors.Is(err, repository.ErrStaleWrite) {
				logger.WarnContext(ctx, "Skipped fine accrual for a record changed concurrently", "borrowID", rec.ID)
				continue
			}
			return updated, err
		}
		updated++
	}
	return updated, nil
}
