package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

type borrowService struct {
	repos    repository.Repositories
	tx       repository.Transactor
	notifier LoanNotifier
	policy   LendingPolicy
	clock    Clock
}

func NewBorrowService(
	repos repository.Repositories,
	tx repository.Transactor,
	notifier LoanNotifier,
	policy LendingPolicy,
	clock Clock,
) BorrowService {
	return &borrowService{
		repos:    repos,
		tx:       tx,
		notifier: notifier,
		policy:   policy,
		clock:    clock,
	}
}

func (s *borrowService) Today() domain.Date { return today(s.clock) }

func (s *borrowService) RequestBorrow(ctx context.Context, actor domain.Actor, userID, bookID int64) (*domain.BorrowRecord, error) {
	logger.EnterMethod("borrowService.RequestBorrow", "userID", userID, "bookID", bookID)
	if !actor.CanActFor(userID) {
		return nil, ErrForbidden
	}

	var rec *domain.BorrowRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return mapRepoErr(err, ErrUserNotFound)
		}
		if !user.Enabled {
			return ErrAccountDisabled
		}

		book, err := repos.Books.GetByID(ctx, bookID)
		if err != nil {
			return mapRepoErr(err, ErrBookNotFound)
		}
		if !book.Borrowable() {
			return ErrBookUnavailable
		}

		open, err := repos.Borrows.List(ctx, repository.BorrowFilter{
			UserID:   &userID,
			BookID:   &bookID,
			Statuses: domain.OpenBorrowStatuses,
		})
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return ErrAlreadyBorrowing
		}

		count, err := repos.Borrows.CountOpenByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count >= s.policy.MaxActiveLoans {
			return ErrLoanLimitReached
		}

		rec = domain.NewBorrowRequest(userID, bookID)
		return repos.Borrows.Create(ctx, rec)
	})
	if err != nil {
		logger.ExitMethodWithError("borrowService.RequestBorrow", err, "userID", userID, "bookID", bookID)
		return nil, err
	}

	logger.ExitMethod("borrowService.RequestBorrow", "borrowID", rec.ID)
	return rec, nil
}

// CancelBorrowRequest withdraws the caller's own PENDING request.
func (s *borrowService) CancelBorrowRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	var promoted []promotion
	rec, err := s.transition(ctx, id, func(ctx context.Context, t *loanTx) error {
		repos, rec := t.repos, t.rec
		if rec.UserID != actor.UserID {
			return ErrForbidden
		}
		if err := rec.Cancel(); err != nil {
			return err
		}
		if err := t.save(ctx); err != nil {
			return err
		}
		var err error
		promoted, err = releaseHeldCopy(ctx, repos, rec, s.policy.MaxActiveLoans)
		return err
	})
	if err != nil {
		return nil, err
	}
	announcePromotions(ctx, s.notifier, promoted)
	return rec, nil
}

func (s *borrowService) ApproveBorrow(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	rec, err := s.transition(ctx, id, func(ctx context.Context, t *loanTx) error {
		repos, rec := t.repos, t.rec
		if err := rec.Approve(s.Today(), s.policy.LoanPeriodDays); err != nil {
			return err
		}

		if rec.FromReservation() {
			// The copy was taken off the shelf when the reservation was promoted.
			res, err := repos.Reservations.GetByID(ctx, *rec.ReservationID)
			if err != nil {
				return mapRepoErr(err, ErrReservationNotFound)
			}
			prev := res.Status
			if err := res.Apply(domain.ReservationEventComplete); err != nil {
				return err
			}
			if err := repos.Reservations.Save(ctx, res, prev); err != nil {
				return mapRepoErr(err, ErrReservationNotFound)
			}
		} else if _, err := repos.Books.AdjustQuantity(ctx, rec.BookID, -1); err != nil {
			return mapRepoErr(err, ErrBookNotFound)
		}

		return t.save(ctx)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Borrow approved", "borrowID", rec.ID, "dueDate", rec.DueDate.String())
	s.notifier.BorrowApproved(ctx, *rec)
	return rec, nil
}

func (s *borrowService) RejectBorrow(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	var promoted []promotion
	rec, err := s.transition(ctx, id, func(ctx context.Context, t *loanTx) error {
		repos, rec := t.repos, t.rec
		if err := rec.Reject(); err != nil {
			return err
		}
		if err := t.save(ctx); err != nil {
			return err
		}
		var err error
		promoted, err = releaseHeldCopy(ctx, repos, rec, s.policy.MaxActiveLoans)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.BorrowRejected(ctx, *rec)
	announcePromotions(ctx, s.notifier, promoted)
	return rec, nil
}

func (s *borrowService) RequestReturn(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return s.transition(ctx, id, func(ctx context.Context, t *loanTx) error {
		rec := t.rec
		if rec.UserID != actor.UserID {
			return ErrForbidden
		}
		if err := rec.RequestReturn(); err != nil {
			return err
		}
		return t.save(ctx)
	})
}

func (s *borrowService) CancelReturnRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return s.transition(ctx, id, func(ctx context.Context, t *loanTx) error {
		rec := t.rec
		if rec.UserID != actor.UserID {
			return ErrForbidden
		}
		if err := rec.CancelReturn(); err != nil {
			return err
		}
		return t.save(ctx)
	})
}

// ApproveReturn closes the loan, settles the fine and puts the copy back on
// the shelf, where the reservation queue may claim it straight away.
func (s *borrowService) ApproveReturn(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	var promoted []promotion
	rec, err := s.transition(ctx, id, func(ctx context.Context, t *loanTx) error {
		repos, rec := t.repos, t.rec
		if err := rec.ApproveReturn(s.Today(), s.policy.DailyFineRate); err != nil {
			return err
		}
		if err := t.save(ctx); err != nil {
			return err
		}
		if _, err := repos.Books.AdjustQuantity(ctx, rec.BookID, 1); err != nil {
			return mapRepoErr(err, ErrBookNotFound)
		}
		var err error
		promoted, err = promoteQueue(ctx, repos, rec.BookID, s.policy.MaxActiveLoans)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Return approved", "borrowID", rec.ID, "fine", rec.FineAmount.StringFixed(2))
	s.notifier.ReturnApproved(ctx, *rec)
	announcePromotions(ctx, s.notifier, promoted)
	return rec, nil
}

// correctionSnapshot is the audited view of the correctable fields.
type correctionSnapshot struct {
	Status     domain.BorrowStatus `json:"status"`
	IssueDate  *domain.Date        `json:"issueDate"`
	DueDate    *domain.Date        `json:"dueDate"`
	ReturnDate *domain.Date        `json:"returnDate"`
	FineAmount decimal.Decimal     `json:"fineAmount"`
	FinePaid   bool                `json:"finePaid"`
	PaidAmount decimal.Decimal     `json:"finePaidAmount"`
}

func snapshot(rec *domain.BorrowRecord) ([]byte, error) {
	return jsoniter.Marshal(correctionSnapshot{
		Status:     rec.Status,
		IssueDate:  rec.IssueDate,
		DueDate:    rec.DueDate,
		ReturnDate: rec.ReturnDate,
		FineAmount: rec.FineAmount,
		FinePaid:   rec.FinePaid,
		PaidAmount: rec.FinePaidAmount,
	})
}

// AdminCorrectRecord overwrites dates or the fine of a record outside the
// lifecycle and keeps an audit row of the change.
func (s *borrowService) AdminCorrectRecord(ctx context.Context, actor domain.Actor, id int64, patch domain.BorrowRecordPatch, reason string) (*domain.BorrowRecord, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reason is required", ErrInvalidInput)
	}

	return s.transition(ctx, id, func(ctx context.Context, t *loanTx) error {
		repos, rec := t.repos, t.rec
		before, err := snapshot(rec)
		if err != nil {
			return err
		}
		if err := rec.ApplyCorrection(patch); err != nil {
			return err
		}
		if err := t.save(ctx); err != nil {
			return err
		}
		after, err := snapshot(rec)
		if err != nil {
			return err
		}

		logger.WarnContext(ctx, "Borrow record force-corrected", "borrowID", rec.ID, "actorID", actor.UserID, "reason", reason)
		return repos.Audits.Create(ctx, &domain.BorrowRecordAudit{
			BorrowRecordID: rec.ID,
			ActorID:        actor.UserID,
			Reason:         reason,
			Before:         before,
			After:          after,
		})
	})
}

func (s *borrowService) GetRecord(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	rec, err := s.repos.Borrows.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrBorrowNotFound)
	}
	if !actor.CanActFor(rec.UserID) {
		return nil, ErrForbidden
	}
	return rec, nil
}

func (s *borrowService) History(ctx context.Context, actor domain.Actor, userID int64) ([]domain.BorrowRecord, error) {
	if !actor.CanActFor(userID) {
		return nil, ErrForbidden
	}
	return s.repos.Borrows.List(ctx, repository.BorrowFilter{UserID: &userID})
}

func (s *borrowService) Active(ctx context.Context, actor domain.Actor, userID int64) ([]domain.BorrowRecord, error) {
	if !actor.CanActFor(userID) {
		return nil, ErrForbidden
	}
	return s.repos.Borrows.List(ctx, repository.BorrowFilter{
		UserID:   &userID,
		Statuses: domain.OnLoanStatuses,
	})
}

func (s *borrowService) All(ctx context.Context, q BorrowQuery) ([]domain.BorrowRecord, error) {
	var filter repository.BorrowFilter
	if q.Status != nil {
		filter.Statuses = []domain.BorrowStatus{*q.Status}
	}
	if q.OverdueOnly {
		if q.Status != nil && !q.Status.IsOnLoan() {
			return nil, nil
		}
		if filter.Statuses == nil {
			filter.Statuses = domain.OnLoanStatuses
		}
		t := s.Today()
		filter.DueBefore = &t
	}
	return s.repos.Borrows.List(ctx, filter)
}

func (s *borrowService) BookHistory(ctx context.Context, bookID int64) ([]domain.BorrowRecord, error) {
	if _, err := s.repos.Books.GetByID(ctx, bookID); err != nil {
		return nil, mapRepoErr(err, ErrBookNotFound)
	}
	return s.repos.Borrows.List(ctx, repository.BorrowFilter{BookID: &bookID})
}

func (s *borrowService) AuditTrail(ctx context.Context, id int64) ([]domain.BorrowRecordAudit, error) {
	if _, err := s.repos.Borrows.GetByID(ctx, id); err != nil {
		return nil, mapRepoErr(err, ErrBorrowNotFound)
	}
	return s.repos.Audits.ListByRecord(ctx, id)
}

// loanTx is one record loaded inside a transaction together with the
// version it was read at.
type loanTx struct {
	repos repository.Repositories
	rec   *domain.BorrowRecord
	prev  domain.BorrowVersion
}

func (t *loanTx) save(ctx context.Context) error {
	return mapRepoErr(t.repos.Borrows.Save(ctx, t.rec, t.prev), ErrBorrowNotFound)
}

// transition loads a record inside a transaction and hands it to fn, which
// applies the change and persists it with save.
func (s *borrowService) transition(ctx context.Context, id int64, fn func(ctx context.Context, t *loanTx) error) (*domain.BorrowRecord, error) {
	var out *domain.BorrowRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rec, err := repos.Borrows.GetByID(ctx, id)
		if err != nil {
			return mapRepoErr(err, ErrBorrowNotFound)
		}
		if err := fn(ctx, &loanTx{repos: repos, rec: rec, prev: rec.Version()}); err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) && !errors.Is(err, ErrForbidden) {
			logger.ErrorContext(ctx, "Borrow transition failed", "borrowID", id, "error", err)
		}
		return nil, err
	}
	return out, nil
}
