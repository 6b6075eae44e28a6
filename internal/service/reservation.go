package service

import (
	"context"
	"errors"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

type reservationService struct {
	repos    repository.Repositories
	tx       repository.Transactor
	notifier LoanNotifier
	policy   LendingPolicy
}

func NewReservationService(repos repository.Repositories, tx repository.Transactor, notifier LoanNotifier, policy LendingPolicy) ReservationService {
	return &reservationService{repos: repos, tx: tx, notifier: notifier, policy: policy}
}

// CreateReservation queues the member for a book that has no copy on the
// shelf. A member who already holds or has requested the book cannot also
// queue for it.
func (s *reservationService) CreateReservation(ctx context.Context, actor domain.Actor, userID, bookID int64) (*domain.Reservation, error) {
	if !actor.CanActFor(userID) {
		return nil, ErrForbidden
	}

	var res *domain.Reservation
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
		if book.Borrowable() {
			return ErrBookAvailable
		}

		exists, err := repos.Reservations.ExistsPending(ctx, userID, bookID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyReserved
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

		pending, err := repos.Reservations.CountPendingByUser(ctx, userID)
		if err != nil {
			return err
		}
		if pending >= s.policy.MaxPendingReservations {
			return ErrReservationLimit
		}

		res = domain.NewReservation(userID, bookID)
		if err := repos.Reservations.Create(ctx, res); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyReserved
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Reservation created", "reservationID", res.ID, "userID", userID, "bookID", bookID)
	return res, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error) {
	return s.transition(ctx, id, func(res *domain.Reservation) error {
		if res.UserID != actor.UserID {
			return ErrForbidden
		}
		return res.Apply(domain.ReservationEventCancel)
	})
}

func (s *reservationService) RejectReservation(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	return s.transition(ctx, id, func(res *domain.Reservation) error {
		return res.Apply(domain.ReservationEventReject)
	})
}

func (s *reservationService) transition(ctx context.Context, id int64, apply func(res *domain.Reservation) error) (*domain.Reservation, error) {
	res, err := s.repos.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, ErrReservationNotFound)
	}
	prev := res.Status
	if err := apply(res); err != nil {
		return nil, err
	}
	if err := s.repos.Reservations.Save(ctx, res, prev); err != nil {
		return nil, mapRepoErr(err, ErrReservationNotFound)
	}
	return res, nil
}

func (s *reservationService) ListByUser(ctx context.Context, actor domain.Actor, userID int64) ([]domain.Reservation, error) {
	if !actor.CanActFor(userID) {
		return nil, ErrForbidden
	}
	return s.repos.Reservations.List(ctx, repository.ReservationFilter{UserID: &userID})
}

func (s *reservationService) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	return s.repos.Reservations.List(ctx, repository.ReservationFilter{})
}

func (s *reservationService) PromoteNext(ctx context.Context, bookID int64) (int, error) {
	var promoted []promotion
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		promoted, err = promoteQueue(ctx, repos, bookID, s.policy.MaxActiveLoans)
		return err
	})
	if err != nil {
		return 0, err
	}
	announcePromotions(ctx, s.notifier, promoted)
	return len(promoted), nil
}

// PromoteAll sweeps every book with a waiting queue. A failing book does not
// stop the sweep; all failures are returned together.
func (s *reservationService) PromoteAll(ctx context.Context) (int, error) {
	logger.EnterMethod("reservationService.PromoteAll")
	bookIDs, err := s.repos.Reservations.BookIDsWithPending(ctx)
	if err != nil {
		logger.ExitMethodWithError("reservationService.PromoteAll", err)
		return 0, err
	}

	var total int
	var errs []error
	for _, bookID := range bookIDs {
		n, err := s.PromoteNext(ctx, bookID)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to promote reservations", "bookID", bookID, "error", err)
			errs = append(errs, err)
			continue
		}
		total += n
	}

	logger.ExitMethod("reservationService.PromoteAll", "books", len(bookIDs), "promoted", total)
	return total, errors.Join(errs...)
}
