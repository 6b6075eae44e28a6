package service

import (
	"context"
	"errors"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

// promotion is a reservation that was turned into a loan request.
type promotion struct {
	Reservation domain.Reservation
	Borrow      domain.BorrowRecord
}

// queueVerdict says what to do with the reservation at the head of a queue.
type queueVerdict int

const (
	verdictPromote queueVerdict = iota
	// verdictWait keeps the reservation in place; the member is at the
	// loan limit and the copy moves on to the next in line.
	verdictWait
	// verdictDrop expires the reservation; the member can never take this
	// copy (account disabled, or the book is already on loan to them).
	verdictDrop
)

// judgeReservation applies the borrow-request rules to a queued member.
func judgeReservation(ctx context.Context, repos repository.Repositories, res *domain.Reservation, maxLoans int) (queueVerdict, error) {
	user, err := repos.Users.GetByID(ctx, res.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return verdictDrop, nil
	}
	if err != nil {
		return 0, err
	}
	if !user.Enabled {
		return verdictDrop, nil
	}

	open, err := repos.Borrows.List(ctx, repository.BorrowFilter{
		UserID:   &res.UserID,
		BookID:   &res.BookID,
		Statuses: domain.OpenBorrowStatuses,
	})
	if err != nil {
		return 0, err
	}
	if len(open) > 0 {
		return verdictDrop, nil
	}

	count, err := repos.Borrows.CountOpenByUser(ctx, res.UserID)
	if err != nil {
		return 0, err
	}
	if count >= maxLoans {
		return verdictWait, nil
	}
	return verdictPromote, nil
}

// promoteQueue hands shelf copies of a book to its pending reservations in
// FIFO order. Each promoted member gets a PENDING loan request holding one
// copy. Members at the loan limit keep their place and are passed over;
// members who may not borrow the book at all lose the reservation. It must
// run inside the caller's transaction.
func promoteQueue(ctx context.Context, repos repository.Repositories, bookID int64, maxLoans int) ([]promotion, error) {
	book, err := repos.Books.GetByID(ctx, bookID)
	if err != nil {
		return nil, mapRepoErr(err, ErrBookNotFound)
	}

	var promoted []promotion
	var passed []int64
	remaining := book.Quantity
	for remaining > 0 {
		res, err := repos.Reservations.NextPending(ctx, bookID, passed)
		if errors.Is(err, repository.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}

		verdict, err := judgeReservation(ctx, repos, res, maxLoans)
		if err != nil {
			return nil, err
		}
		switch verdict {
		case verdictWait:
			logger.InfoContext(ctx, "Reservation passed over, member at loan limit", "reservationID", res.ID, "userID", res.UserID)
			passed = append(passed, res.ID)
			continue
		case verdictDrop:
			prev := res.Status
			if err := res.Apply(domain.ReservationEventExpire); err != nil {
				return nil, err
			}
			if err := repos.Reservations.Save(ctx, res, prev); err != nil {
				return nil, mapRepoErr(err, ErrReservationNotFound)
			}
			logger.InfoContext(ctx, "Reservation expired, member cannot borrow", "reservationID", res.ID, "userID", res.UserID)
			continue
		}

		remaining, err = repos.Books.AdjustQuantity(ctx, bookID, -1)
		if errors.Is(err, repository.ErrNoCopiesLeft) {
			break
		}
		if err != nil {
			return nil, mapRepoErr(err, ErrBookNotFound)
		}

		prev := res.Status
		if err := res.Apply(domain.ReservationEventConfirm); err != nil {
			return nil, err
		}
		if err := repos.Reservations.Save(ctx, res, prev); err != nil {
			return nil, mapRepoErr(err, ErrReservationNotFound)
		}

		rec := domain.NewBorrowRequest(res.UserID, bookID)
		rec.ReservationID = &res.ID
		if err := repos.Borrows.Create(ctx, rec); err != nil {
			return nil, err
		}

		logger.InfoContext(ctx, "Reservation promoted", "reservationID", res.ID, "borrowID", rec.ID, "bookID", bookID, "userID", res.UserID)
		promoted = append(promoted, promotion{Reservation: *res, Borrow: *rec})
	}
	return promoted, nil
}

// releaseHeldCopy undoes a promotion whose loan request was cancelled or
// rejected: the reservation lapses, the copy goes back on the shelf and the
// queue runs again.
func releaseHeldCopy(ctx context.Context, repos repository.Repositories, rec *domain.BorrowRecord, maxLoans int) ([]promotion, error) {
	if !rec.FromReservation() {
		return nil, nil
	}

	res, err := repos.Reservations.GetByID(ctx, *rec.ReservationID)
	if err != nil {
		return nil, mapRepoErr(err, ErrReservationNotFound)
	}
	prev := res.Status
	if err := res.Apply(domain.ReservationEventLapse); err != nil {
		return nil, err
	}
	if err := repos.Reservations.Save(ctx, res, prev); err != nil {
		return nil, mapRepoErr(err, ErrReservationNotFound)
	}

	if _, err := repos.Books.AdjustQuantity(ctx, rec.BookID, 1); err != nil {
		return nil, mapRepoErr(err, ErrBookNotFound)
	}
	return promoteQueue(ctx, repos, rec.BookID, maxLoans)
}

func announcePromotions(ctx context.Context, notifier LoanNotifier, promoted []promotion) {
	for _, p := range promoted {
		notifier.ReservationConfirmed(ctx, p.Reservation, p.Borrow)
	}
}
