package service

import (
	"errors"

	"mylib-backend/internal/repository"
)

var (
	ErrForbidden      = errors.New("not allowed to perform this action")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUserNotFound   = errors.New("user not found")
	ErrBookNotFound   = errors.New("book not found")
	ErrBorrowNotFound = errors.New("borrow record not found")

	ErrReservationNotFound  = errors.New("reservation not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrBookUnavailable  = errors.New("book is not available, please reserve it instead")
	ErrBookAvailable    = errors.New("book is available, no need to reserve")
	ErrAlreadyReserved  = errors.New("user has already reserved this book")
	ErrAlreadyBorrowing = errors.New("user already has an open loan for this book")
	ErrReservationLimit = errors.New("reservation limit reached")
	ErrLoanLimitReached = errors.New("active loan limit reached")
	ErrBookInUse        = errors.New("book still has loans or reservations")
	ErrDuplicateISBN    = errors.New("a book with this ISBN already exists")

	ErrConcurrentModification = errors.New("record was modified by another request, please retry")

	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrSessionRevoked     = errors.New("session has been revoked")
)

// mapRepoErr converts storage sentinels into service errors. notFound is the
// error to report when the primary record is missing.
func mapRepoErr(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	case errors.Is(err, repository.ErrStaleWrite):
		return ErrConcurrentModification
	case errors.Is(err, repository.ErrNoCopiesLeft):
		return ErrBookUnavailable
	}
	return err
}
