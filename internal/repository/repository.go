package repository

import (
	"context"
	"errors"

	"mylib-backend/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleWrite is returned when a conditional update matched no row
	// because another writer changed it first.
	ErrStaleWrite = errors.New("record was modified concurrently")
	ErrDuplicate  = errors.New("duplicate record")
	// ErrReferenced is returned when a delete would orphan dependent rows.
	ErrReferenced   = errors.New("record is still referenced")
	ErrNoCopiesLeft = errors.New("no copies left on the shelf")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ReplaceRoles(ctx context.Context, userID int64, roles []domain.Role) error
	SetEnabled(ctx context.Context, userID int64, enabled bool) error
}

type BookRepository interface {
	Create(ctx context.Context, book *domain.Book) error
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
	// Update writes the catalog fields. The shelf count only moves
	// through AdjustQuantity.
	Update(ctx context.Context, book *domain.Book) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Book, error)
	Search(ctx context.Context, query string) ([]domain.Book, error)
	// AdjustQuantity adds delta to the shelf count and returns the new count.
	// It fails with ErrNoCopiesLeft rather than going below zero.
	AdjustQuantity(ctx context.Context, id int64, delta int) (int, error)
}

// BorrowFilter narrows List queries. Zero fields do not filter.
type BorrowFilter struct {
	UserID    *int64
	BookID    *int64
	Statuses  []domain.BorrowStatus
	DueBefore *domain.Date
	DueOn     *domain.Date
	FinePaid  *bool
	// FinedAsOf keeps records that carry a fine or are overdue on that day.
	FinedAsOf *domain.Date
}

type BorrowRepository interface {
	Create(ctx context.Context, rec *domain.BorrowRecord) error
	GetByID(ctx context.Context, id int64) (*domain.BorrowRecord, error)
	List(ctx context.Context, filter BorrowFilter) ([]domain.BorrowRecord, error)
	CountOpenByUser(ctx context.Context, userID int64) (int, error)
	// Save persists the mutable fields only if the stored row still matches
	// prev, otherwise it returns ErrStaleWrite.
	Save(ctx context.Context, rec *domain.BorrowRecord, prev domain.BorrowVersion) error
}

type ReservationFilter struct {
	UserID   *int64
	BookID   *int64
	Statuses []domain.ReservationStatus
}

type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) error
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error)
	ExistsPending(ctx context.Context, userID, bookID int64) (bool, error)
	CountPendingByUser(ctx context.Context, userID int64) (int, error)
	// NextPending locks and returns the oldest PENDING reservation for a
	// book other than the skipped ids, or ErrNotFound when none is left.
	// It waits for rows locked by other transactions so the order holds.
	NextPending(ctx context.Context, bookID int64, skip []int64) (*domain.Reservation, error)
	BookIDsWithPending(ctx context.Context) ([]int64, error)
	Save(ctx context.Context, res *domain.Reservation, prev domain.ReservationStatus) error
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	List(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, int, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
}

type AuditRepository interface {
	Create(ctx context.Context, audit *domain.BorrowRecordAudit) error
	ListByRecord(ctx context.Context, borrowRecordID int64) ([]domain.BorrowRecordAudit, error)
}

// Repositories bundles every repository bound to the same connection or
// transaction.
type Repositories struct {
	Users         UserRepository
	Books         BookRepository
	Borrows       BorrowRepository
	Reservations  ReservationRepository
	Notifications NotificationRepository
	Audits        AuditRepository
}

// Transactor runs fn inside a database transaction. The repositories handed
// to fn are bound to it; returning an error rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
