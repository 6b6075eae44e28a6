package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"mylib-backend/internal/domain"
)

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

type RegisterInput struct {
	Email       string
	Name        string
	PhoneNumber string
	Password    string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error)
	RefreshToken(ctx context.Context, refresh string) (*TokenPair, error)
	Logout(ctx context.Context, refresh string) error
}

type UserService interface {
	GetUser(ctx context.Context, actor domain.Actor, userID int64) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateRoles(ctx context.Context, actor domain.Actor, userID int64, roles []domain.Role) (*domain.User, error)
	SetEnabled(ctx context.Context, actor domain.Actor, userID int64, enabled bool) error
}

type BookService interface {
	AddBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, id int64) error
	ListBooks(ctx context.Context) ([]domain.Book, error)
	SearchBooks(ctx context.Context, query string) ([]domain.Book, error)
}

// BorrowQuery filters the administrative listing of loans.
type BorrowQuery struct {
	Status      *domain.BorrowStatus
	OverdueOnly bool
}

type BorrowService interface {
	RequestBorrow(ctx context.Context, actor domain.Actor, userID, bookID int64) (*domain.BorrowRecord, error)
	CancelBorrowRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error)
	ApproveBorrow(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error)
	RejectBorrow(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error)
	RequestReturn(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error)
	CancelReturnRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error)
	ApproveReturn(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error)
	AdminCorrectRecord(ctx context.Context, actor domain.Actor, id int64, patch domain.BorrowRecordPatch, reason string) (*domain.BorrowRecord, error)
	GetRecord(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error)
	History(ctx context.Context, actor domain.Actor, userID int64) ([]domain.BorrowRecord, error)
	Active(ctx context.Context, actor domain.Actor, userID int64) ([]domain.BorrowRecord, error)
	All(ctx context.Context, query BorrowQuery) ([]domain.BorrowRecord, error)
	BookHistory(ctx context.Context, bookID int64) ([]domain.BorrowRecord, error)
	AuditTrail(ctx context.Context, id int64) ([]domain.BorrowRecordAudit, error)
	// Today is the calendar day the service treats as current.
	Today() domain.Date
}

type ReservationService interface {
	CreateReservation(ctx context.Context, actor domain.Actor, userID, bookID int64) (*domain.Reservation, error)
	CancelReservation(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error)
	RejectReservation(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error)
	ListByUser(ctx context.Context, actor domain.Actor, userID int64) ([]domain.Reservation, error)
	ListAll(ctx context.Context) ([]domain.Reservation, error)
	// PromoteNext turns pending reservations of a book into loan requests
	// while copies are on the shelf and returns how many were promoted.
	PromoteNext(ctx context.Context, bookID int64) (int, error)
	PromoteAll(ctx context.Context) (int, error)
}

type FineService interface {
	ListAll(ctx context.Context, paid *bool) ([]domain.Fine, error)
	ListByUser(ctx context.Context, actor domain.Actor, userID int64) ([]domain.Fine, error)
	TotalOutstanding(ctx context.Context, actor domain.Actor, userID int64) (decimal.Decimal, error)
	MarkAsPaid(ctx context.Context, actor domain.Actor, borrowRecordID int64) (*domain.Fine, error)
	AccrueOverdueFines(ctx context.Context) (int, error)
}

type ReminderService interface {
	SendOverdueReminders(ctx context.Context) (int, error)
	SendDueSoonReminders(ctx context.Context) (int, error)
}

type NotificationService interface {
	Notify(ctx context.Context, n *domain.Notification) error
	GetNotifications(ctx context.Context, userID int64, page, pageSize int) ([]domain.Notification, int, error)
	MarkAsRead(ctx context.Context, userID, notificationID int64) error
}

type EmailService interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendBorrowApproved(ctx context.Context, to, name, title string, due domain.Date) error
	SendBorrowRejected(ctx context.Context, to, name, title string) error
	SendReturnApproved(ctx context.Context, to, name, title string, fine decimal.Decimal) error
	SendReservationConfirmed(ctx context.Context, to, name, title string) error
	SendOverdueReminder(ctx context.Context, to, name, title string, due domain.Date, fine decimal.Decimal) error
	SendDueSoonReminder(ctx context.Context, to, name, title string, due domain.Date) error
}

// LoanNotifier tells members about changes to their loans. Delivery is best
// effort: failures are logged and never undo the change.
type LoanNotifier interface {
	BorrowApproved(ctx context.Context, rec domain.BorrowRecord)
	BorrowRejected(ctx context.Context, rec domain.BorrowRecord)
	ReturnApproved(ctx context.Context, rec domain.BorrowRecord)
	ReservationConfirmed(ctx context.Context, res domain.Reservation, rec domain.BorrowRecord)
	OverdueReminder(ctx context.Context, rec domain.BorrowRecord, fine decimal.Decimal)
	DueSoonReminder(ctx context.Context, rec domain.BorrowRecord)
}

// SessionStore tracks live refresh tokens by their JTI.
type SessionStore interface {
	Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error
	Lookup(ctx context.Context, jti string) (int64, error)
	Revoke(ctx context.Context, jti string) error
}

// Publisher pushes a serialized notification to a member's live connections.
type Publisher interface {
	Publish(userID int64, payload []byte)
}

// LendingPolicy holds the circulation rules.
type LendingPolicy struct {
	LoanPeriodDays         int
	DailyFineRate          decimal.Decimal
	MaxActiveLoans         int
	MaxPendingReservations int
	DueSoonDays            int
}

// Clock returns the current instant. Services derive "today" from it in UTC.
type Clock func() time.Time

func today(clock Clock) domain.Date {
	return domain.DateOf(clock())
}
