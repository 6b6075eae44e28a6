package service_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/repository"
)

// fakeTx runs the callback against the same mocked repositories.
type fakeTx struct {
	repos repository.Repositories
}

func (f fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return fn(ctx, f.repos)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}
func (m *MockUserRepo) ReplaceRoles(ctx context.Context, userID int64, roles []domain.Role) error {
	args := m.Called(ctx, userID, roles)
	return args.Error(0)
}
func (m *MockUserRepo) SetEnabled(ctx context.Context, userID int64, enabled bool) error {
	args := m.Called(ctx, userID, enabled)
	return args.Error(0)
}

// MockBookRepo
type MockBookRepo struct {
	mock.Mock
}

func (m *MockBookRepo) Create(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}
func (m *MockBookRepo) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}
func (m *MockBookRepo) Update(ctx context.Context, book *domain.Book) error {
	args := m.Called(ctx, book)
	return args.Error(0)
}
func (m *MockBookRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockBookRepo) List(ctx context.Context) ([]domain.Book, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Book), args.Error(1)
}
func (m *MockBookRepo) Search(ctx context.Context, query string) ([]domain.Book, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]domain.Book), args.Error(1)
}
func (m *MockBookRepo) AdjustQuantity(ctx context.Context, id int64, delta int) (int, error) {
	args := m.Called(ctx, id, delta)
	return args.Int(0), args.Error(1)
}

// MockBorrowRepo
type MockBorrowRepo struct {
	mock.Mock
}

func (m *MockBorrowRepo) Create(ctx context.Context, rec *domain.BorrowRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockBorrowRepo) GetByID(ctx context.Context, id int64) (*domain.BorrowRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BorrowRecord), args.Error(1)
}
func (m *MockBorrowRepo) List(ctx context.Context, filter repository.BorrowFilter) ([]domain.BorrowRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BorrowRecord), args.Error(1)
}
func (m *MockBorrowRepo) CountOpenByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *MockBorrowRepo) Save(ctx context.Context, rec *domain.BorrowRecord, prev domain.BorrowVersion) error {
	args := m.Called(ctx, rec, prev)
	return args.Error(0)
}

// MockReservationRepo
type MockReservationRepo struct {
	mock.Mock
}

func (m *MockReservationRepo) Create(ctx context.Context, res *domain.Reservation) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}
func (m *MockReservationRepo) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) List(ctx context.Context, filter repository.ReservationFilter) ([]domain.Reservation, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) ExistsPending(ctx context.Context, userID, bookID int64) (bool, error) {
	args := m.Called(ctx, userID, bookID)
	return args.Bool(0), args.Error(1)
}
func (m *MockReservationRepo) CountPendingByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *MockReservationRepo) NextPending(ctx context.Context, bookID int64, skip []int64) (*domain.Reservation, error) {
	args := m.Called(ctx, bookID, skip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}
func (m *MockReservationRepo) BookIDsWithPending(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int64), args.Error(1)
}
func (m *MockReservationRepo) Save(ctx context.Context, res *domain.Reservation, prev domain.ReservationStatus) error {
	args := m.Called(ctx, res, prev)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// MockAuditRepo
type MockAuditRepo struct {
	mock.Mock
}

func (m *MockAuditRepo) Create(ctx context.Context, a *domain.BorrowRecordAudit) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockAuditRepo) ListByRecord(ctx context.Context, id int64) ([]domain.BorrowRecordAudit, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.BorrowRecordAudit), args.Error(1)
}

// MockNotifier records loan notifications.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BorrowApproved(ctx context.Context, rec domain.BorrowRecord) {
	m.Called(ctx, rec)
}
func (m *MockNotifier) BorrowRejected(ctx context.Context, rec domain.BorrowRecord) {
	m.Called(ctx, rec)
}
func (m *MockNotifier) ReturnApproved(ctx context.Context, rec domain.BorrowRecord) {
	m.Called(ctx, rec)
}
func (m *MockNotifier) ReservationConfirmed(ctx context.Context, res domain.Reservation, rec domain.BorrowRecord) {
	m.Called(ctx, res, rec)
}
func (m *MockNotifier) OverdueReminder(ctx context.Context, rec domain.BorrowRecord, fine decimal.Decimal) {
	m.Called(ctx, rec, fine)
}
func (m *MockNotifier) DueSoonReminder(ctx context.Context, rec domain.BorrowRecord) {
	m.Called(ctx, rec)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendWelcome(ctx context.Context, to, name string) error {
	args := m.Called(ctx, to, name)
	return args.Error(0)
}
func (m *MockEmailService) SendBorrowApproved(ctx context.Context, to, name, title string, due domain.Date) error {
	args := m.Called(ctx, to, name, title, due)
	return args.Error(0)
}
func (m *MockEmailService) SendBorrowRejected(ctx context.Context, to, name, title string) error {
	args := m.Called(ctx, to, name, title)
	return args.Error(0)
}
func (m *MockEmailService) SendReturnApproved(ctx context.Context, to, name, title string, fine decimal.Decimal) error {
	args := m.Called(ctx, to, name, title, fine)
	return args.Error(0)
}
func (m *MockEmailService) SendReservationConfirmed(ctx context.Context, to, name, title string) error {
	args := m.Called(ctx, to, name, title)
	return args.Error(0)
}
func (m *MockEmailService) SendOverdueReminder(ctx context.Context, to, name, title string, due domain.Date, fine decimal.Decimal) error {
	args := m.Called(ctx, to, name, title, due, fine)
	return args.Error(0)
}
func (m *MockEmailService) SendDueSoonReminder(ctx context.Context, to, name, title string, due domain.Date) error {
	args := m.Called(ctx, to, name, title, due)
	return args.Error(0)
}

// MockSessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error {
	args := m.Called(ctx, jti, userID, ttl)
	return args.Error(0)
}
func (m *MockSessionStore) Lookup(ctx context.Context, jti string) (int64, error) {
	args := m.Called(ctx, jti)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockSessionStore) Revoke(ctx context.Context, jti string) error {
	args := m.Called(ctx, jti)
	return args.Error(0)
}

// MockPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(userID int64, payload []byte) {
	m.Called(userID, payload)
}

// repoMocks bundles one mock per repository.
type repoMocks struct {
	users        *MockUserRepo
	books        *MockBookRepo
	borrows      *MockBorrowRepo
	reservations *MockReservationRepo
	notes        *MockNotificationRepo
	audits       *MockAuditRepo
}

func newRepoMocks() *repoMocks {
	return &repoMocks{
		users:        new(MockUserRepo),
		books:        new(MockBookRepo),
		borrows:      new(MockBorrowRepo),
		reservations: new(MockReservationRepo),
		notes:        new(MockNotificationRepo),
		audits:       new(MockAuditRepo),
	}
}

func (r *repoMocks) repos() repository.Repositories {
	return repository.Repositories{
		Users:         r.users,
		Books:         r.books,
		Borrows:       r.borrows,
		Reservations:  r.reservations,
		Notifications: r.notes,
		Audits:        r.audits,
	}
}

func (r *repoMocks) tx() repository.Transactor {
	return fakeTx{repos: r.repos()}
}

// memberInGoodStanding stubs the queue checks for an enabled member with
// openLoans loans, none of them for the queued book.
func (r *repoMocks) memberInGoodStanding(ctx context.Context, userID int64, openLoans int) {
	r.users.On("GetByID", ctx, userID).Return(&domain.User{ID: userID, Enabled: true}, nil)
	r.borrows.On("List", ctx, mock.MatchedBy(func(f repository.BorrowFilter) bool {
		return f.UserID != nil && *f.UserID == userID
	})).Return([]domain.BorrowRecord{}, nil)
	r.borrows.On("CountOpenByUser", ctx, userID).Return(openLoans, nil)
}
