package http_test

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	api "mylib-backend/internal/api/http"
	"mylib-backend/internal/domain"
	"mylib-backend/internal/security"
	"mylib-backend/internal/service"
)

// MockBorrowService
type MockBorrowService struct {
	mock.Mock
	today domain.Date
}

func (m *MockBorrowService) record(args mock.Arguments) (*domain.BorrowRecord, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BorrowRecord), args.Error(1)
}

func (m *MockBorrowService) records(args mock.Arguments) ([]domain.BorrowRecord, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BorrowRecord), args.Error(1)
}

func (m *MockBorrowService) RequestBorrow(ctx context.Context, actor domain.Actor, userID, bookID int64) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, userID, bookID))
}
func (m *MockBorrowService) CancelBorrowRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, id))
}
func (m *MockBorrowService) ApproveBorrow(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, id))
}
func (m *MockBorrowService) RejectBorrow(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, id))
}
func (m *MockBorrowService) RequestReturn(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, id))
}
func (m *MockBorrowService) CancelReturnRequest(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, id))
}
func (m *MockBorrowService) ApproveReturn(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, id))
}
func (m *MockBorrowService) AdminCorrectRecord(ctx context.Context, actor domain.Actor, id int64, patch domain.BorrowRecordPatch, reason string) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, id, patch, reason))
}
func (m *MockBorrowService) GetRecord(ctx context.Context, actor domain.Actor, id int64) (*domain.BorrowRecord, error) {
	return m.record(m.Called(ctx, actor, id))
}
func (m *MockBorrowService) History(ctx context.Context, actor domain.Actor, userID int64) ([]domain.BorrowRecord, error) {
	return m.records(m.Called(ctx, actor, userID))
}
func (m *MockBorrowService) Active(ctx context.Context, actor domain.Actor, userID int64) ([]domain.BorrowRecord, error) {
	return m.records(m.Called(ctx, actor, userID))
}
func (m *MockBorrowService) All(ctx context.Context, q service.BorrowQuery) ([]domain.BorrowRecord, error) {
	return m.records(m.Called(ctx, q))
}
func (m *MockBorrowService) BookHistory(ctx context.Context, bookID int64) ([]domain.BorrowRecord, error) {
	return m.records(m.Called(ctx, bookID))
}
func (m *MockBorrowService) AuditTrail(ctx context.Context, id int64) ([]domain.BorrowRecordAudit, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]domain.BorrowRecordAudit), args.Error(1)
}
func (m *MockBorrowService) Today() domain.Date { return m.today }

// MockReservationService
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) reservation(args mock.Arguments) (*domain.Reservation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationService) CreateReservation(ctx context.Context, actor domain.Actor, userID, bookID int64) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, actor, userID, bookID))
}
func (m *MockReservationService) CancelReservation(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, actor, id))
}
func (m *MockReservationService) RejectReservation(ctx context.Context, actor domain.Actor, id int64) (*domain.Reservation, error) {
	return m.reservation(m.Called(ctx, actor, id))
}
func (m *MockReservationService) ListByUser(ctx context.Context, actor domain.Actor, userID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, actor, userID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationService) ListAll(ctx context.Context) ([]domain.Reservation, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}
func (m *MockReservationService) PromoteNext(ctx context.Context, bookID int64) (int, error) {
	args := m.Called(ctx, bookID)
	return args.Int(0), args.Error(1)
}
func (m *MockReservationService) PromoteAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockFineService
type MockFineService struct {
	mock.Mock
}

func (m *MockFineService) ListAll(ctx context.Context, paid *bool) ([]domain.Fine, error) {
	args := m.Called(ctx, paid)
	return args.Get(0).([]domain.Fine), args.Error(1)
}
func (m *MockFineService) ListByUser(ctx context.Context, actor domain.Actor, userID int64) ([]domain.Fine, error) {
	args := m.Called(ctx, actor, userID)
	return args.Get(0).([]domain.Fine), args.Error(1)
}
func (m *MockFineService) TotalOutstanding(ctx context.Context, actor domain.Actor, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, actor, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}
func (m *MockFineService) MarkAsPaid(ctx context.Context, actor domain.Actor, id int64) (*domain.Fine, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Fine), args.Error(1)
}
func (m *MockFineService) AccrueOverdueFines(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

const testSecret = "http-test-secret"

var (
	today     = domain.NewDate(2026, 3, 10)
	member    = domain.Actor{UserID: 7, Roles: []domain.Role{domain.RoleStudent}}
	librarian = domain.Actor{UserID: 2, Roles: []domain.Role{domain.RoleLibrarian}}
	admin     = domain.Actor{UserID: 1, Roles: []domain.Role{domain.RoleAdmin}}
)

type testAPI struct {
	handler      http.Handler
	tokens       security.TokenManager
	borrows      *MockBorrowService
	reservations *MockReservationService
	fines        *MockFineService
}

func newTestAPI() *testAPI {
	t := &testAPI{
		tokens:       security.NewTokenManager(testSecret, 15*time.Minute, time.Hour),
		borrows:      &MockBorrowService{today: today},
		reservations: new(MockReservationService),
		fines:        new(MockFineService),
	}
	t.handler = api.NewRouter(api.Services{
		Borrows:      t.borrows,
		Reservations: t.reservations,
		Fines:        t.fines,
	}, t.tokens, fakePinger{}, nil, []string{"https://library.example.com"})
	return t
}

func (t *testAPI) accessToken(actor domain.Actor) string {
	roles := make([]string, len(actor.Roles))
	for i, r := range actor.Roles {
		roles[i] = string(r)
	}
	issued, err := t.tokens.GenerateAccessToken(actor.UserID, "user@example.com", roles)
	if err != nil {
		panic(err)
	}
	return issued.Token
}
