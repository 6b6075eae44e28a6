package service_test

import (
	"context"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/repository"
	"mylib-backend/internal/service"
)

func TestNotificationService_Notify(t *testing.T) {
	ctx := context.Background()
	notes := new(MockNotificationRepo)
	publisher := new(MockPublisher)
	svc := service.NewNotificationService(notes, publisher)

	n := &domain.Notification{UserID: 7, Type: domain.NotificationDueSoon, Title: "Book due soon"}
	notes.On("Create", ctx, n).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Notification).ID = 55
	}).Return(nil)
	publisher.On("Publish", int64(7), mock.MatchedBy(func(payload []byte) bool {
		var got domain.Notification
		return jsoniter.Unmarshal(payload, &got) == nil && got.ID == 55 && got.Type == domain.NotificationDueSoon
	})).Return()

	require.NoError(t, svc.Notify(ctx, n))
	publisher.AssertExpectations(t)
}

func TestNotificationService_Paging(t *testing.T) {
	ctx := context.Background()
	notes := new(MockNotificationRepo)
	svc := service.NewNotificationService(notes, nil)

	notes.On("List", ctx, int64(7), 20, 0).Return([]domain.Notification{{ID: 1}}, 1, nil)
	notes.On("List", ctx, int64(7), 10, 20).Return([]domain.Notification{}, 1, nil)

	got, total, err := svc.GetNotifications(ctx, 7, 0, 500)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, total)

	_, _, err = svc.GetNotifications(ctx, 7, 3, 10)
	require.NoError(t, err)
	notes.AssertExpectations(t)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	notes := new(MockNotificationRepo)
	svc := service.NewNotificationService(notes, nil)
	notes.On("MarkAsRead", ctx, int64(3), int64(7)).Return(nil)
	notes.On("MarkAsRead", ctx, int64(4), int64(7)).Return(repository.ErrNotFound)

	assert.NoError(t, svc.MarkAsRead(ctx, 7, 3))
	assert.ErrorIs(t, svc.MarkAsRead(ctx, 7, 4), service.ErrNotificationNotFound)
}

func TestLoanNotifier(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: 7, Email: "ann@example.com", Name: "Ann"}
	book := &domain.Book{ID: 42, Title: "Dune"}

	t.Run("Overdue reminder stores a notification and sends mail", func(t *testing.T) {
		r := newRepoMocks()
		email := new(MockEmailService)
		notifier := service.NewLoanNotifier(r.users, r.books, service.NewNotificationService(r.notes, nil), email)

		rec := onLoan(100, today.AddDays(-3), domain.BorrowStatusBorrowed)
		fine := decimal.RequireFromString("1.50")
		r.users.On("GetByID", ctx, int64(7)).Return(user, nil)
		r.books.On("GetByID", ctx, int64(42)).Return(book, nil)
		r.notes.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.Type == domain.NotificationOverdue &&
				n.Attributes["borrowRecordId"] == "100" &&
				n.Attributes["bookId"] == "42"
		})).Return(nil)
		email.On("SendOverdueReminder", ctx, "ann@example.com", "Ann", "Dune", *rec.DueDate, fine).Return(nil)

		notifier.OverdueReminder(ctx, *rec, fine)
		r.notes.AssertExpectations(t)
		email.AssertExpectations(t)
	})

	t.Run("Missing user skips silently", func(t *testing.T) {
		r := newRepoMocks()
		email := new(MockEmailService)
		notifier := service.NewLoanNotifier(r.users, r.books, service.NewNotificationService(r.notes, nil), email)
		r.users.On("GetByID", ctx, int64(7)).Return(nil, repository.ErrNotFound)

		notifier.BorrowRejected(ctx, *onLoan(100, today, domain.BorrowStatusRejected))
		r.notes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		email.AssertNotCalled(t, "SendBorrowRejected", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
