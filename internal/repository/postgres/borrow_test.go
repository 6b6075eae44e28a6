package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/repository"
	"mylib-backend/internal/repository/postgres"
)

var borrowCols = []string{"id", "book_id", "user_id", "status", "issue_date", "due_date", "return_date", "fine_amount", "fine_paid", "fine_paid_amount", "fine_paid_at", "reservation_id", "created_at", "updated_at"}

func TestBorrowRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewBorrowRepository(db)
	now := time.Now()
	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM borrow_records WHERE id = \\$1").
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(borrowCols).
			AddRow(5, 2, 3, "BORROWED", issue, due, nil, "1.50", false, "0.50", nil, nil, now, now))

	rec, err := repo.GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowStatusBorrowed, rec.Status)
	assert.Equal(t, "2026-03-15", rec.DueDate.String())
	assert.Nil(t, rec.ReturnDate)
	assert.True(t, rec.FineAmount.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, rec.FinePaidAmount.Equal(decimal.RequireFromString("0.5")))
	assert.Nil(t, rec.ReservationID)
}

func TestBorrowRepository_Save(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewBorrowRepository(db)
	ctx := context.Background()

	rec := &domain.BorrowRecord{ID: 5, Status: domain.BorrowStatusReturnRequested, FineAmount: decimal.Zero}
	prev := domain.BorrowVersion{Status: domain.BorrowStatusBorrowed}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE borrow_records").
			WithArgs(rec.Status, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
				int64(5), domain.BorrowStatusBorrowed, false, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Save(ctx, rec, prev))
	})

	t.Run("StaleWrite", func(t *testing.T) {
		mock.ExpectExec("UPDATE borrow_records").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Save(ctx, rec, prev), repository.ErrStaleWrite)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrowRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewBorrowRepository(db)
	userID := int64(3)

	mock.ExpectQuery(`SELECT (.+) FROM "borrow_records" WHERE \(\("user_id" = \$1\) AND \("status" IN \(\$2, \$3\)\)\) ORDER BY "created_at" DESC, "id" DESC`).
		WithArgs(userID, "BORROWED", "RETURN_REQUESTED").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(1, "BORROWED").AddRow(2, "RETURN_REQUESTED"))

	recs, err := repo.List(context.Background(), repository.BorrowFilter{
		UserID:   &userID,
		Statuses: domain.OnLoanStatuses,
	})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrowRepository_CountOpenByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := postgres.NewBorrowRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "borrow_records"`).
		WithArgs(int64(3), "PENDING", "BORROWED", "RETURN_REQUESTED").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountOpenByUser(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
