package domain_test

import (
	"testing"
	"time"

	"mylib-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	today = domain.NewDate(2026, time.March, 10)
	rate  = decimal.RequireFromString("0.50")
)

func borrowed(due domain.Date) *domain.BorrowRecord {
	rec := domain.NewBorrowRequest(7, 42)
	rec.Status = domain.BorrowStatusBorrowed
	rec.IssueDate = due.AddDays(-14).Ptr()
	rec.DueDate = due.Ptr()
	return rec
}

func TestBorrowTransitionTable(t *testing.T) {
	events := []domain.BorrowEvent{
		domain.BorrowEventApprove,
		domain.BorrowEventReject,
		domain.BorrowEventCancel,
		domain.BorrowEventRequestReturn,
		domain.BorrowEventCancelReturn,
		domain.BorrowEventApproveReturn,
	}
	allowed := map[domain.BorrowStatus]map[domain.BorrowEvent]domain.BorrowStatus{
		domain.BorrowStatusPending: {
			domain.BorrowEventApprove: domain.BorrowStatusBorrowed,
			domain.BorrowEventReject:  domain.BorrowStatusRejected,
			domain.BorrowEventCancel:  domain.BorrowStatusCancelled,
		},
		domain.BorrowStatusBorrowed: {
			domain.BorrowEventRequestReturn: domain.BorrowStatusReturnRequested,
		},
		domain.BorrowStatusReturnRequested: {
			domain.BorrowEventCancelReturn:  domain.BorrowStatusBorrowed,
			domain.BorrowEventApproveReturn: domain.BorrowStatusReturned,
		},
		domain.BorrowStatusReturned:  {},
		domain.BorrowStatusRejected:  {},
		domain.BorrowStatusCancelled: {},
	}

	for from, edges := range allowed {
		for _, ev := range events {
			tr, ok := domain.BorrowTransitionFor(from, ev)
			want, exists := edges[ev]
			assert.Equal(t, exists, ok, "%s from %s", ev, from)
			if exists {
				assert.Equal(t, want, tr.To, "%s from %s", ev, from)
			}
		}
		if from.IsTerminal() {
			assert.Empty(t, edges)
		}
	}
}

func TestBorrowRecord_Approve(t *testing.T) {
	t.Run("sets loan dates", func(t *testing.T) {
		rec := domain.NewBorrowRequest(7, 42)
		assert.Nil(t, rec.IssueDate)

		require.NoError(t, rec.Approve(today, 14))
		assert.Equal(t, domain.BorrowStatusBorrowed, rec.Status)
		assert.Equal(t, today, *rec.IssueDate)
		assert.Equal(t, domain.NewDate(2026, time.March, 24), *rec.DueDate)
	})

	t.Run("rejects a second approval", func(t *testing.T) {
		rec := borrowed(today)
		err := rec.Approve(today, 14)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, domain.BorrowStatusBorrowed, rec.Status)
	})
}

func TestBorrowRecord_InvalidTransitions(t *testing.T) {
	t.Run("approve return on pending", func(t *testing.T) {
		rec := domain.NewBorrowRequest(7, 42)
		err := rec.ApproveReturn(today, rate)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.EqualError(t, err, "cannot approve return of borrow record in status PENDING")
		assert.Equal(t, domain.BorrowStatusPending, rec.Status)
	})

	t.Run("cancel after borrowed", func(t *testing.T) {
		rec := borrowed(today)
		assert.ErrorIs(t, rec.Cancel(), domain.ErrInvalidTransition)
	})

	t.Run("request return while pending", func(t *testing.T) {
		rec := domain.NewBorrowRequest(7, 42)
		assert.ErrorIs(t, rec.RequestReturn(), domain.ErrInvalidTransition)
	})

	t.Run("cancel return while borrowed", func(t *testing.T) {
		rec := borrowed(today)
		assert.ErrorIs(t, rec.CancelReturn(), domain.ErrInvalidTransition)
	})
}

func TestBorrowRecord_ApproveReturn(t *testing.T) {
	t.Run("late return is fined per day", func(t *testing.T) {
		rec := borrowed(today.AddDays(-10))
		require.NoError(t, rec.RequestReturn())
		require.NoError(t, rec.ApproveReturn(today, rate))

		assert.Equal(t, domain.BorrowStatusReturned, rec.Status)
		assert.Equal(t, today, *rec.ReturnDate)
		assert.True(t, decimal.RequireFromString("5.00").Equal(rec.FineAmount))
	})

	t.Run("on time return has no fine", func(t *testing.T) {
		rec := borrowed(today)
		require.NoError(t, rec.RequestReturn())
		require.NoError(t, rec.ApproveReturn(today, rate))
		assert.True(t, rec.FineAmount.IsZero())
	})

	t.Run("early payment leaves later days owed", func(t *testing.T) {
		rec := borrowed(today.AddDays(-10))
		require.NoError(t, rec.PayFine(today.AddDays(-9), rate, time.Now()))
		assert.False(t, rec.FinePaid)

		require.NoError(t, rec.RequestReturn())
		require.NoError(t, rec.ApproveReturn(today, rate))
		assert.Equal(t, "5.00", rec.FineAmount.StringFixed(2))
		assert.Equal(t, "4.50", rec.UnpaidFine().StringFixed(2))
		assert.False(t, rec.FinePaid)

		require.NoError(t, rec.PayFine(today, rate, time.Now()))
		assert.True(t, rec.FinePaid)
		assert.True(t, rec.UnpaidFine().IsZero())
	})

	t.Run("fine paid in full before the return is settled", func(t *testing.T) {
		rec := borrowed(today.AddDays(-4))
		require.NoError(t, rec.PayFine(today, rate, time.Now()))
		require.NoError(t, rec.RequestReturn())
		require.NoError(t, rec.ApproveReturn(today, rate))
		assert.Equal(t, "2.00", rec.FineAmount.StringFixed(2))
		assert.True(t, rec.FinePaid)
	})
}

func TestBorrowRecord_Overdue(t *testing.T) {
	rec := borrowed(today.AddDays(-1))
	assert.True(t, rec.IsOverdue(today))
	assert.Equal(t, domain.DisplayStatusOverdue, rec.DisplayStatus(today))

	rec = borrowed(today)
	assert.False(t, rec.IsOverdue(today))
	assert.Equal(t, "BORROWED", rec.DisplayStatus(today))

	pending := domain.NewBorrowRequest(7, 42)
	assert.False(t, pending.IsOverdue(today))
}

func TestBorrowRecord_ApplyCorrection(t *testing.T) {
	returned := func() *domain.BorrowRecord {
		rec := borrowed(today.AddDays(-3))
		rec.Status = domain.BorrowStatusReturned
		rec.ReturnDate = today.Ptr()
		rec.FineAmount = decimal.RequireFromString("1.50")
		return rec
	}

	t.Run("waives a fine", func(t *testing.T) {
		rec := returned()
		zero := decimal.Zero
		require.NoError(t, rec.ApplyCorrection(domain.BorrowRecordPatch{FineAmount: &zero}))
		assert.True(t, rec.FineAmount.IsZero())
		assert.Equal(t, domain.BorrowStatusReturned, rec.Status)
	})

	cases := []struct {
		name  string
		rec   func() *domain.BorrowRecord
		patch domain.BorrowRecordPatch
	}{
		{"empty patch", returned, domain.BorrowRecordPatch{}},
		{"negative fine", returned, domain.BorrowRecordPatch{FineAmount: ptr(decimal.NewFromInt(-1))}},
		{"due before issue", returned, domain.BorrowRecordPatch{DueDate: today.AddDays(-30).Ptr()}},
		{"return date on active loan", func() *domain.BorrowRecord { return borrowed(today) }, domain.BorrowRecordPatch{ReturnDate: today.Ptr()}},
		{"dates on pending request", func() *domain.BorrowRecord { return domain.NewBorrowRequest(1, 2) }, domain.BorrowRecordPatch{IssueDate: today.Ptr()}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := tc.rec()
			before := *rec
			err := rec.ApplyCorrection(tc.patch)
			assert.ErrorIs(t, err, domain.ErrInvalidCorrection)
			assert.Equal(t, before, *rec)
		})
	}
}

func ptr[T any](v T) *T { return &v }
