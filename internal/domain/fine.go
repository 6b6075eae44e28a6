package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrFineAlreadyPaid = errors.New("fine has already been paid")
	ErrNoFineDue       = errors.New("no fine is due for this borrow record")
)

// OverdueDays counts the whole days asOf lies past due; zero when not late.
func OverdueDays(due, asOf Date) int {
	days := due.DaysUntil(asOf)
	if days < 0 {
		return 0
	}
	return days
}

// CalculateFine charges dailyRate for every day past the due date.
func CalculateFine(due, asOf Date, dailyRate decimal.Decimal) decimal.Decimal {
	days := OverdueDays(due, asOf)
	if days == 0 {
		return decimal.Zero
	}
	return dailyRate.Mul(decimal.NewFromInt(int64(days))).Round(2)
}

// CurrentFine is the whole fine as of today: the running total for an
// overdue loan, the finalized amount otherwise.
func (r *BorrowRecord) CurrentFine(today Date, dailyRate decimal.Decimal) decimal.Decimal {
	if r.IsOverdue(today) {
		return CalculateFine(*r.DueDate, today, dailyRate)
	}
	return r.FineAmount
}

// OutstandingFine is the part of CurrentFine not yet paid.
func (r *BorrowRecord) OutstandingFine(today Date, dailyRate decimal.Decimal) decimal.Decimal {
	return nonNegative(r.CurrentFine(today, dailyRate).Sub(r.FinePaidAmount))
}

// UnpaidFine is the part of the stored fine not yet paid.
func (r *BorrowRecord) UnpaidFine() decimal.Decimal {
	return nonNegative(r.FineAmount.Sub(r.FinePaidAmount))
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// AccrueFine refreshes the stored fine of an overdue loan and reports
// whether it changed. Earlier payments do not stop it from growing.
func (r *BorrowRecord) AccrueFine(today Date, dailyRate decimal.Decimal) bool {
	if !r.IsOverdue(today) {
		return false
	}
	accrued := CalculateFine(*r.DueDate, today, dailyRate)
	if accrued.Equal(r.FineAmount) {
		return false
	}
	r.FineAmount = accrued
	return true
}

// PayFine pays what is owed today. On a returned record this settles the
// fine for good. On an overdue loan still out it pays the amount accrued so
// far; the fine keeps growing until the return, and ApproveReturn decides
// whether it ends up settled. Paying never touches the loan status.
func (r *BorrowRecord) PayFine(today Date, dailyRate decimal.Decimal, at time.Time) error {
	if r.FinePaid {
		return ErrFineAlreadyPaid
	}
	switch {
	case r.Status == BorrowStatusReturned:
	case r.IsOverdue(today):
		r.FineAmount = CalculateFine(*r.DueDate, today, dailyRate)
	default:
		return ErrNoFineDue
	}
	if !r.UnpaidFine().IsPositive() {
		if r.FinePaidAmount.IsPositive() {
			return ErrFineAlreadyPaid
		}
		return ErrNoFineDue
	}
	r.FinePaidAmount = r.FineAmount
	r.FinePaidAt = &at
	r.FinePaid = r.Status == BorrowStatusReturned
	return nil
}

// Fine is the ledger view of a borrow record that carries a penalty.
type Fine struct {
	BorrowRecordID int64
	UserID         int64
	BookID         int64
	Amount         decimal.Decimal
	PaidAmount     decimal.Decimal
	Outstanding    decimal.Decimal
	IssueDate      *Date
	DueDate        *Date
	ReturnDate     *Date
	Status         BorrowStatus
	Overdue        bool
	Paid           bool
	PaidAt         *time.Time
}

func FineFromRecord(r BorrowRecord, today Date, dailyRate decimal.Decimal) Fine {
	return Fine{
		BorrowRecordID: r.ID,
		UserID:         r.UserID,
		BookID:         r.BookID,
		Amount:         r.CurrentFine(today, dailyRate),
		PaidAmount:     r.FinePaidAmount,
		Outstanding:    r.OutstandingFine(today, dailyRate),
		IssueDate:      r.IssueDate,
		DueDate:        r.DueDate,
		ReturnDate:     r.ReturnDate,
		Status:         r.Status,
		Overdue:        r.IsOverdue(today),
		Paid:           r.FinePaid,
		PaidAt:         r.FinePaidAt,
	}
}
