package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type BorrowStatus string

const (
	BorrowStatusPending         BorrowStatus = "PENDING"
	BorrowStatusBorrowed        BorrowStatus = "BORROWED"
	BorrowStatusReturnRequested BorrowStatus = "RETURN_REQUESTED"
	BorrowStatusReturned        BorrowStatus = "RETURNED"
	BorrowStatusRejected        BorrowStatus = "REJECTED"
	BorrowStatusCancelled       BorrowStatus = "CANCELLED"
)

// DisplayStatusOverdue is shown instead of the stored status for loans past
// their due date. It is never persisted.
const DisplayStatusOverdue = "OVERDUE"

var allBorrowStatuses = []BorrowStatus{
	BorrowStatusPending,
	BorrowStatusBorrowed,
	BorrowStatusReturnRequested,
	BorrowStatusReturned,
	BorrowStatusRejected,
	BorrowStatusCancelled,
}

// ParseBorrowStatus validates a status received from a client.
func ParseBorrowStatus(s string) (BorrowStatus, error) {
	for _, st := range allBorrowStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown borrow status %q", s)
}

// IsTerminal reports whether no further event can leave this status.
func (s BorrowStatus) IsTerminal() bool {
	return s == BorrowStatusReturned || s == BorrowStatusRejected || s == BorrowStatusCancelled
}

// IsOnLoan reports whether the copy is physically with the member.
func (s BorrowStatus) IsOnLoan() bool {
	return s == BorrowStatusBorrowed || s == BorrowStatusReturnRequested
}

// OpenBorrowStatuses count against a member's loan limit.
var OpenBorrowStatuses = []BorrowStatus{
	BorrowStatusPending,
	BorrowStatusBorrowed,
	BorrowStatusReturnRequested,
}

// OnLoanStatuses are the statuses in which a record can become overdue.
var OnLoanStatuses = []BorrowStatus{
	BorrowStatusBorrowed,
	BorrowStatusReturnRequested,
}

type BorrowEvent string

const (
	BorrowEventApprove       BorrowEvent = "approve"
	BorrowEventReject        BorrowEvent = "reject"
	BorrowEventCancel        BorrowEvent = "cancel"
	BorrowEventRequestReturn BorrowEvent = "request return of"
	BorrowEventCancelReturn  BorrowEvent = "cancel return of"
	BorrowEventApproveReturn BorrowEvent = "approve return of"
)

// BorrowTransition is one allowed edge of the loan lifecycle.
type BorrowTransition struct {
	From  BorrowStatus
	To    BorrowStatus
	Event BorrowEvent
}

var borrowTransitions = []BorrowTransition{
	{From: BorrowStatusPending, To: BorrowStatusBorrowed, Event: BorrowEventApprove},
	{From: BorrowStatusPending, To: BorrowStatusRejected, Event: BorrowEventReject},
	{From: BorrowStatusPending, To: BorrowStatusCancelled, Event: BorrowEventCancel},
	{From: BorrowStatusBorrowed, To: BorrowStatusReturnRequested, Event: BorrowEventRequestReturn},
	{From: BorrowStatusReturnRequested, To: BorrowStatusBorrowed, Event: BorrowEventCancelReturn},
	{From: BorrowStatusReturnRequested, To: BorrowStatusReturned, Event: BorrowEventApproveReturn},
}

// BorrowTransitionFor returns the allowed transition for a status and event.
func BorrowTransitionFor(from BorrowStatus, ev BorrowEvent) (BorrowTransition, bool) {
	for _, tr := range borrowTransitions {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return BorrowTransition{}, false
}

// BorrowRecord is a single loan of one book to one member.
type BorrowRecord struct {
	ID             int64           `db:"id"`
	BookID         int64           `db:"book_id"`
	UserID         int64           `db:"user_id"`
	Status         BorrowStatus    `db:"status"`
	IssueDate      *Date           `db:"issue_date"`
	DueDate        *Date           `db:"due_date"`
	ReturnDate     *Date           `db:"return_date"`
	FineAmount     decimal.Decimal `db:"fine_amount"`
	FinePaid       bool            `db:"fine_paid"`
	FinePaidAmount decimal.Decimal `db:"fine_paid_amount"`
	FinePaidAt     *time.Time      `db:"fine_paid_at"`
	ReservationID  *int64          `db:"reservation_id"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// BorrowVersion is the part of a record that concurrent writers race on.
// Stores only persist a change when the row still matches it.
type BorrowVersion struct {
	Status         BorrowStatus
	FinePaid       bool
	FinePaidAmount decimal.Decimal
}

// NewBorrowRequest returns a PENDING record with no dates set.
func NewBorrowRequest(userID, bookID int64) *BorrowRecord {
	return &BorrowRecord{
		UserID:     userID,
		BookID:     bookID,
		Status:     BorrowStatusPending,
		FineAmount: decimal.Zero,
	}
}

func (r *BorrowRecord) Version() BorrowVersion {
	return BorrowVersion{Status: r.Status, FinePaid: r.FinePaid, FinePaidAmount: r.FinePaidAmount}
}

// FromReservation reports whether the record was created by promoting a
// reservation. Such records already hold their copy.
func (r *BorrowRecord) FromReservation() bool {
	return r.ReservationID != nil
}

func (r *BorrowRecord) apply(ev BorrowEvent) error {
	tr, ok := BorrowTransitionFor(r.Status, ev)
	if !ok {
		return &TransitionError{Entity: "borrow record", From: string(r.Status), Event: string(ev)}
	}
	r.Status = tr.To
	return nil
}

// Approve hands the copy out: the loan starts today and is due after
// loanDays.
func (r *BorrowRecord) Approve(today Date, loanDays int) error {
	if err := r.apply(BorrowEventApprove); err != nil {
		return err
	}
	r.IssueDate = today.Ptr()
	r.DueDate = today.AddDays(loanDays).Ptr()
	return nil
}

func (r *BorrowRecord) Reject() error { return r.apply(BorrowEventReject) }

func (r *BorrowRecord) Cancel() error { return r.apply(BorrowEventCancel) }

func (r *BorrowRecord) RequestReturn() error { return r.apply(BorrowEventRequestReturn) }

func (r *BorrowRecord) CancelReturn() error { return r.apply(BorrowEventCancelReturn) }

// ApproveReturn closes the loan and finalizes the fine for every day past
// the due date. Payments made while the book was out count towards it, and
// the fine is settled only when they cover the whole amount.
func (r *BorrowRecord) ApproveReturn(today Date, dailyRate decimal.Decimal) error {
	if err := r.apply(BorrowEventApproveReturn); err != nil {
		return err
	}
	r.ReturnDate = today.Ptr()
	if r.DueDate != nil {
		r.FineAmount = CalculateFine(*r.DueDate, today, dailyRate)
	}
	r.FinePaid = r.FineAmount.IsPositive() && r.UnpaidFine().IsZero()
	return nil
}

// IsOverdue derives the overdue flag; it is never stored.
func (r *BorrowRecord) IsOverdue(today Date) bool {
	return r.Status.IsOnLoan() && r.DueDate != nil && r.DueDate.Before(today)
}

func (r *BorrowRecord) DisplayStatus(today Date) string {
	if r.IsOverdue(today) {
		return DisplayStatusOverdue
	}
	return string(r.Status)
}

// ErrInvalidCorrection is wrapped by every rejected administrative patch.
var ErrInvalidCorrection = errors.New("invalid correction")

// BorrowRecordPatch lists the fields an administrator may force-correct.
// Nil fields are left untouched.
type BorrowRecordPatch struct {
	IssueDate  *Date
	DueDate    *Date
	ReturnDate *Date
	FineAmount *decimal.Decimal
}

func (p BorrowRecordPatch) IsEmpty() bool {
	return p.IssueDate == nil && p.DueDate == nil && p.ReturnDate == nil && p.FineAmount == nil
}

// ApplyCorrection overwrites the patched fields. The status never changes
// and the result must still be a consistent record.
func (r *BorrowRecord) ApplyCorrection(p BorrowRecordPatch) error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: nothing to change", ErrInvalidCorrection)
	}
	next := *r
	if p.IssueDate != nil {
		next.IssueDate = p.IssueDate
	}
	if p.DueDate != nil {
		next.DueDate = p.DueDate
	}
	if p.ReturnDate != nil {
		next.ReturnDate = p.ReturnDate
	}
	if p.FineAmount != nil {
		next.FineAmount = *p.FineAmount
	}

	switch {
	case next.FineAmount.IsNegative():
		return fmt.Errorf("%w: fine amount cannot be negative", ErrInvalidCorrection)
	case next.Status == BorrowStatusPending && (next.IssueDate != nil || next.DueDate != nil):
		return fmt.Errorf("%w: a pending request has no loan dates", ErrInvalidCorrection)
	case next.IssueDate == nil && (next.DueDate != nil || next.ReturnDate != nil):
		return fmt.Errorf("%w: due and return dates require an issue date", ErrInvalidCorrection)
	case next.IssueDate != nil && next.DueDate != nil && next.DueDate.Before(*next.IssueDate):
		return fmt.Errorf("%w: due date is before issue date", ErrInvalidCorrection)
	case next.ReturnDate != nil && next.Status != BorrowStatusReturned:
		return fmt.Errorf("%w: only returned records have a return date", ErrInvalidCorrection)
	case next.ReturnDate != nil && next.ReturnDate.Before(*next.IssueDate):
		return fmt.Errorf("%w: return date is before issue date", ErrInvalidCorrection)
	}

	*r = next
	return nil
}
