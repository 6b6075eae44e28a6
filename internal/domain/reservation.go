package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusRejected  ReservationStatus = "REJECTED"
)

type ReservationEvent string

const (
	// ReservationEventConfirm: a copy was set aside and a loan request created.
	ReservationEventConfirm ReservationEvent = "confirm"
	// ReservationEventComplete: the loan created from the reservation was approved.
	ReservationEventComplete ReservationEvent = "complete"
	ReservationEventCancel   ReservationEvent = "cancel"
	ReservationEventReject   ReservationEvent = "reject"
	// ReservationEventLapse: the loan created from the reservation was
	// cancelled or rejected, so the held copy went back to the queue.
	ReservationEventLapse ReservationEvent = "lapse"
	// ReservationEventExpire: the member reached the front of the queue but
	// can no longer take the copy (account disabled, or already holding or
	// requesting the book).
	ReservationEventExpire ReservationEvent = "expire"
)

type ReservationTransition struct {
	From  ReservationStatus
	To    ReservationStatus
	Event ReservationEvent
}

var reservationTransitions = []ReservationTransition{
	{From: ReservationStatusPending, To: ReservationStatusConfirmed, Event: ReservationEventConfirm},
	{From: ReservationStatusPending, To: ReservationStatusCancelled, Event: ReservationEventCancel},
	{From: ReservationStatusPending, To: ReservationStatusRejected, Event: ReservationEventReject},
	{From: ReservationStatusPending, To: ReservationStatusCancelled, Event: ReservationEventExpire},
	{From: ReservationStatusConfirmed, To: ReservationStatusCompleted, Event: ReservationEventComplete},
	{From: ReservationStatusConfirmed, To: ReservationStatusCancelled, Event: ReservationEventLapse},
}

func ReservationTransitionFor(from ReservationStatus, ev ReservationEvent) (ReservationTransition, bool) {
	for _, tr := range reservationTransitions {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return ReservationTransition{}, false
}

// Reservation is a member's place in the queue for a book with no copies
// on the shelf.
type Reservation struct {
	ID        int64             `db:"id"`
	BookID    int64             `db:"book_id"`
	UserID    int64             `db:"user_id"`
	Status    ReservationStatus `db:"status"`
	CreatedAt time.Time         `db:"created_at"`
	UpdatedAt time.Time         `db:"updated_at"`
}

func NewReservation(userID, bookID int64) *Reservation {
	return &Reservation{
		UserID: userID,
		BookID: bookID,
		Status: ReservationStatusPending,
	}
}

func (r *Reservation) Apply(ev ReservationEvent) error {
	tr, ok := ReservationTransitionFor(r.Status, ev)
	if !ok {
		return &TransitionError{Entity: "reservation", From: string(r.Status), Event: string(ev)}
	}
	r.Status = tr.To
	return nil
}
