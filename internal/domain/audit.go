package domain

import "time"

// BorrowRecordAudit stores one administrative force-correction together with
// JSON snapshots of the record before and after it.
type BorrowRecordAudit struct {
	ID             int64     `db:"id"`
	BorrowRecordID int64     `db:"borrow_record_id"`
	ActorID        int64     `db:"actor_id"`
	Reason         string    `db:"reason"`
	Before         []byte    `db:"before_state"`
	After          []byte    `db:"after_state"`
	CreatedAt      time.Time `db:"created_at"`
}
