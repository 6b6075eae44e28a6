package domain

import "time"

type NotificationType string

const (
	NotificationBorrowApproved       NotificationType = "BORROW_APPROVED"
	NotificationBorrowRejected       NotificationType = "BORROW_REJECTED"
	NotificationReturnApproved       NotificationType = "RETURN_APPROVED"
	NotificationReservationConfirmed NotificationType = "RESERVATION_CONFIRMED"
	NotificationDueSoon              NotificationType = "DUE_SOON"
	NotificationOverdue              NotificationType = "OVERDUE"
)

type Notification struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"userId"`
	Type       NotificationType  `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"isRead"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}
