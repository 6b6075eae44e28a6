package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

type loanNotifier struct {
	users    repository.UserRepository
	books    repository.BookRepository
	notes    NotificationService
	emailSvc EmailService
}

func NewLoanNotifier(users repository.UserRepository, books repository.BookRepository, notes NotificationService, emailSvc EmailService) LoanNotifier {
	return &loanNotifier{users: users, books: books, notes: notes, emailSvc: emailSvc}
}

// recipient loads the member and the book a message is about.
func (n *loanNotifier) recipient(ctx context.Context, userID, bookID int64) (*domain.User, *domain.Book, bool) {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		logger.WarnContext(ctx, "Notification skipped, user lookup failed", "userID", userID, "error", err)
		return nil, nil, false
	}
	book, err := n.books.GetByID(ctx, bookID)
	if err != nil {
		logger.WarnContext(ctx, "Notification skipped, book lookup failed", "bookID", bookID, "error", err)
		return nil, nil, false
	}
	return user, book, true
}

func (n *loanNotifier) push(ctx context.Context, rec domain.BorrowRecord, typ domain.NotificationType, title, message string) {
	note := &domain.Notification{
		UserID:  rec.UserID,
		Type:    typ,
		Title:   title,
		Message: message,
		Attributes: map[string]string{
			"borrowRecordId": strconv.FormatInt(rec.ID, 10),
			"bookId":         strconv.FormatInt(rec.BookID, 10),
		},
	}
	if err := n.notes.Notify(ctx, note); err != nil {
		logger.ErrorContext(ctx, "Failed to store notification", "userID", rec.UserID, "type", typ, "error", err)
	}
}

func (n *loanNotifier) mailFailed(ctx context.Context, kind string, userID int64, err error) {
	if err != nil {
		logger.WarnContext(ctx, "Failed to send email", "kind", kind, "userID", userID, "error", err)
	}
}

func (n *loanNotifier) BorrowApproved(ctx context.Context, rec domain.BorrowRecord) {
	user, book, ok := n.recipient(ctx, rec.UserID, rec.BookID)
	if !ok {
		return
	}
	n.push(ctx, rec, domain.NotificationBorrowApproved, "Borrow approved",
		fmt.Sprintf("\"%s\" is yours until %s.", book.Title, rec.DueDate))
	n.mailFailed(ctx, "borrow_approved", user.ID, n.emailSvc.SendBorrowApproved(ctx, user.Email, user.Name, book.Title, *rec.DueDate))
}

func (n *loanNotifier) BorrowRejected(ctx context.Context, rec domain.BorrowRecord) {
	user, book, ok := n.recipient(ctx, rec.UserID, rec.BookID)
	if !ok {
		return
	}
	n.push(ctx, rec, domain.NotificationBorrowRejected, "Borrow request declined",
		fmt.Sprintf("Your request for \"%s\" was not approved.", book.Title))
	n.mailFailed(ctx, "borrow_rejected", user.ID, n.emailSvc.SendBorrowRejected(ctx, user.Email, user.Name, book.Title))
}

func (n *loanNotifier) ReturnApproved(ctx context.Context, rec domain.BorrowRecord) {
	user, book, ok := n.recipient(ctx, rec.UserID, rec.BookID)
	if !ok {
		return
	}
	msg := fmt.Sprintf("Return of \"%s\" confirmed.", book.Title)
	owed := rec.UnpaidFine()
	if owed.IsPositive() {
		msg += fmt.Sprintf(" A late fine of %s is due.", owed.StringFixed(2))
	}
	n.push(ctx, rec, domain.NotificationReturnApproved, "Return confirmed", msg)
	n.mailFailed(ctx, "return_approved", user.ID, n.emailSvc.SendReturnApproved(ctx, user.Email, user.Name, book.Title, owed))
}

func (n *loanNotifier) ReservationConfirmed(ctx context.Context, res domain.Reservation, rec domain.BorrowRecord) {
	user, book, ok := n.recipient(ctx, res.UserID, res.BookID)
	if !ok {
		return
	}
	n.push(ctx, rec, domain.NotificationReservationConfirmed, "Reserved book available",
		fmt.Sprintf("A copy of \"%s\" is held for you.", book.Title))
	n.mailFailed(ctx, "reservation_confirmed", user.ID, n.emailSvc.SendReservationConfirmed(ctx, user.Email, user.Name, book.Title))
}

func (n *loanNotifier) OverdueReminder(ctx context.Context, rec domain.BorrowRecord, fine decimal.Decimal) {
	user, book, ok := n.recipient(ctx, rec.UserID, rec.BookID)
	if !ok {
		return
	}
	n.push(ctx, rec, domain.NotificationOverdue, "Book overdue",
		fmt.Sprintf("\"%s\" was due on %s. Fine so far: %s.", book.Title, rec.DueDate, fine.StringFixed(2)))
	n.mailFailed(ctx, "overdue_reminder", user.ID, n.emailSvc.SendOverdueReminder(ctx, user.Email, user.Name, book.Title, *rec.DueDate, fine))
}

func (n *loanNotifier) DueSoonReminder(ctx context.Context, rec domain.BorrowRecord) {
	user, book, ok := n.recipient(ctx, rec.UserID, rec.BookID)
	if !ok {
		return
	}
	n.push(ctx, rec, domain.NotificationDueSoon, "Book due soon",
		fmt.Sprintf("\"%s\" is due on %s.", book.Title, rec.DueDate))
	n.mailFailed(ctx, "due_soon_reminder", user.ID, n.emailSvc.SendDueSoonReminder(ctx, user.Email, user.Name, book.Title, *rec.DueDate))
}
