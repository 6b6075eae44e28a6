package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
)

const signature = "\n\nBest regards,\nThe Library Team"

// mailSender is the part of the SendGrid client the email service uses.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client   mailSender
	from     string
	fromName string
}

func NewEmailService(apiKey, from, fromName string) EmailService {
	return newEmailService(sendgrid.NewSendClient(apiKey), from, fromName)
}

func newEmailService(client mailSender, from, fromName string) *emailService {
	return &emailService{client: client, from: from, fromName: fromName}
}

func (s *emailService) send(ctx context.Context, to, name, subject, body string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.from),
		subject,
		mail.NewEmail(name, to),
		body+signature,
		"",
	)

	logger.ExternalServiceCall("sendgrid", "send", "to", to, "subject", subject)
	resp, err := s.client.SendWithContext(ctx, message)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid rejected the message: status %d: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *emailService) SendWelcome(ctx context.Context, to, name string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour library account is ready. You can now borrow and reserve books.", name)
	return s.send(ctx, to, name, "Welcome to the library", body)
}

func (s *emailService) SendBorrowApproved(ctx context.Context, to, name, title string, due domain.Date) error {
	body := fmt.Sprintf("Hello %s,\n\nYour request to borrow \"%s\" was approved. Please return it by %s.", name, title, due)
	return s.send(ctx, to, name, fmt.Sprintf("Borrow approved: %s", title), body)
}

func (s *emailService) SendBorrowRejected(ctx context.Context, to, name, title string) error {
	body := fmt.Sprintf("Hello %s,\n\nYour request to borrow \"%s\" was not approved.", name, title)
	return s.send(ctx, to, name, fmt.Sprintf("Borrow request declined: %s", title), body)
}

func (s *emailService) SendReturnApproved(ctx context.Context, to, name, title string, fine decimal.Decimal) error {
	body := fmt.Sprintf("Hello %s,\n\nWe have received \"%s\". Thank you!", name, title)
	if fine.IsPositive() {
		body += fmt.Sprintf("\n\nThe book was returned late. A fine of %s is due.", fine.StringFixed(2))
	}
	return s.send(ctx, to, name, fmt.Sprintf("Return confirmed: %s", title), body)
}

func (s *emailService) SendReservationConfirmed(ctx context.Context, to, name, title string) error {
	body := fmt.Sprintf("Hello %s,\n\nA copy of \"%s\" is now held for you. A librarian will approve your loan shortly.", name, title)
	return s.send(ctx, to, name, fmt.Sprintf("Reserved book available: %s", title), body)
}

func (s *emailService) SendOverdueReminder(ctx context.Context, to, name, title string, due domain.Date, fine decimal.Decimal) error {
	body := fmt.Sprintf("Hello %s,\n\n\"%s\" was due on %s. The fine so far is %s. Please return it as soon as possible.",
		name, title, due, fine.StringFixed(2))
	return s.send(ctx, to, name, fmt.Sprintf("Overdue: %s", title), body)
}

func (s *emailService) SendDueSoonReminder(ctx context.Context, to, name, title string, due domain.Date) error {
	body := fmt.Sprintf("Hello %s,\n\n\"%s\" is due on %s.", name, title, due)
	return s.send(ctx, to, name, fmt.Sprintf("Due soon: %s", title), body)
}

// logEmailService stands in when mail delivery is disabled.
type logEmailService struct{}

func NewLogEmailService() EmailService { return logEmailService{} }

func (logEmailService) log(ctx context.Context, kind, to string) error {
	logger.InfoContext(ctx, "Email delivery disabled, skipping", "kind", kind, "to", to)
	return nil
}

func (l logEmailService) SendWelcome(ctx context.Context, to, _ string) error {
	return l.log(ctx, "welcome", to)
}

func (l logEmailService) SendBorrowApproved(ctx context.Context, to, _, _ string, _ domain.Date) error {
	return l.log(ctx, "borrow_approved", to)
}

func (l logEmailService) SendBorrowRejected(ctx context.Context, to, _, _ string) error {
	return l.log(ctx, "borrow_rejected", to)
}

func (l logEmailService) SendReturnApproved(ctx context.Context, to, _, _ string, _ decimal.Decimal) error {
	return l.log(ctx, "return_approved", to)
}

func (l logEmailService) SendReservationConfirmed(ctx context.Context, to, _, _ string) error {
	return l.log(ctx, "reservation_confirmed", to)
}

func (l logEmailService) SendOverdueReminder(ctx context.Context, to, _, _ string, _ domain.Date, _ decimal.Decimal) error {
	return l.log(ctx, "overdue_reminder", to)
}

func (l logEmailService) SendDueSoonReminder(ctx context.Context, to, _, _ string, _ domain.Date) error {
	return l.log(ctx, "due_soon_reminder", to)
}
