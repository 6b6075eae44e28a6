package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mylib-backend/internal/domain"
)

type fakeSender struct {
	sent   []*mail.SGMailV3
	status int
	err    error
}

func (f *fakeSender) SendWithContext(_ context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "bad request"}, nil
}

func TestEmailService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("Overdue reminder content", func(t *testing.T) {
		sender := &fakeSender{status: 202}
		svc := newEmailService(sender, "library@example.com", "City Library")

		err := svc.SendOverdueReminder(ctx, "ann@example.com", "Ann", "Dune",
			domain.NewDate(2026, 3, 1), decimal.RequireFromString("4.5"))
		require.NoError(t, err)
		require.Len(t, sender.sent, 1)

		msg := sender.sent[0]
		assert.Equal(t, "Overdue: Dune", msg.Subject)
		assert.Equal(t, "library@example.com", msg.From.Address)
		assert.Equal(t, "ann@example.com", msg.Personalizations[0].To[0].Address)
		assert.Contains(t, msg.Content[0].Value, "2026-03-01")
		assert.Contains(t, msg.Content[0].Value, "4.50")
	})

	t.Run("Return without fine says nothing about fines", func(t *testing.T) {
		sender := &fakeSender{status: 202}
		svc := newEmailService(sender, "library@example.com", "City Library")

		require.NoError(t, svc.SendReturnApproved(ctx, "ann@example.com", "Ann", "Dune", decimal.Zero))
		assert.NotContains(t, sender.sent[0].Content[0].Value, "fine")
	})

	t.Run("Rejected by provider", func(t *testing.T) {
		svc := newEmailService(&fakeSender{status: 400}, "library@example.com", "City Library")
		err := svc.SendWelcome(ctx, "ann@example.com", "Ann")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
	})

	t.Run("Transport failure", func(t *testing.T) {
		boom := errors.New("connection reset")
		svc := newEmailService(&fakeSender{err: boom}, "library@example.com", "City Library")
		err := svc.SendDueSoonReminder(ctx, "ann@example.com", "Ann", "Dune", domain.NewDate(2026, 3, 12))
		assert.ErrorIs(t, err, boom)
	})
}

func TestLogEmailService(t *testing.T) {
	svc := NewLogEmailService()
	assert.NoError(t, svc.SendWelcome(context.Background(), "ann@example.com", "Ann"))
}
