package http

import (
	"context"

	"mylib-backend/internal/domain"
)

type contextKey int

const sessionKey contextKey = iota

// Session is the verified identity attached by the auth middleware.
type Session struct {
	UserID  int64
	Email   string
	Roles   []domain.Role
	TokenID string
	Token   string
}

func (s Session) Actor() domain.Actor {
	return domain.Actor{UserID: s.UserID, Roles: s.Roles}
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the session of an authenticated request.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
