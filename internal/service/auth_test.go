package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/repository"
	"mylib-backend/internal/security"
	"mylib-backend/internal/service"
)

type authFixture struct {
	r        *repoMocks
	tokens   security.TokenManager
	sessions *MockSessionStore
	email    *MockEmailService
	svc      service.AuthService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		r:        newRepoMocks(),
		tokens:   security.NewTokenManager("test-secret", 15*time.Minute, 24*time.Hour),
		sessions: new(MockSessionStore),
		email:    new(MockEmailService),
	}
	f.svc = service.NewAuthService(f.r.users, f.r.tx(), f.tokens, f.sessions, f.email)
	return f
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("New member gets the student role", func(t *testing.T) {
		f := newAuthFixture()
		f.r.users.On("GetByEmail", ctx, "ann@example.com").Return(nil, repository.ErrNotFound)
		f.r.users.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)
		f.email.On("SendWelcome", ctx, "ann@example.com", "Ann").Return(errors.New("mail down"))

		user, err := f.svc.Register(ctx, service.RegisterInput{Email: " Ann@Example.com ", Name: "Ann", Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", user.Email)
		assert.Equal(t, []domain.Role{domain.RoleStudent}, user.Roles)
		assert.True(t, user.Enabled)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
	})

	t.Run("Email already registered", func(t *testing.T) {
		f := newAuthFixture()
		f.r.users.On("GetByEmail", ctx, "ann@example.com").Return(&domain.User{ID: 7}, nil)

		_, err := f.svc.Register(ctx, service.RegisterInput{Email: "ann@example.com", Name: "Ann", Password: "correct horse"})
		assert.ErrorIs(t, err, service.ErrEmailTaken)
	})

	t.Run("Invalid input", func(t *testing.T) {
		f := newAuthFixture()
		tests := []service.RegisterInput{
			{Email: "not-an-email", Name: "Ann", Password: "correct horse"},
			{Email: "ann@example.com", Name: " ", Password: "correct horse"},
			{Email: "ann@example.com", Name: "Ann", Password: "short"},
		}
		for _, in := range tests {
			_, err := f.svc.Register(ctx, in)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		}
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: 7, Email: "ann@example.com", PasswordHash: hashed(t, "correct horse"), Roles: []domain.Role{domain.RoleStudent}, Enabled: true}

	t.Run("Issues a pair and stores the session", func(t *testing.T) {
		f := newAuthFixture()
		f.r.users.On("GetByEmail", ctx, "ann@example.com").Return(user, nil)
		f.sessions.On("Save", ctx, mock.AnythingOfType("string"), int64(7), 24*time.Hour).Return(nil)

		pair, got, err := f.svc.Login(ctx, "ann@example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)

		claims, err := f.tokens.ValidateToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, security.TokenTypeAccess, claims.Type)
		assert.Equal(t, []string{"ROLE_STUDENT"}, claims.Roles)
		f.sessions.AssertExpectations(t)
	})

	t.Run("Wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.r.users.On("GetByEmail", ctx, "ann@example.com").Return(user, nil)

		_, _, err := f.svc.Login(ctx, "ann@example.com", "nope")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Unknown email looks the same as a wrong password", func(t *testing.T) {
		f := newAuthFixture()
		f.r.users.On("GetByEmail", ctx, "bob@example.com").Return(nil, repository.ErrNotFound)

		_, _, err := f.svc.Login(ctx, "bob@example.com", "correct horse")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Disabled account", func(t *testing.T) {
		f := newAuthFixture()
		disabled := *user
		disabled.Enabled = false
		f.r.users.On("GetByEmail", ctx, "ann@example.com").Return(&disabled, nil)

		_, _, err := f.svc.Login(ctx, "ann@example.com", "correct horse")
		assert.ErrorIs(t, err, service.ErrAccountDisabled)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: 7, Email: "ann@example.com", Roles: []domain.Role{domain.RoleLibrarian}, Enabled: true}

	t.Run("Rotates the session", func(t *testing.T) {
		f := newAuthFixture()
		old, err := f.tokens.GenerateRefreshToken(7, "ann@example.com")
		require.NoError(t, err)

		f.sessions.On("Lookup", ctx, old.ID).Return(int64(7), nil)
		f.sessions.On("Revoke", ctx, old.ID).Return(nil)
		f.sessions.On("Save", ctx, mock.MatchedBy(func(jti string) bool { return jti != old.ID }), int64(7), 24*time.Hour).Return(nil)
		f.r.users.On("GetByID", ctx, int64(7)).Return(user, nil)

		pair, err := f.svc.RefreshToken(ctx, old.Token)
		require.NoError(t, err)
		claims, err := f.tokens.ValidateToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, []string{"ROLE_LIBRARIAN"}, claims.Roles)
		f.sessions.AssertExpectations(t)
	})

	t.Run("Revoked session", func(t *testing.T) {
		f := newAuthFixture()
		old, err := f.tokens.GenerateRefreshToken(7, "ann@example.com")
		require.NoError(t, err)
		f.sessions.On("Lookup", ctx, old.ID).Return(int64(0), errors.New("session not found"))

		_, err = f.svc.RefreshToken(ctx, old.Token)
		assert.ErrorIs(t, err, service.ErrSessionRevoked)
	})

	t.Run("Access token is not a refresh token", func(t *testing.T) {
		f := newAuthFixture()
		access, err := f.tokens.GenerateAccessToken(7, "ann@example.com", nil)
		require.NoError(t, err)

		_, err = f.svc.RefreshToken(ctx, access.Token)
		assert.ErrorIs(t, err, security.ErrWrongTokenType)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	refresh, err := f.tokens.GenerateRefreshToken(7, "ann@example.com")
	require.NoError(t, err)
	f.sessions.On("Revoke", ctx, refresh.ID).Return(nil)

	require.NoError(t, f.svc.Logout(ctx, refresh.Token))
	f.sessions.AssertExpectations(t)
}
