package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
	"mylib-backend/internal/security"
)

const minPasswordLength = 8

type authService struct {
	userRepo repository.UserRepository
	tx       repository.Transactor
	tokens   security.TokenManager
	sessions SessionStore
	emailSvc EmailService
}

func NewAuthService(
	userRepo repository.UserRepository,
	tx repository.Transactor,
	tokens security.TokenManager,
	sessions SessionStore,
	emailSvc EmailService,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tx:       tx,
		tokens:   tokens,
		sessions: sessions,
		emailSvc: emailSvc,
	}
}

// Register creates an enabled member with the student role.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		Name:         name,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: string(hash),
		Roles:        []domain.Role{domain.RoleStudent},
		Enabled:      true,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return repos.Users.Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name); err != nil {
		logger.WarnContext(ctx, "Failed to send welcome email", "userID", user.ID, "error", err)
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*TokenPair, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.Enabled {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// RefreshToken rotates the session: the presented refresh token is revoked
// and a fresh pair is issued with the member's current roles.
func (s *authService) RefreshToken(ctx context.Context, refresh string) (*TokenPair, error) {
	claims, err := s.tokens.ValidateToken(refresh)
	if err != nil {
		return nil, err
	}
	if claims.Type != security.TokenTypeRefresh {
		return nil, security.ErrWrongTokenType
	}

	userID, err := s.sessions.Lookup(ctx, claims.ID)
	if err != nil || userID != claims.UserID {
		return nil, ErrSessionRevoked
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, mapRepoErr(err, ErrSessionRevoked)
	}
	if !user.Enabled {
		return nil, ErrAccountDisabled
	}

	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *authService) Logout(ctx context.Context, refresh string) error {
	claims, err := s.tokens.ValidateToken(refresh)
	if err != nil {
		return err
	}
	if claims.Type != security.TokenTypeRefresh {
		return security.ErrWrongTokenType
	}
	return s.sessions.Revoke(ctx, claims.ID)
}

func (s *authService) issue(ctx context.Context, user *domain.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.RoleNames())
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, refresh.ID, user.ID, s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return &TokenPair{
		AccessToken:      access.Token,
		RefreshToken:     refresh.Token,
		AccessExpiresAt:  access.ExpiresAt,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, nil
}
