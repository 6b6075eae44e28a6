package service

import (
	"context"
	"fmt"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
	tx       repository.Transactor
}

func NewUserService(userRepo repository.UserRepository, tx repository.Transactor) UserService {
	return &userService{userRepo: userRepo, tx: tx}
}

func (s *userService) GetUser(ctx context.Context, actor domain.Actor, userID int64) (*domain.User, error) {
	if !actor.CanActFor(userID) {
		return nil, ErrForbidden
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) UpdateRoles(ctx context.Context, actor domain.Actor, userID int64, roles []domain.Role) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", ErrInvalidInput)
	}
	if actor.UserID == userID && !containsRole(roles, domain.RoleAdmin) {
		return nil, fmt.Errorf("%w: administrators cannot remove their own admin role", ErrInvalidInput)
	}

	var user *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Users.GetByID(ctx, userID); err != nil {
			return mapRepoErr(err, ErrUserNotFound)
		}
		if err := repos.Users.ReplaceRoles(ctx, userID, roles); err != nil {
			return err
		}
		var err error
		user, err = repos.Users.GetByID(ctx, userID)
		return mapRepoErr(err, ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "User roles updated", "userID", userID, "roles", user.RoleNames(), "actorID", actor.UserID)
	return user, nil
}

func (s *userService) SetEnabled(ctx context.Context, actor domain.Actor, userID int64, enabled bool) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.UserID == userID && !enabled {
		return fmt.Errorf("%w: administrators cannot disable themselves", ErrInvalidInput)
	}
	if err := s.userRepo.SetEnabled(ctx, userID, enabled); err != nil {
		return mapRepoErr(err, ErrUserNotFound)
	}
	logger.InfoContext(ctx, "User account status changed", "userID", userID, "enabled", enabled, "actorID", actor.UserID)
	return nil
}

func containsRole(roles []domain.Role, want domain.Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
	}
	return false
}
