package postgres

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jmoiron/sqlx"

	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

var dialect = goqu.Dialect("postgres")

// Store owns the connection pool and exposes repositories bound to it.
type Store struct {
	db *sqlx.DB
	repository.Repositories
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{
		db:           db,
		Repositories: newRepositories(db),
	}
}

func newRepositories(q sqlx.ExtContext) repository.Repositories {
	return repository.Repositories{
		Users:         NewUserRepository(q),
		Books:         NewBookRepository(q),
		Borrows:       NewBorrowRepository(q),
		Reservations:  NewReservationRepository(q),
		Notifications: NewNotificationRepository(q),
		Audits:        NewAuditRepository(q),
	}
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, newRepositories(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
