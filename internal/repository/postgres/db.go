package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mylib-backend/internal/config"
	"mylib-backend/internal/repository"
)

// Open connects with the configured driver, applies the pool settings and
// verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateError maps driver errors onto repository sentinels. Both lib/pq
// and pgx error types are recognised since either driver may be configured.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var code string
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	}

	switch code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %v", repository.ErrReferenced, err)
	}
	return err
}

// expectAffected turns a zero-row update into the given sentinel.
func expectAffected(result sql.Result, none error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return none
	}
	return nil
}
