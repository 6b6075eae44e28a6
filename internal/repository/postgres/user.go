package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

// userRow flattens the aggregated role list so sqlx can scan it.
type userRow struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PhoneNumber  string    `db:"phone_number"`
	PasswordHash string    `db:"password_hash"`
	Enabled      bool      `db:"enabled"`
	Roles        string    `db:"roles"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (row userRow) toDomain() domain.User {
	u := domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PhoneNumber:  row.PhoneNumber,
		PasswordHash: row.PasswordHash,
		Enabled:      row.Enabled,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Roles != "" {
		for _, name := range strings.Split(row.Roles, ",") {
			u.Roles = append(u.Roles, domain.Role(name))
		}
	}
	return u
}

const userSelect = `SELECT u.id, u.email, u.name, COALESCE(u.phone_number, '') AS phone_number, u.password_hash, u.enabled,
	       COALESCE(string_agg(r.role, ',' ORDER BY r.role), '') AS roles, u.created_at, u.updated_at
	FROM users u
	LEFT JOIN user_roles r ON r.user_id = u.id`

type userRepository struct {
	q sqlx.ExtContext
}

func NewUserRepository(q sqlx.ExtContext) repository.UserRepository {
	return &userRepository{q: q}
}

// Create inserts the user and its roles. Callers wanting both writes to be
// atomic run it inside a transaction.
func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	query := `INSERT INTO users (email, name, phone_number, password_hash, enabled, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "users", "email", u.Email)
	err := r.q.QueryRowxContext(ctx, query, u.Email, u.Name, u.PhoneNumber, u.PasswordHash, u.Enabled, now, now).Scan(&u.ID)
	logger.DatabaseResult("INSERT", 1, err, "userID", u.ID)
	if err != nil {
		return translateError(err)
	}
	return r.insertRoles(ctx, u.ID, u.Roles)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, userSelect+` WHERE u.id = $1 GROUP BY u.id`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, userSelect+` WHERE LOWER(u.email) = LOWER($1) GROUP BY u.id`, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	var row userRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, arg); err != nil {
		return nil, translateError(err)
	}
	u := row.toDomain()
	return &u, nil
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.q, &rows, userSelect+` GROUP BY u.id ORDER BY u.id`); err != nil {
		return nil, translateError(err)
	}
	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toDomain())
	}
	return users, nil
}

func (r *userRepository) ReplaceRoles(ctx context.Context, userID int64, roles []domain.Role) error {
	logger.DatabaseCall("DELETE", "user_roles", "userID", userID)
	if _, err := r.q.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return translateError(err)
	}
	return r.insertRoles(ctx, userID, roles)
}

func (r *userRepository) insertRoles(ctx context.Context, userID int64, roles []domain.Role) error {
	for _, role := range roles {
		if _, err := r.q.ExecContext(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, role); err != nil {
			return translateError(err)
		}
	}
	return nil
}

func (r *userRepository) SetEnabled(ctx context.Context, userID int64, enabled bool) error {
	result, err := r.q.ExecContext(ctx, `UPDATE users SET enabled = $1, updated_at = $2 WHERE id = $3`, enabled, time.Now().UTC(), userID)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result, repository.ErrNotFound)
}
