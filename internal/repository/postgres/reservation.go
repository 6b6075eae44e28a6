package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/repository"
)

const reservationColumns = `id, book_id, user_id, status, created_at, updated_at`

type reservationRepository struct {
	q sqlx.ExtContext
}

func NewReservationRepository(q sqlx.ExtContext) repository.ReservationRepository {
	return &reservationRepository{q: q}
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	query := `INSERT INTO reservations (book_id, user_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := r.q.QueryRowxContext(ctx, query, res.BookID, res.UserID, res.Status, now, now).Scan(&res.ID)
	return translateError(err)
}

func (r *reservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	var res domain.Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, &res, query, id); err != nil {
		return nil, translateError(err)
	}
	return &res, nil
}

func (r *reservationRepository) List(ctx context.Context, f repository.ReservationFilter) ([]domain.Reservation, error) {
	ds := dialect.From("reservations").
		Prepared(true).
		Select(goqu.L(reservationColumns))
	if f.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(*f.UserID))
	}
	if f.BookID != nil {
		ds = ds.Where(goqu.C("book_id").Eq(*f.BookID))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		ds = ds.Where(goqu.C("status").In(statuses))
	}

	query, args, err := ds.Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build reservation list: %w", err)
	}

	var out []domain.Reservation
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		return nil, translateError(err)
	}
	return out, nil
}

func (r *reservationRepository) ExistsPending(ctx context.Context, userID, bookID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM reservations WHERE user_id = $1 AND book_id = $2 AND status = $3)`
	err := r.q.QueryRowxContext(ctx, query, userID, bookID, domain.ReservationStatusPending).Scan(&exists)
	return exists, translateError(err)
}

func (r *reservationRepository) CountPendingByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	query := `SELECT count(*) FROM reservations WHERE user_id = $1 AND status = $2`
	err := r.q.QueryRowxContext(ctx, query, userID, domain.ReservationStatusPending).Scan(&count)
	return count, translateError(err)
}

func (r *reservationRepository) NextPending(ctx context.Context, bookID int64, skip []int64) (*domain.Reservation, error) {
	var res domain.Reservation
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE book_id = $1 AND status = $2 AND id <> ALL($3)
	          ORDER BY created_at, id
	          LIMIT 1 FOR UPDATE`
	if skip == nil {
		skip = []int64{}
	}
	if err := sqlx.GetContext(ctx, r.q, &res, query, bookID, domain.ReservationStatusPending, pq.Array(skip)); err != nil {
		return nil, translateError(err)
	}
	return &res, nil
}

func (r *reservationRepository) BookIDsWithPending(ctx context.Context) ([]int64, error) {
	var ids []int64
	query := `SELECT DISTINCT book_id FROM reservations WHERE status = $1 ORDER BY book_id`
	if err := sqlx.SelectContext(ctx, r.q, &ids, query, domain.ReservationStatusPending); err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}

func (r *reservationRepository) Save(ctx context.Context, res *domain.Reservation, prev domain.ReservationStatus) error {
	res.UpdatedAt = time.Now().UTC()
	query := `UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.q.ExecContext(ctx, query, res.Status, res.UpdatedAt, res.ID, prev)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result, repository.ErrStaleWrite)
}
