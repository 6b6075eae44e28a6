package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

const borrowColumns = `id, book_id, user_id, status, issue_date, due_date, return_date, fine_amount, fine_paid, fine_paid_amount, fine_paid_at, reservation_id, created_at, updated_at`

type borrowRepository struct {
	q sqlx.ExtContext
}

func NewBorrowRepository(q sqlx.ExtContext) repository.BorrowRepository {
	return &borrowRepository{q: q}
}

func (r *borrowRepository) Create(ctx context.Context, rec *domain.BorrowRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	query := `INSERT INTO borrow_records (book_id, user_id, status, issue_date, due_date, return_date, fine_amount, fine_paid, reservation_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	logger.DatabaseCall("INSERT", "borrow_records", "userID", rec.UserID, "bookID", rec.BookID)
	err := r.q.QueryRowxContext(ctx, query, rec.BookID, rec.UserID, rec.Status, rec.IssueDate, rec.DueDate, rec.ReturnDate, rec.FineAmount, rec.FinePaid, rec.ReservationID, now, now).Scan(&rec.ID)
	logger.DatabaseResult("INSERT", 1, err, "borrowID", rec.ID)
	return translateError(err)
}

func (r *borrowRepository) GetByID(ctx context.Context, id int64) (*domain.BorrowRecord, error) {
	var rec domain.BorrowRecord
	query := `SELECT ` + borrowColumns + ` FROM borrow_records WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, &rec, query, id); err != nil {
		return nil, translateError(err)
	}
	return &rec, nil
}

func (r *borrowRepository) List(ctx context.Context, f repository.BorrowFilter) ([]domain.BorrowRecord, error) {
	ds := dialect.From("borrow_records").
		Prepared(true).
		Select(goqu.L(borrowColumns))

	if f.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(*f.UserID))
	}
	if f.BookID != nil {
		ds = ds.Where(goqu.C("book_id").Eq(*f.BookID))
	}
	if len(f.Statuses) > 0 {
		ds = ds.Where(goqu.C("status").In(borrowStatusStrings(f.Statuses)))
	}
	if f.DueBefore != nil {
		ds = ds.Where(goqu.C("due_date").Lt(f.DueBefore.Time()))
	}
	if f.DueOn != nil {
		ds = ds.Where(goqu.C("due_date").Eq(f.DueOn.Time()))
	}
	if f.FinePaid != nil {
		ds = ds.Where(goqu.C("fine_paid").Eq(*f.FinePaid))
	}
	if f.FinedAsOf != nil {
		ds = ds.Where(goqu.Or(
			goqu.C("fine_amount").Gt(0),
			goqu.And(
				goqu.C("status").In(borrowStatusStrings(domain.OnLoanStatuses)),
				goqu.C("due_date").Lt(f.FinedAsOf.Time()),
			),
		))
	}

	query, args, err := ds.Order(goqu.C("created_at").Desc(), goqu.C("id").Desc()).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build borrow list: %w", err)
	}

	var recs []domain.BorrowRecord
	if err := sqlx.SelectContext(ctx, r.q, &recs, query, args...); err != nil {
		return nil, translateError(err)
	}
	return recs, nil
}

func (r *borrowRepository) CountOpenByUser(ctx context.Context, userID int64) (int, error) {
	query, args, err := dialect.From("borrow_records").
		Prepared(true).
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("user_id").Eq(userID),
			goqu.C("status").In(borrowStatusStrings(domain.OpenBorrowStatuses)),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build open loan count: %w", err)
	}

	var count int
	if err := sqlx.GetContext(ctx, r.q, &count, query, args...); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *borrowRepository) Save(ctx context.Context, rec *domain.BorrowRecord, prev domain.BorrowVersion) error {
	rec.UpdatedAt = time.Now().UTC()
	query := `UPDATE borrow_records
	          SET status=$1, issue_date=$2, due_date=$3, return_date=$4, fine_amount=$5, fine_paid=$6, fine_paid_amount=$7, fine_paid_at=$8, updated_at=$9
	          WHERE id=$10 AND status=$11 AND fine_paid=$12 AND fine_paid_amount=$13`
	logger.DatabaseCall("UPDATE", "borrow_records", "borrowID", rec.ID, "from", prev.Status, "to", rec.Status)
	result, err := r.q.ExecContext(ctx, query,
		rec.Status, rec.IssueDate, rec.DueDate, rec.ReturnDate, rec.FineAmount, rec.FinePaid, rec.FinePaidAmount, rec.FinePaidAt, rec.UpdatedAt,
		rec.ID, prev.Status, prev.FinePaid, prev.FinePaidAmount)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "borrowID", rec.ID)
		return translateError(err)
	}
	return expectAffected(result, repository.ErrStaleWrite)
}

func borrowStatusStrings(statuses []domain.BorrowStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
