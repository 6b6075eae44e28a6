package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/repository"
)

type auditRepository struct {
	q sqlx.ExtContext
}

func NewAuditRepository(q sqlx.ExtContext) repository.AuditRepository {
	return &auditRepository{q: q}
}

func (r *auditRepository) Create(ctx context.Context, a *domain.BorrowRecordAudit) error {
	a.CreatedAt = time.Now().UTC()
	query := `INSERT INTO borrow_record_audits (borrow_record_id, actor_id, reason, before_state, after_state, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := r.q.QueryRowxContext(ctx, query, a.BorrowRecordID, a.ActorID, a.Reason, a.Before, a.After, a.CreatedAt).Scan(&a.ID)
	return translateError(err)
}

func (r *auditRepository) ListByRecord(ctx context.Context, borrowRecordID int64) ([]domain.BorrowRecordAudit, error) {
	var audits []domain.BorrowRecordAudit
	query := `SELECT id, borrow_record_id, actor_id, reason, before_state, after_state, created_at
	          FROM borrow_record_audits WHERE borrow_record_id = $1 ORDER BY created_at, id`
	if err := sqlx.SelectContext(ctx, r.q, &audits, query, borrowRecordID); err != nil {
		return nil, translateError(err)
	}
	return audits, nil
}
