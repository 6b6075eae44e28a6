package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

type notificationRepository struct {
	q sqlx.ExtContext
}

func NewNotificationRepository(q sqlx.ExtContext) repository.NotificationRepository {
	return &notificationRepository{q: q}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	attrs, err := jsoniter.Marshal(n.Attributes)
	if err != nil {
		return err
	}

	query := `INSERT INTO notifications (user_id, type, title, message, is_read, attributes, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID, "type", n.Type)

	n.CreatedAt = time.Now().UTC()
	err = r.q.QueryRowxContext(ctx, query, n.UserID, n.Type, n.Title, n.Message, n.IsRead, attrs, n.CreatedAt).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)
	return translateError(err)
}

func (r *notificationRepository) List(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, int, error) {
	var count int
	if err := r.q.QueryRowxContext(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return nil, 0, translateError(err)
	}

	query := `SELECT id, user_id, type, title, message, is_read, attributes, created_at
	          FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.QueryxContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var attrs []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &attrs, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(attrs) > 0 {
			if err := jsoniter.Unmarshal(attrs, &n.Attributes); err != nil {
				return nil, 0, err
			}
		}
		notes = append(notes, n)
	}
	return notes, count, rows.Err()
}

// MarkAsRead only touches notifications owned by userID; anything else is
// reported as not found.
func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID int64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return translateError(err)
	}
	return expectAffected(result, repository.ErrNotFound)
}
