package service

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"mylib-backend/internal/domain"
	"mylib-backend/internal/logger"
	"mylib-backend/internal/repository"
)

const maxPageSize = 100

type notificationService struct {
	noteRepo  repository.NotificationRepository
	publisher Publisher
}

func NewNotificationService(noteRepo repository.NotificationRepository, publisher Publisher) NotificationService {
	return &notificationService{noteRepo: noteRepo, publisher: publisher}
}

// Notify stores the notification and pushes it to the member's open
// connections.
func (s *notificationService) Notify(ctx context.Context, n *domain.Notification) error {
	if err := s.noteRepo.Create(ctx, n); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	payload, err := jsoniter.Marshal(n)
	if err != nil {
		logger.WarnContext(ctx, "Failed to encode notification for push", "notificationID", n.ID, "error", err)
		return nil
	}
	s.publisher.Publish(n.UserID, payload)
	return nil
}

func (s *notificationService) GetNotifications(ctx context.Context, userID int64, page, pageSize int) ([]domain.Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	return s.noteRepo.List(ctx, userID, pageSize, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int64) error {
	return mapRepoErr(s.noteRepo.MarkAsRead(ctx, notificationID, userID), ErrNotificationNotFound)
}
