package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"gorm.io/gorm"
)

type notificationService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewNotificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID string, notifType models.NotificationType, title, message string) error {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}
	if err := s.repo.Notification().Create(ctx, nil, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.logger.Debug("notification created", "user_id", userID, "type", notifType)
	return nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	return s.repo.Notification().GetByUser(ctx, nil, userID, filters)
}

func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	if err := s.repo.Notification().MarkRead(ctx, nil, notificationID, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
