package repositories

import (
	"context"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"gorm.io/gorm"
)

// CertificateRepository covers issued certificates. Certificates are immutable
// once created, so there is no Update.
type CertificateRepository interface {
	Create(ctx context.Context, tx *gorm.DB, cert *models.Certificate) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Certificate, error)
	GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) (*models.Certificate, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Certificate, error)
	GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certificate, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters NotificationFilters) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, tx *gorm.DB, notificationID, userID string) error
}
