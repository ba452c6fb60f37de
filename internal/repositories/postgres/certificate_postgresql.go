package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/permis-dz/lifecycle-service/internal/cache"
	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"gorm.io/gorm"
)

type CertificatePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewCertificatePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.CertificateRepository {
	return &CertificatePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (c *CertificatePostgreSQL) Create(ctx context.Context, tx *gorm.DB, cert *models.Certificate) error {
	db := c.helpers.DB(tx)
	return db.WithContext(ctx).Create(cert).Error
}

func (c *CertificatePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Certificate, error) {
	db := c.helpers.DB(tx)
	var cert models.Certificate
	if err := db.WithContext(ctx).First(&cert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

func (c *CertificatePostgreSQL) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) (*models.Certificate, error) {
	db := c.helpers.DB(tx)
	var cert models.Certificate
	if err := db.WithContext(ctx).First(&cert, "enrollment_id = ?", enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

func (c *CertificatePostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Certificate, error) {
	db := c.helpers.DB(tx)
	var certs []*models.Certificate
	if err := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("issued_at desc").
		Find(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

// GetByVerificationCode serves the public verify endpoint, so lookups are
// cached. Certificates never change after issuance, which makes the cached
// copy safe for its whole TTL.
func (c *CertificatePostgreSQL) GetByVerificationCode(ctx context.Context, tx *gorm.DB, code string) (*models.Certificate, error) {
	db := c.helpers.DB(tx)

	if c.cacheManager == nil || tx != nil {
		var cert models.Certificate
		if err := db.WithContext(ctx).First(&cert, "verification_code = ?", code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.ErrNotFound
			}
			return nil, err
		}
		return &cert, nil
	}

	cacheKey := fmt.Sprintf("verify:%s", code)
	var cert models.Certificate
	err := c.cacheManager.Certificate.CacheOrExecute(ctx, cacheKey, &cert, cache.CertificateCacheConfig.TTL, func() (interface{}, error) {
		var dbCert models.Certificate
		if err := db.WithContext(ctx).First(&dbCert, "verification_code = ?", code).Error; err != nil {
			return nil, err
		}
		return &dbCert, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}

	return &cert, nil
}

type NotificationPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	db := n.helpers.DB(tx)
	return db.WithContext(ctx).Create(notification).Error
}

func (n *NotificationPostgreSQL) GetByUser(ctx context.Context, tx *gorm.DB, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	db := n.helpers.DB(tx)
	var notifications []*models.Notification
	var total int64

	query := db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if filters.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = n.helpers.ApplyPagination(query.Order("created_at desc"), filters.Limit, filters.Offset)
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, tx *gorm.DB, notificationID, userID string) error {
	db := n.helpers.DB(tx)
	result := db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
