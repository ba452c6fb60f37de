package repositories

import (
	"context"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"gorm.io/gorm"
)

// SchoolRepository covers the read-mostly driving school catalog.
type SchoolRepository interface {
	Create(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.DrivingSchool, error)
	GetByManager(ctx context.Context, tx *gorm.DB, managerID string) (*models.DrivingSchool, error)
	Update(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error
	List(ctx context.Context, tx *gorm.DB, filters SchoolFilters) ([]*models.DrivingSchool, int64, error)

	// UpdateRating stores the recomputed derived rating.
	UpdateRating(ctx context.Context, tx *gorm.DB, schoolID string, rating float64, totalReviews int) error
}

type TeacherRepository interface {
	Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Teacher, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Teacher, error)
	GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string) ([]*models.Teacher, error)
	Update(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error
}

type ReviewRepository interface {
	Create(ctx context.Context, tx *gorm.DB, review *models.Review) error
	GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) (*models.Review, error)
	GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string, limit, offset int) ([]*models.Review, int64, error)

	// AggregateForSchool returns the average rating and review count used to
	// recompute the derived school rating.
	AggregateForSchool(ctx context.Context, tx *gorm.DB, schoolID string) (avg float64, count int, err error)
}
