package repositories

import (
	"context"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"gorm.io/gorm"
)

// EnrollmentRepository covers the enrollment ledger.
type EnrollmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error)

	// GetByIDForUpdate takes a row lock so concurrent state transitions on the
	// same enrollment serialize. Must be called inside a transaction.
	GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error)

	GetByIDWithCourses(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error)
	GetActiveByStudentAndSchool(ctx context.Context, tx *gorm.DB, studentID, schoolID string) (*models.Enrollment, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error)
	Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error
	List(ctx context.Context, tx *gorm.DB, filters EnrollmentFilters) ([]*models.Enrollment, int64, error)
}

type CourseProgressRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, courses []*models.CourseProgress) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.CourseProgress, error)
	GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) ([]*models.CourseProgress, error)
	GetByEnrollmentAndType(ctx context.Context, tx *gorm.DB, enrollmentID string, courseType models.CourseType) (*models.CourseProgress, error)
	Update(ctx context.Context, tx *gorm.DB, course *models.CourseProgress) error
}
