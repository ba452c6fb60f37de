package postgres

import (
	"context"
	"errors"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewEnrollmentPostgreSQL(db *gorm.DB) repositories.EnrollmentRepository {
	return &EnrollmentPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (e *EnrollmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	db := e.helpers.DB(tx)
	return db.WithContext(ctx).Create(enrollment).Error
}

func (e *EnrollmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error) {
	db := e.helpers.DB(tx)
	var enrollment models.Enrollment
	if err := db.WithContext(ctx).First(&enrollment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

// GetByIDForUpdate serializes concurrent state transitions on one enrollment.
func (e *EnrollmentPostgreSQL) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error) {
	db := e.helpers.DB(tx)
	var enrollment models.Enrollment
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&enrollment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetByIDWithCourses(ctx context.Context, tx *gorm.DB, id string) (*models.Enrollment, error) {
	db := e.helpers.DB(tx)
	var enrollment models.Enrollment
	if err := db.WithContext(ctx).
		Preload("Courses").
		First(&enrollment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetActiveByStudentAndSchool(ctx context.Context, tx *gorm.DB, studentID, schoolID string) (*models.Enrollment, error) {
	db := e.helpers.DB(tx)
	var enrollment models.Enrollment
	err := db.WithContext(ctx).
		Where("student_id = ? AND school_id = ? AND status IN ?", studentID, schoolID,
			[]models.EnrollmentStatus{models.EnrollmentPendingPayment, models.EnrollmentActive}).
		First(&enrollment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &enrollment, nil
}

func (e *EnrollmentPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.Enrollment, error) {
	db := e.helpers.DB(tx)
	var enrollments []*models.Enrollment
	if err := db.WithContext(ctx).
		Preload("Courses").
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (e *EnrollmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, enrollment *models.Enrollment) error {
	db := e.helpers.DB(tx)
	return db.WithContext(ctx).Save(enrollment).Error
}

func (e *EnrollmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.EnrollmentFilters) ([]*models.Enrollment, int64, error) {
	db := e.helpers.DB(tx)
	var enrollments []*models.Enrollment
	var total int64

	query := db.WithContext(ctx).Model(&models.Enrollment{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.SchoolID != nil {
		query = query.Where("school_id = ?", *filters.SchoolID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = e.helpers.ApplyPagination(query.Order("created_at desc"), filters.Limit, filters.Offset)
	if err := query.Preload("Courses").Find(&enrollments).Error; err != nil {
		return nil, 0, err
	}

	return enrollments, total, nil
}

type CourseProgressPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCourseProgressPostgreSQL(db *gorm.DB) repositories.CourseProgressRepository {
	return &CourseProgressPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (c *CourseProgressPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, courses []*models.CourseProgress) error {
	db := c.helpers.DB(tx)
	return db.WithContext(ctx).Create(courses).Error
}

func (c *CourseProgressPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.CourseProgress, error) {
	db := c.helpers.DB(tx)
	var course models.CourseProgress
	if err := db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (c *CourseProgressPostgreSQL) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) ([]*models.CourseProgress, error) {
	db := c.helpers.DB(tx)
	var courses []*models.CourseProgress
	if err := db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *CourseProgressPostgreSQL) GetByEnrollmentAndType(ctx context.Context, tx *gorm.DB, enrollmentID string, courseType models.CourseType) (*models.CourseProgress, error) {
	db := c.helpers.DB(tx)
	var course models.CourseProgress
	err := db.WithContext(ctx).
		Where("enrollment_id = ? AND course_type = ?", enrollmentID, courseType).
		First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

func (c *CourseProgressPostgreSQL) Update(ctx context.Context, tx *gorm.DB, course *models.CourseProgress) error {
	db := c.helpers.DB(tx)
	return db.WithContext(ctx).Save(course).Error
}
