package postgres

import (
	"context"
	"errors"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.helpers.DB(tx)
	return db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error) {
	db := q.helpers.DB(tx)
	var quiz models.Quiz
	if err := db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	db := q.helpers.DB(tx)
	return db.WithContext(ctx).Save(quiz).Error
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	db := q.helpers.DB(tx)
	query := db.WithContext(ctx).Model(&models.Quiz{})
	return q.applyFilters(query, filters)
}

func (q *QuizPostgreSQL) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	db := q.helpers.DB(tx)
	query := db.WithContext(ctx).Model(&models.Quiz{}).Where("school_id = ?", schoolID)
	return q.applyFilters(query, filters)
}

func (q *QuizPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	if filters.SchoolID != nil {
		query = query.Where("school_id = ?", *filters.SchoolID)
	}
	if filters.CourseType != nil {
		query = query.Where("course_type = ?", *filters.CourseType)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPagination(query.Order("created_at desc"), filters.Limit, filters.Offset)
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	return quizzes, total, nil
}

type QuizAttemptPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuizAttemptPostgreSQL(db *gorm.DB) repositories.QuizAttemptRepository {
	return &QuizAttemptPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (a *QuizAttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	db := a.helpers.DB(tx)
	return db.WithContext(ctx).Create(attempt).Error
}

func (a *QuizAttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error) {
	db := a.helpers.DB(tx)
	var attempt models.QuizAttempt
	if err := db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

func (a *QuizAttemptPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, limit, offset int) ([]*models.QuizAttempt, int64, error) {
	db := a.helpers.DB(tx)
	var attempts []*models.QuizAttempt
	var total int64

	query := db.WithContext(ctx).Model(&models.QuizAttempt{}).Where("student_id = ?", studentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.helpers.ApplyPagination(query.Order("created_at desc"), limit, offset)
	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *QuizAttemptPostgreSQL) GetByQuizAndStudent(ctx context.Context, tx *gorm.DB, quizID, studentID string) ([]*models.QuizAttempt, error) {
	db := a.helpers.DB(tx)
	var attempts []*models.QuizAttempt
	err := db.WithContext(ctx).
		Where("quiz_id = ? AND student_id = ?", quizID, studentID).
		Order("created_at desc").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
