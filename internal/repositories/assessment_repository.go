package repositories

import (
	"context"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"gorm.io/gorm"
)

// QuizRepository covers manager-authored formative quizzes.
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string, filters QuizFilters) ([]*models.Quiz, int64, error)
}

type QuizAttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.QuizAttempt, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, limit, offset int) ([]*models.QuizAttempt, int64, error)
	GetByQuizAndStudent(ctx context.Context, tx *gorm.DB, quizID, studentID string) ([]*models.QuizAttempt, error)
}
