package repositories

import (
	"context"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"gorm.io/gorm"
)

// SessionRepository covers practical lesson slots on teacher calendars.
type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.Session) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error)
	Update(ctx context.Context, tx *gorm.DB, session *models.Session) error
	List(ctx context.Context, tx *gorm.DB, filters SessionFilters) ([]*models.Session, int64, error)

	// ListOverlapping returns scheduled sessions of the teacher whose
	// [scheduled_at, scheduled_at+duration) window intersects [start, end).
	ListOverlapping(ctx context.Context, tx *gorm.DB, teacherID string, start, end time.Time) ([]*models.Session, error)

	// ListStartedBefore returns sessions still marked scheduled whose start
	// time has passed; input for the no-show sweep.
	ListStartedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.Session, error)
}

// ExamRepository covers certifying assessment slots on examiner calendars.
type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)

	ListOverlapping(ctx context.Context, tx *gorm.DB, examinerID string, start, end time.Time) ([]*models.Exam, error)

	// CountScheduled returns the examiner's current scheduled-exam load, the
	// tie-break input for expert matching.
	CountScheduled(ctx context.Context, tx *gorm.DB, examinerID string) (int, error)
}

type ExternalExpertRepository interface {
	Create(ctx context.Context, tx *gorm.DB, expert *models.ExternalExpert) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ExternalExpert, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.ExternalExpert, error)
	Update(ctx context.Context, tx *gorm.DB, expert *models.ExternalExpert) error
	List(ctx context.Context, tx *gorm.DB, filters ExpertFilters) ([]*models.ExternalExpert, int64, error)
}

// CalendarRepository serializes slot allocation per schedulable resource.
type CalendarRepository interface {
	// Lock upserts the calendar row for the resource and takes a FOR UPDATE
	// lock on it. Every scheduling write for the resource must acquire this
	// lock first so overlap checks and inserts are atomic per calendar.
	Lock(ctx context.Context, tx *gorm.DB, resourceID string) (*models.ResourceCalendar, error)

	// Touch bumps the calendar version inside the owning transaction.
	Touch(ctx context.Context, tx *gorm.DB, resourceID string) error
}
