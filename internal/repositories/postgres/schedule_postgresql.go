package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// overlapCondition matches rows whose [scheduled_at, scheduled_at+duration)
// window intersects [start, end).
const overlapCondition = "scheduled_at < ? AND scheduled_at + make_interval(mins => duration_minutes) > ?"

type SessionPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (s *SessionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	db := s.helpers.DB(tx)
	return db.WithContext(ctx).Create(session).Error
}

func (s *SessionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error) {
	db := s.helpers.DB(tx)
	var session models.Session
	if err := db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *SessionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	db := s.helpers.DB(tx)
	return db.WithContext(ctx).Save(session).Error
}

func (s *SessionPostgreSQL) ListOverlapping(ctx context.Context, tx *gorm.DB, teacherID string, start, end time.Time) ([]*models.Session, error) {
	db := s.helpers.DB(tx)
	var sessions []*models.Session
	err := db.WithContext(ctx).
		Where("teacher_id = ? AND status = ?", teacherID, models.SessionScheduled).
		Where(overlapCondition, end, start).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionPostgreSQL) ListStartedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time, limit int) ([]*models.Session, error) {
	db := s.helpers.DB(tx)
	var sessions []*models.Session
	err := db.WithContext(ctx).
		Where("status = ? AND scheduled_at < ?", models.SessionScheduled, cutoff).
		Order("scheduled_at asc").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *SessionPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SessionFilters) ([]*models.Session, int64, error) {
	db := s.helpers.DB(tx)
	var sessions []*models.Session
	var total int64

	query := db.WithContext(ctx).Model(&models.Session{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.TeacherID != nil {
		query = query.Where("teacher_id = ?", *filters.TeacherID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("scheduled_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("scheduled_at < ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplyPagination(query.Order("scheduled_at asc"), filters.Limit, filters.Offset)
	if err := query.Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

type ExamPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.helpers.DB(tx)
	return db.WithContext(ctx).Create(exam).Error
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Exam, error) {
	db := e.helpers.DB(tx)
	var exam models.Exam
	if err := db.WithContext(ctx).First(&exam, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.helpers.DB(tx)
	return db.WithContext(ctx).Save(exam).Error
}

func (e *ExamPostgreSQL) ListOverlapping(ctx context.Context, tx *gorm.DB, examinerID string, start, end time.Time) ([]*models.Exam, error) {
	db := e.helpers.DB(tx)
	var exams []*models.Exam
	err := db.WithContext(ctx).
		Where("examiner_id = ? AND status = ?", examinerID, models.ExamScheduled).
		Where(overlapCondition, end, start).
		Find(&exams).Error
	if err != nil {
		return nil, err
	}
	return exams, nil
}

func (e *ExamPostgreSQL) CountScheduled(ctx context.Context, tx *gorm.DB, examinerID string) (int, error) {
	db := e.helpers.DB(tx)
	var count int64
	err := db.WithContext(ctx).Model(&models.Exam{}).
		Where("examiner_id = ? AND status IN ?", examinerID,
			[]models.ExamStatus{models.ExamRequested, models.ExamScheduled}).
		Count(&count).Error
	return int(count), err
}

func (e *ExamPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := e.helpers.DB(tx)
	var exams []*models.Exam
	var total int64

	query := db.WithContext(ctx).Model(&models.Exam{})
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.ExaminerID != nil {
		query = query.Where("examiner_id = ?", *filters.ExaminerID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ExamType != nil {
		query = query.Where("exam_type = ?", *filters.ExamType)
	}
	if filters.DateFrom != nil {
		query = query.Where("scheduled_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("scheduled_at < ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = e.helpers.ApplyPagination(query.Order("created_at desc"), filters.Limit, filters.Offset)
	if err := query.Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

type ExternalExpertPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewExternalExpertPostgreSQL(db *gorm.DB) repositories.ExternalExpertRepository {
	return &ExternalExpertPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (x *ExternalExpertPostgreSQL) Create(ctx context.Context, tx *gorm.DB, expert *models.ExternalExpert) error {
	db := x.helpers.DB(tx)
	return db.WithContext(ctx).Create(expert).Error
}

func (x *ExternalExpertPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.ExternalExpert, error) {
	db := x.helpers.DB(tx)
	var expert models.ExternalExpert
	if err := db.WithContext(ctx).Preload("User").First(&expert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &expert, nil
}

func (x *ExternalExpertPostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.ExternalExpert, error) {
	db := x.helpers.DB(tx)
	var expert models.ExternalExpert
	if err := db.WithContext(ctx).First(&expert, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &expert, nil
}

func (x *ExternalExpertPostgreSQL) Update(ctx context.Context, tx *gorm.DB, expert *models.ExternalExpert) error {
	db := x.helpers.DB(tx)
	return db.WithContext(ctx).Save(expert).Error
}

// List filters on the JSON specialization and coverage columns in SQL so
// candidate matching does not pull every expert into memory.
func (x *ExternalExpertPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExpertFilters) ([]*models.ExternalExpert, int64, error) {
	db := x.helpers.DB(tx)
	var experts []*models.ExternalExpert
	var total int64

	query := db.WithContext(ctx).Model(&models.ExternalExpert{})
	if filters.ApprovedOnly {
		query = query.Where("approved = ?", true)
	}
	if filters.Specialization != nil {
		query = query.Where("jsonb_exists(specializations::jsonb, ?)", string(*filters.Specialization))
	}
	if filters.State != nil {
		query = query.Where("jsonb_exists(coverage_states::jsonb, ?)", *filters.State)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = x.helpers.ApplyPagination(query.Order("created_at asc"), filters.Limit, filters.Offset)
	if err := query.Preload("User").Find(&experts).Error; err != nil {
		return nil, 0, err
	}
	return experts, total, nil
}

type CalendarPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewCalendarPostgreSQL(db *gorm.DB) repositories.CalendarRepository {
	return &CalendarPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

// Lock acquires the per-resource row lock that serializes booking attempts.
// The row is created on first use; FOR UPDATE then blocks concurrent
// transactions until the holder commits or rolls back.
func (c *CalendarPostgreSQL) Lock(ctx context.Context, tx *gorm.DB, resourceID string) (*models.ResourceCalendar, error) {
	db := c.helpers.DB(tx)
	entry := models.ResourceCalendar{ResourceID: resourceID, UpdatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error; err != nil {
		return nil, err
	}
	var locked models.ResourceCalendar
	if err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&locked, "resource_id = ?", resourceID).Error; err != nil {
		return nil, err
	}
	return &locked, nil
}

func (c *CalendarPostgreSQL) Touch(ctx context.Context, tx *gorm.DB, resourceID string) error {
	db := c.helpers.DB(tx)
	return db.WithContext(ctx).Model(&models.ResourceCalendar{}).
		Where("resource_id = ?", resourceID).
		Updates(map[string]interface{}{
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		}).Error
}
