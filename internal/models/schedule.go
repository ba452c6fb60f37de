package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionNoShow    SessionStatus = "no_show"
)

// Session is a scheduled practical lesson between one student and one teacher.
type Session struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	CourseID     string `json:"course_id" gorm:"not null;index;size:36"`
	EnrollmentID string `json:"enrollment_id" gorm:"not null;index;size:36"`
	StudentID    string `json:"student_id" gorm:"not null;index;size:36"`
	TeacherID    string `json:"teacher_id" gorm:"not null;index;size:36"`

	ScheduledAt     time.Time     `json:"scheduled_at" gorm:"not null;index"`
	DurationMinutes int           `json:"duration_minutes" gorm:"not null"`
	Location        string        `json:"location" gorm:"size:255"`
	Status          SessionStatus `json:"status" gorm:"size:20;not null;default:scheduled;index"`

	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *Session) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

type ExamStatus string

const (
	ExamRequested ExamStatus = "requested"
	ExamScheduled ExamStatus = "scheduled"
	ExamCompleted ExamStatus = "completed"
	ExamCancelled ExamStatus = "cancelled"
)

// Exam is a scheduled certifying assessment between one student and one
// examiner (external expert or designated in-house examiner).
type Exam struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	CourseID     string `json:"course_id" gorm:"not null;index;size:36"`
	EnrollmentID string `json:"enrollment_id" gorm:"not null;index;size:36"`
	StudentID    string `json:"student_id" gorm:"not null;index;size:36"`
	ExaminerID   string `json:"examiner_id" gorm:"index;size:36"`

	ExamType       CourseType     `json:"exam_type" gorm:"size:10;not null"`
	PreferredDates datatypes.JSON `json:"preferred_dates" gorm:"type:jsonb"`
	Location       string         `json:"location" gorm:"size:100"`

	ScheduledAt     *time.Time `json:"scheduled_at" gorm:"index"`
	DurationMinutes int        `json:"duration_minutes" gorm:"default:60"`
	ConfirmedAt     *time.Time `json:"confirmed_at"`

	Status ExamStatus `json:"status" gorm:"size:20;not null;default:requested;index"`
	Score  *float64   `json:"score"`

	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Exam) TableName() string {
	return "exams"
}

func (e *Exam) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *Exam) EndsAt() time.Time {
	if e.ScheduledAt == nil {
		return time.Time{}
	}
	return e.ScheduledAt.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

func (e *Exam) SetPreferredDates(dates []time.Time) error {
	data, err := json.Marshal(dates)
	if err != nil {
		return err
	}
	e.PreferredDates = data
	return nil
}

func (e *Exam) GetPreferredDates() ([]time.Time, error) {
	if len(e.PreferredDates) == 0 {
		return nil, nil
	}
	var dates []time.Time
	if err := json.Unmarshal(e.PreferredDates, &dates); err != nil {
		return nil, err
	}
	return dates, nil
}

// ExternalExpert is a self-registered examiner independent of any school.
type ExternalExpert struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID string `json:"user_id" gorm:"uniqueIndex;not null;size:36"`

	Specializations     datatypes.JSON `json:"specializations" gorm:"type:jsonb"`
	CoverageStates      datatypes.JSON `json:"coverage_states" gorm:"type:jsonb"`
	CertificationNumber string         `json:"certification_number" gorm:"uniqueIndex;size:100"`
	YearsOfExperience   int            `json:"years_of_experience"`

	Approved bool `json:"approved" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}

func (ExternalExpert) TableName() string {
	return "external_experts"
}

func (e *ExternalExpert) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (e *ExternalExpert) SetSpecializations(types []CourseType) error {
	data, err := json.Marshal(types)
	if err != nil {
		return err
	}
	e.Specializations = data
	return nil
}

func (e *ExternalExpert) GetSpecializations() ([]CourseType, error) {
	if len(e.Specializations) == 0 {
		return nil, nil
	}
	var types []CourseType
	if err := json.Unmarshal(e.Specializations, &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (e *ExternalExpert) SetCoverageStates(states []string) error {
	data, err := json.Marshal(states)
	if err != nil {
		return err
	}
	e.CoverageStates = data
	return nil
}

func (e *ExternalExpert) GetCoverageStates() ([]string, error) {
	if len(e.CoverageStates) == 0 {
		return nil, nil
	}
	var states []string
	if err := json.Unmarshal(e.CoverageStates, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// ResourceCalendar anchors slot allocation for a schedulable resource (teacher
// or examiner). Scheduling transactions take a row lock on it before checking
// for overlaps, so concurrent bookings against the same resource serialize.
type ResourceCalendar struct {
	ResourceID string    `json:"resource_id" gorm:"primaryKey;size:36"`
	Version    int64     `json:"version" gorm:"not null;default:0"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ResourceCalendar) TableName() string {
	return "resource_calendars"
}
