package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentPendingPayment EnrollmentStatus = "pending_payment"
	EnrollmentActive         EnrollmentStatus = "active"
	EnrollmentCompleted      EnrollmentStatus = "completed"
	EnrollmentWithdrawn      EnrollmentStatus = "withdrawn"
)

type CourseType string

const (
	CourseTheory CourseType = "theory"
	CoursePark   CourseType = "park"
	CourseRoad   CourseType = "road"
)

// CourseTypes lists every track an enrollment must pass, in unlock order.
var CourseTypes = []CourseType{CourseTheory, CoursePark, CourseRoad}

func IsValidCourseType(ct CourseType) bool {
	for _, t := range CourseTypes {
		if t == ct {
			return true
		}
	}
	return false
}

type CourseState string

const (
	CourseNotStarted   CourseState = "not_started"
	CourseInProgress   CourseState = "in_progress"
	CourseAwaitingExam CourseState = "awaiting_exam"
	CoursePassed       CourseState = "passed"
	CourseFailed       CourseState = "failed"
)

// Enrollment links one student to one school. It becomes active only after
// payment completion; a student holds at most one active enrollment per school.
type Enrollment struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	StudentID string `json:"student_id" gorm:"not null;index;size:36"`
	SchoolID  string `json:"school_id" gorm:"not null;index;size:36"`

	Status    EnrollmentStatus `json:"status" gorm:"size:20;not null;default:pending_payment;index"`
	AmountDue float64          `json:"amount_due" gorm:"not null"`
	PaidAt    *time.Time       `json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Student User             `json:"-" gorm:"foreignKey:StudentID"`
	School  DrivingSchool    `json:"-" gorm:"foreignKey:SchoolID"`
	Courses []CourseProgress `json:"courses,omitempty" gorm:"foreignKey:EnrollmentID"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// CourseProgress tracks per-course-type advancement within an enrollment.
// Transitions only move forward except failed -> in_progress (retry); passed
// is terminal.
type CourseProgress struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	EnrollmentID string `json:"enrollment_id" gorm:"not null;index;uniqueIndex:idx_enrollment_course,priority:1;size:36"`

	CourseType CourseType  `json:"course_type" gorm:"size:10;not null;uniqueIndex:idx_enrollment_course,priority:2"`
	State      CourseState `json:"state" gorm:"size:20;not null;default:not_started;index"`

	CompletedSessions int      `json:"completed_sessions" gorm:"default:0"`
	ExamScore         *float64 `json:"exam_score"`
	RetryCount        int      `json:"retry_count" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Enrollment Enrollment `json:"-" gorm:"foreignKey:EnrollmentID"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

func (c *CourseProgress) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// courseOrder gives the forward ordering of states for transition checks.
var courseOrder = map[CourseState]int{
	CourseNotStarted:   0,
	CourseInProgress:   1,
	CourseAwaitingExam: 2,
	CoursePassed:       3,
	CourseFailed:       3,
}

// CanTransition reports whether a CourseProgress may move from one state to
// another. Forward-only, except the failed -> in_progress retry edge; passed
// is terminal.
func CanTransition(from, to CourseState) bool {
	if from == CoursePassed {
		return false
	}
	if from == CourseFailed {
		return to == CourseInProgress
	}
	return courseOrder[to] > courseOrder[from]
}
