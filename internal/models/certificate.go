package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Certificate is issued once all three CourseProgress entries of an enrollment
// reach passed. Immutable once created; the verification code resolves without
// authentication.
type Certificate struct {
	ID string `json:"id" gorm:"primaryKey;size:36"`

	// At most one certificate per enrollment.
	EnrollmentID string `json:"enrollment_id" gorm:"uniqueIndex;not null;size:36"`
	StudentID    string `json:"student_id" gorm:"not null;index;size:36"`
	SchoolID     string `json:"school_id" gorm:"not null;index;size:36"`

	VerificationCode string    `json:"verification_code" gorm:"uniqueIndex;not null;size:64"`
	IssuedAt         time.Time `json:"issued_at" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c *Certificate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.VerificationCode == "" {
		c.VerificationCode = uuid.NewString()
	}
	return nil
}

type NotificationType string

const (
	NotificationEnrollmentPaid    NotificationType = "enrollment.paid"
	NotificationCoursePassed      NotificationType = "course.passed"
	NotificationCertificateIssued NotificationType = "certificate.issued"
	NotificationSessionScheduled  NotificationType = "session.scheduled"
	NotificationExamRequested     NotificationType = "exam.requested"
	NotificationExamScheduled     NotificationType = "exam.scheduled"
)

// Notification is the persisted record produced by the notification sidecar
// for in-app delivery.
type Notification struct {
	ID     string           `json:"id" gorm:"primaryKey;size:36"`
	UserID string           `json:"user_id" gorm:"not null;index;size:36"`
	Type   NotificationType `json:"type" gorm:"size:40;not null"`

	Title   string `json:"title" gorm:"size:200"`
	Message string `json:"message" gorm:"type:text"`
	IsRead  bool   `json:"is_read" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
