package events

import "time"

// Payload types carried inside the event envelope's Data field.

type EnrollmentPaidEvent struct {
	EnrollmentID string    `json:"enrollment_id"`
	StudentID    string    `json:"student_id"`
	SchoolID     string    `json:"school_id"`
	Amount       float64   `json:"amount"`
	PaidAt       time.Time `json:"paid_at"`
}

type CoursePassedEvent struct {
	EnrollmentID string   `json:"enrollment_id"`
	StudentID    string   `json:"student_id"`
	CourseType   string   `json:"course_type"`
	ExamScore    *float64 `json:"exam_score,omitempty"`
}

type CertificateIssuedEvent struct {
	CertificateID    string    `json:"certificate_id"`
	EnrollmentID     string    `json:"enrollment_id"`
	StudentID        string    `json:"student_id"`
	SchoolID         string    `json:"school_id"`
	VerificationCode string    `json:"verification_code"`
	IssuedAt         time.Time `json:"issued_at"`
}

type SessionScheduledEvent struct {
	SessionID    string    `json:"session_id"`
	EnrollmentID string    `json:"enrollment_id"`
	StudentID    string    `json:"student_id"`
	TeacherID    string    `json:"teacher_id"`
	CourseType   string    `json:"course_type"`
	ScheduledAt  time.Time `json:"scheduled_at"`
}

type ExamRequestedEvent struct {
	ExamID       string `json:"exam_id"`
	EnrollmentID string `json:"enrollment_id"`
	StudentID    string `json:"student_id"`
	ExamType     string `json:"exam_type"`
	State        string `json:"state"`
}

type ExamScheduledEvent struct {
	ExamID      string    `json:"exam_id"`
	StudentID   string    `json:"student_id"`
	ExaminerID  string    `json:"examiner_id"`
	ExamType    string    `json:"exam_type"`
	ScheduledAt time.Time `json:"scheduled_at"`
}
