package repositories

import (
	"time"

	"github.com/permis-dz/lifecycle-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type SchoolFilters struct {
	State     *string  `json:"state"`
	MinPrice  *float64 `json:"min_price"`
	MaxPrice  *float64 `json:"max_price"`
	MinRating *float64 `json:"min_rating"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
	SortBy    string   `json:"sort_by"`    // "name", "price", "rating"
	SortOrder string   `json:"sort_order"` // "asc", "desc"
}

type EnrollmentFilters struct {
	Status    *models.EnrollmentStatus `json:"status"`
	StudentID *string                  `json:"student_id"`
	SchoolID  *string                  `json:"school_id"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
}

type SessionFilters struct {
	Status    *models.SessionStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	TeacherID *string               `json:"teacher_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
}

type ExamFilters struct {
	Status     *models.ExamStatus `json:"status"`
	ExamType   *models.CourseType `json:"exam_type"`
	StudentID  *string            `json:"student_id"`
	ExaminerID *string            `json:"examiner_id"`
	DateFrom   *time.Time         `json:"date_from"`
	DateTo     *time.Time         `json:"date_to"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
}

type QuizFilters struct {
	CourseType *models.CourseType     `json:"course_type"`
	Difficulty *models.QuizDifficulty `json:"difficulty"`
	SchoolID   *string                `json:"school_id"`
	ActiveOnly bool                   `json:"active_only"`
	Limit      int                    `json:"limit"`
	Offset     int                    `json:"offset"`
}

type ExpertFilters struct {
	Specialization *models.CourseType `json:"specialization"`
	State          *string            `json:"state"`
	ApprovedOnly   bool               `json:"approved_only"`
	Limit          int                `json:"limit"`
	Offset         int                `json:"offset"`
}

type NotificationFilters struct {
	UnreadOnly bool `json:"unread_only"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type SchoolAnalytics struct {
	TotalEnrollments   int     `json:"total_enrollments"`
	ActiveEnrollments  int     `json:"active_enrollments"`
	CertificatesIssued int     `json:"certificates_issued"`
	TotalRevenue       float64 `json:"total_revenue"`
	AverageExamScore   float64 `json:"average_exam_score"`
	ExamPassRate       float64 `json:"exam_pass_rate"`
	TeacherCount       int     `json:"teacher_count"`
}

type TeacherPerformance struct {
	TeacherID         string  `json:"teacher_id"`
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	CancelledSessions int     `json:"cancelled_sessions"`
	NoShowSessions    int     `json:"no_show_sessions"`
	CompletionRate    float64 `json:"completion_rate"`
}

type ExamLoad struct {
	ExaminerID string `json:"examiner_id"`
	Scheduled  int    `json:"scheduled"`
}
