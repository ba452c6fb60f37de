package services

import (
	"context"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
)

// ===== IDENTITY DTOs =====

type RegisterRequest struct {
	Email       string        `json:"email" validate:"required,email"`
	Password    string        `json:"password" validate:"required,min=8,max=72"`
	FirstName   string        `json:"first_name" validate:"required,max=100"`
	LastName    string        `json:"last_name" validate:"required,max=100"`
	Phone       string        `json:"phone" validate:"omitempty,max=20"`
	Gender      models.Gender `json:"gender" validate:"required,oneof=male female"`
	State       string        `json:"state" validate:"required,algerian_state"`
	DateOfBirth *time.Time    `json:"date_of_birth" validate:"omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,max=20"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	State     *string `json:"state" validate:"omitempty,algerian_state"`
}

type RegisterExpertRequest struct {
	Specializations     []models.CourseType `json:"specializations" validate:"required,min=1,dive,course_type"`
	CoverageStates      []string            `json:"coverage_states" validate:"required,min=1,dive,algerian_state"`
	CertificationNumber string              `json:"certification_number" validate:"required,max=50"`
	YearsOfExperience   int                 `json:"years_of_experience" validate:"required,min=1,max=60"`
}

// ===== CATALOG DTOs =====

type CreateSchoolRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Address     string  `json:"address" validate:"required,max=255"`
	State       string  `json:"state" validate:"required,algerian_state"`
	Phone       string  `json:"phone" validate:"required,max=20"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Description string  `json:"description" validate:"omitempty,max=2000"`
	Price       float64 `json:"price" validate:"required,gt=0"`
}

type UpdateSchoolRequest struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Address     *string  `json:"address" validate:"omitempty,max=255"`
	Phone       *string  `json:"phone" validate:"omitempty,max=20"`
	Email       *string  `json:"email" validate:"omitempty,email"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
}

type AddTeacherRequest struct {
	UserID         string `json:"user_id" validate:"required,uuid"`
	CanTeachMale   bool   `json:"can_teach_male"`
	CanTeachFemale bool   `json:"can_teach_female"`
}

type SubmitReviewRequest struct {
	EnrollmentID string `json:"enrollment_id" validate:"required,uuid"`
	Rating       int    `json:"rating" validate:"required,min=1,max=5"`
	Comment      string `json:"comment" validate:"omitempty,max=2000"`
}

type SchoolListResponse struct {
	Schools []*models.DrivingSchool `json:"schools"`
	Total   int64                   `json:"total"`
	Limit   int                     `json:"limit"`
	Offset  int                     `json:"offset"`
}

// SchoolStatsResponse is the manager dashboard summary for one school.
type SchoolStatsResponse struct {
	SchoolID           string  `json:"school_id"`
	ActiveEnrollments  int64   `json:"active_enrollments"`
	PendingEnrollments int64   `json:"pending_enrollments"`
	Graduates          int64   `json:"graduates"`
	TeacherCount       int     `json:"teacher_count"`
	Rating             float64 `json:"rating"`
	TotalReviews       int     `json:"total_reviews"`
}

// ===== ENROLLMENT DTOs =====

type EnrollRequest struct {
	SchoolID string `json:"school_id" validate:"required,uuid"`
}

type EnrollmentResponse struct {
	*models.Enrollment
	CanPay      bool `json:"can_pay"`
	CanWithdraw bool `json:"can_withdraw"`
}

type EnrollmentListResponse struct {
	Enrollments []*models.Enrollment `json:"enrollments"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

// CourseOutcome is the single input to the course state mutation point.
type CourseOutcome struct {
	CourseType models.CourseType
	Passed     bool
	ExamScore  *float64
}

// ===== SCHEDULING DTOs =====

type ScheduleSessionRequest struct {
	CourseID        string    `json:"course_id" validate:"required,uuid"`
	TeacherID       string    `json:"teacher_id" validate:"required,uuid"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required,future_date"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=30,max=240"`
	Location        string    `json:"location" validate:"omitempty,max=255"`
}

type ScheduleExamRequest struct {
	CourseID       string      `json:"course_id" validate:"required,uuid"`
	PreferredDates []time.Time `json:"preferred_dates" validate:"required,min=1,max=5,dive,future_date"`
	Location       string      `json:"location" validate:"omitempty,max=255"`
}

type ConfirmExamRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required,future_date"`
}

type CompleteExamRequest struct {
	Score float64 `json:"score" validate:"min=0,max=100"`
}

type SessionListResponse struct {
	Sessions []*models.Session `json:"sessions"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

type ExamListResponse struct {
	Exams  []*models.Exam `json:"exams"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ===== ASSESSMENT DTOs =====

type CreateQuizRequest struct {
	CourseType       models.CourseType     `json:"course_type" validate:"required,course_type"`
	Title            string                `json:"title" validate:"required,max=200"`
	Description      string                `json:"description" validate:"omitempty,max=2000"`
	Difficulty       models.QuizDifficulty `json:"difficulty" validate:"omitempty,quiz_difficulty"`
	Questions        []models.QuizQuestion `json:"questions" validate:"required,min=1,dive"`
	PassingScore     int                   `json:"passing_score" validate:"passing_score"`
	TimeLimitMinutes int                   `json:"time_limit_minutes" validate:"omitempty,min=1,max=180"`
}

type UpdateQuizRequest struct {
	Title            *string                `json:"title" validate:"omitempty,max=200"`
	Description      *string                `json:"description" validate:"omitempty,max=2000"`
	Difficulty       *models.QuizDifficulty `json:"difficulty" validate:"omitempty,quiz_difficulty"`
	Questions        []models.QuizQuestion  `json:"questions" validate:"omitempty,min=1,dive"`
	PassingScore     *int                   `json:"passing_score" validate:"omitempty,passing_score"`
	TimeLimitMinutes *int                   `json:"time_limit_minutes" validate:"omitempty,min=1,max=180"`
	IsActive         *bool                  `json:"is_active"`
}

type SubmitQuizAttemptRequest struct {
	Answers map[int]int `json:"answers" validate:"required"`
}

type QuizAttemptResponse struct {
	*models.QuizAttempt
	TotalQuestions int `json:"total_questions"`
	CorrectAnswers int `json:"correct_answers"`
}

type QuizListResponse struct {
	Quizzes []*models.Quiz `json:"quizzes"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// ===== CERTIFICATE DTOs =====

// VerifyResponse is the public verification payload. Unknown codes produce
// Valid=false with the other fields empty, never an error.
type VerifyResponse struct {
	Valid      bool   `json:"valid"`
	HolderName string `json:"holder_name,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
	IssueDate  string `json:"issue_date,omitempty"`
}

// ===== SERVICE INTERFACES =====

type IdentityService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error)
	Deactivate(ctx context.Context, userID, actorID string) error

	// Expert lifecycle
	RegisterExpert(ctx context.Context, userID string, req *RegisterExpertRequest) (*models.ExternalExpert, error)
	ApproveExpert(ctx context.Context, expertID, approverID string) (*models.ExternalExpert, error)
	ListExperts(ctx context.Context, filters repositories.ExpertFilters) ([]*models.ExternalExpert, int64, error)
}

type CatalogService interface {
	CreateSchool(ctx context.Context, req *CreateSchoolRequest, managerID string) (*models.DrivingSchool, error)
	GetSchool(ctx context.Context, id string) (*models.DrivingSchool, error)
	UpdateSchool(ctx context.Context, id string, req *UpdateSchoolRequest, managerID string) (*models.DrivingSchool, error)
	ListSchools(ctx context.Context, filters repositories.SchoolFilters) (*SchoolListResponse, error)
	GetSchoolStats(ctx context.Context, schoolID, managerID string) (*SchoolStatsResponse, error)

	AddTeacher(ctx context.Context, schoolID string, req *AddTeacherRequest, managerID string) (*models.Teacher, error)
	ListTeachers(ctx context.Context, schoolID string) ([]*models.Teacher, error)

	SubmitReview(ctx context.Context, req *SubmitReviewRequest, studentID string) (*models.Review, error)
	ListReviews(ctx context.Context, schoolID string) ([]*models.Review, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, req *EnrollRequest, studentID string) (*EnrollmentResponse, error)
	CompletePayment(ctx context.Context, enrollmentID, studentID string) (*EnrollmentResponse, error)
	Withdraw(ctx context.Context, enrollmentID, studentID string) error
	GetByID(ctx context.Context, enrollmentID, userID string) (*EnrollmentResponse, error)
	GetByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	List(ctx context.Context, filters repositories.EnrollmentFilters) (*EnrollmentListResponse, error)

	// RecordCourseOutcome is the single mutation point for course state. It is
	// called by the scheduling engine when a certifying exam completes; when
	// the last course passes it triggers certificate issuance synchronously.
	RecordCourseOutcome(ctx context.Context, enrollmentID string, outcome CourseOutcome) (*models.CourseProgress, error)
}

type SchedulingService interface {
	ScheduleSession(ctx context.Context, req *ScheduleSessionRequest, studentID string) (*models.Session, error)
	CompleteSession(ctx context.Context, sessionID, teacherID string) (*models.Session, error)
	CancelSession(ctx context.Context, sessionID, userID string) error
	ListSessions(ctx context.Context, filters repositories.SessionFilters) (*SessionListResponse, error)

	ScheduleExam(ctx context.Context, req *ScheduleExamRequest, studentID string) (*models.Exam, error)
	ConfirmExam(ctx context.Context, examID string, req *ConfirmExamRequest, userID string) (*models.Exam, error)
	CompleteExam(ctx context.Context, examID string, req *CompleteExamRequest, examinerID string) (*models.Exam, error)
	CancelExam(ctx context.Context, examID, userID string) error
	ListExams(ctx context.Context, filters repositories.ExamFilters) (*ExamListResponse, error)

	// MarkOverdueNoShows flips scheduled sessions whose start time has passed
	// beyond the grace window. Returns how many rows were swept.
	MarkOverdueNoShows(ctx context.Context, grace time.Duration) (int, error)
}

type AssessmentService interface {
	CreateQuiz(ctx context.Context, req *CreateQuizRequest, managerID string) (*models.Quiz, error)
	GetQuiz(ctx context.Context, quizID, userID string) (*models.Quiz, error)
	UpdateQuiz(ctx context.Context, quizID string, req *UpdateQuizRequest, managerID string) (*models.Quiz, error)
	ListQuizzes(ctx context.Context, filters repositories.QuizFilters, userID string) (*QuizListResponse, error)

	SubmitAttempt(ctx context.Context, quizID string, req *SubmitQuizAttemptRequest, studentID string) (*QuizAttemptResponse, error)
	GetStudentAttempts(ctx context.Context, studentID string, limit, offset int) ([]*models.QuizAttempt, int64, error)

	// Bulk question exchange via spreadsheet.
	ImportQuestions(ctx context.Context, quizID string, data []byte, managerID string) (int, error)
	ExportQuestions(ctx context.Context, quizID, managerID string) ([]byte, error)
}

type CertificateService interface {
	// Issue creates the certificate for a fully passed enrollment. Idempotent:
	// repeat calls return the existing certificate.
	Issue(ctx context.Context, enrollmentID string) (*models.Certificate, error)
	// ReconcileMissing backfills certificates for completed enrollments whose
	// issuance failed after the completing outcome committed.
	ReconcileMissing(ctx context.Context) (int, error)
	GetByStudent(ctx context.Context, studentID string) ([]*models.Certificate, error)
	Verify(ctx context.Context, verificationCode string) (*VerifyResponse, error)
}

type NotificationService interface {
	Notify(ctx context.Context, userID string, notifType models.NotificationType, title, message string) error
	ListForUser(ctx context.Context, userID string, filters repositories.NotificationFilters) ([]*models.Notification, int64, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}

// ServiceManager wires and owns every service instance.
type ServiceManager interface {
	Identity() IdentityService
	Catalog() CatalogService
	Enrollment() EnrollmentService
	Scheduling() SchedulingService
	Assessment() AssessmentService
	Certificate() CertificateService
	Notification() NotificationService

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	IsInitialized() bool
}
