package repositories

import "context"

// Repository aggregates every domain repository behind one injection point.
type Repository interface {
	// Identity domain
	User() UserRepository

	// Catalog domain
	School() SchoolRepository
	Teacher() TeacherRepository
	Review() ReviewRepository

	// Enrollment ledger
	Enrollment() EnrollmentRepository
	CourseProgress() CourseProgressRepository

	// Scheduling domain
	Session() SessionRepository
	Exam() ExamRepository
	Expert() ExternalExpertRepository
	Calendar() CalendarRepository

	// Assessment domain
	Quiz() QuizRepository
	QuizAttempt() QuizAttemptRepository

	// Certification domain
	Certificate() CertificateRepository
	Notification() NotificationRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
