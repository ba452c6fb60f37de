package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/permis-dz/lifecycle-service/internal/cache"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	user           repositories.UserRepository
	school         repositories.SchoolRepository
	teacher        repositories.TeacherRepository
	review         repositories.ReviewRepository
	enrollment     repositories.EnrollmentRepository
	courseProgress repositories.CourseProgressRepository
	session        repositories.SessionRepository
	exam           repositories.ExamRepository
	expert         repositories.ExternalExpertRepository
	calendar       repositories.CalendarRepository
	quiz           repositories.QuizRepository
	quizAttempt    repositories.QuizAttemptRepository
	certificate    repositories.CertificateRepository
	notification   repositories.NotificationRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB          *gorm.DB
	RedisClient *redis.Client
}

// NewPostgreSQLRepository creates a new repository manager with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}
	repo.initSubRepositories(config.DB, cacheManager)

	return repo
}

func (r *PostgreSQLRepository) initSubRepositories(db *gorm.DB, cacheManager *cache.CacheManager) {
	r.user = NewUserPostgreSQL(db)
	r.school = NewSchoolPostgreSQL(db, r.redisClient)
	r.teacher = NewTeacherPostgreSQL(db)
	r.review = NewReviewPostgreSQL(db)
	r.enrollment = NewEnrollmentPostgreSQL(db)
	r.courseProgress = NewCourseProgressPostgreSQL(db)
	r.session = NewSessionPostgreSQL(db)
	r.exam = NewExamPostgreSQL(db)
	r.expert = NewExternalExpertPostgreSQL(db)
	r.calendar = NewCalendarPostgreSQL(db)
	r.quiz = NewQuizPostgreSQL(db)
	r.quizAttempt = NewQuizAttemptPostgreSQL(db)
	r.certificate = NewCertificatePostgreSQL(db, cacheManager)
	r.notification = NewNotificationPostgreSQL(db)
}

func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

func (r *PostgreSQLRepository) School() repositories.SchoolRepository {
	return r.school
}

func (r *PostgreSQLRepository) Teacher() repositories.TeacherRepository {
	return r.teacher
}

func (r *PostgreSQLRepository) Review() repositories.ReviewRepository {
	return r.review
}

func (r *PostgreSQLRepository) Enrollment() repositories.EnrollmentRepository {
	return r.enrollment
}

func (r *PostgreSQLRepository) CourseProgress() repositories.CourseProgressRepository {
	return r.courseProgress
}

func (r *PostgreSQLRepository) Session() repositories.SessionRepository {
	return r.session
}

func (r *PostgreSQLRepository) Exam() repositories.ExamRepository {
	return r.exam
}

func (r *PostgreSQLRepository) Expert() repositories.ExternalExpertRepository {
	return r.expert
}

func (r *PostgreSQLRepository) Calendar() repositories.CalendarRepository {
	return r.calendar
}

func (r *PostgreSQLRepository) Quiz() repositories.QuizRepository {
	return r.quiz
}

func (r *PostgreSQLRepository) QuizAttempt() repositories.QuizAttemptRepository {
	return r.quizAttempt
}

func (r *PostgreSQLRepository) Certificate() repositories.CertificateRepository {
	return r.certificate
}

func (r *PostgreSQLRepository) Notification() repositories.NotificationRepository {
	return r.notification
}

// WithTransaction executes a function within a database transaction. The
// repository passed to fn is bound to the transaction, so nested writes
// commit or roll back together.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}
		txRepo.initSubRepositories(tx, r.cacheManager)

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize validates connections and wires the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("Redis connection failed: %w", err)
		}
	}

	rm.repo = NewPostgreSQLRepository(rm.config)

	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}
