package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/events"
	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/validator"
	"gorm.io/gorm"
)

// EnrollmentConfig tunes the retry policy for failed courses.
type EnrollmentConfig struct {
	// MaxCourseRetries bounds how many times a failed course may return to
	// in_progress. Zero means no retries.
	MaxCourseRetries int
}

func DefaultEnrollmentConfig() EnrollmentConfig {
	return EnrollmentConfig{
		MaxCourseRetries: 2,
	}
}

type enrollmentService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	certificates   CertificateService
	config         EnrollmentConfig
}

func NewEnrollmentService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	eventPublisher events.EventPublisher,
	certificates CertificateService,
	config EnrollmentConfig,
) EnrollmentService {
	return &enrollmentService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		certificates:   certificates,
		config:         config,
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, req *EnrollRequest, studentID string) (*EnrollmentResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if !models.HasCapability(student.Role, models.ActionEnroll) {
		return nil, NewPermissionError(studentID, "enrollment", "create", "role cannot enroll")
	}

	school, err := s.repo.School().GetByID(ctx, nil, req.SchoolID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to load school: %w", err)
	}

	var enrollment *models.Enrollment
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if _, err := txRepo.Enrollment().GetActiveByStudentAndSchool(ctx, nil, studentID, req.SchoolID); err == nil {
			return ErrDuplicateEnrollment
		} else if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to check existing enrollment: %w", err)
		}

		enrollment = &models.Enrollment{
			StudentID: studentID,
			SchoolID:  req.SchoolID,
			Status:    models.EnrollmentPendingPayment,
			AmountDue: school.Price,
		}
		if err := txRepo.Enrollment().Create(ctx, nil, enrollment); err != nil {
			// Partial unique index on open enrollments catches racing inserts
			// the read above could not see.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateEnrollment
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}

		courses := make([]*models.CourseProgress, 0, len(models.CourseTypes))
		for _, ct := range models.CourseTypes {
			courses = append(courses, &models.CourseProgress{
				EnrollmentID: enrollment.ID,
				CourseType:   ct,
				State:        models.CourseNotStarted,
			})
		}
		if err := txRepo.CourseProgress().CreateBatch(ctx, nil, courses); err != nil {
			return fmt.Errorf("failed to create course progress: %w", err)
		}

		// First enrollment promotes a guest to student.
		if student.Role == models.RoleGuest {
			if err := txRepo.User().UpdateRole(ctx, nil, studentID, models.RoleStudent); err != nil {
				return fmt.Errorf("failed to promote student: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("enrollment created", "enrollment_id", enrollment.ID, "student_id", studentID, "school_id", req.SchoolID)
	return s.toResponse(enrollment, studentID), nil
}

// CompletePayment flips pending_payment to active exactly once. Repeating the
// call on an already active enrollment succeeds without a second event.
func (s *enrollmentService) CompletePayment(ctx context.Context, enrollmentID, studentID string) (*EnrollmentResponse, error) {
	var enrollment *models.Enrollment
	var alreadyPaid bool

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		enrollment, err = txRepo.Enrollment().GetByIDForUpdate(ctx, nil, enrollmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to lock enrollment: %w", err)
		}

		if enrollment.StudentID != studentID {
			return NewPermissionError(studentID, "enrollment", "pay", "enrollment belongs to another student")
		}
		student, err := txRepo.User().GetByID(ctx, nil, studentID)
		if err != nil {
			return fmt.Errorf("failed to load student: %w", err)
		}
		if !models.HasCapability(student.Role, models.ActionPay) {
			return NewPermissionError(studentID, "enrollment", "pay", "role cannot pay enrollments")
		}

		switch enrollment.Status {
		case models.EnrollmentActive:
			alreadyPaid = true
			return nil
		case models.EnrollmentPendingPayment:
			// proceed
		default:
			return ErrEnrollmentNotPayable
		}

		now := time.Now().UTC()
		enrollment.Status = models.EnrollmentActive
		enrollment.PaidAt = &now
		if err := txRepo.Enrollment().Update(ctx, nil, enrollment); err != nil {
			return fmt.Errorf("failed to activate enrollment: %w", err)
		}

		// Theory opens first; park and road unlock as prior courses pass.
		theory, err := txRepo.CourseProgress().GetByEnrollmentAndType(ctx, nil, enrollmentID, models.CourseTheory)
		if err != nil {
			return fmt.Errorf("failed to load theory progress: %w", err)
		}
		theory.State = models.CourseInProgress
		if err := txRepo.CourseProgress().Update(ctx, nil, theory); err != nil {
			return fmt.Errorf("failed to open theory course: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if !alreadyPaid {
		s.publishEvent(ctx, events.TopicEnrollmentPaid, events.NewEvent(events.TopicEnrollmentPaid, events.EnrollmentPaidEvent{
			EnrollmentID: enrollment.ID,
			StudentID:    enrollment.StudentID,
			SchoolID:     enrollment.SchoolID,
			Amount:       enrollment.AmountDue,
			PaidAt:       *enrollment.PaidAt,
		}))
		s.logger.Info("payment completed", "enrollment_id", enrollmentID)
	}

	return s.toResponse(enrollment, studentID), nil
}

func (s *enrollmentService) Withdraw(ctx context.Context, enrollmentID, studentID string) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		enrollment, err := txRepo.Enrollment().GetByIDForUpdate(ctx, nil, enrollmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to lock enrollment: %w", err)
		}

		if enrollment.StudentID != studentID {
			return NewPermissionError(studentID, "enrollment", "withdraw", "enrollment belongs to another student")
		}

		if enrollment.Status != models.EnrollmentPendingPayment && enrollment.Status != models.EnrollmentActive {
			return ErrEnrollmentNotActive
		}

		enrollment.Status = models.EnrollmentWithdrawn
		if err := txRepo.Enrollment().Update(ctx, nil, enrollment); err != nil {
			return fmt.Errorf("failed to withdraw enrollment: %w", err)
		}

		s.logger.Info("enrollment withdrawn", "enrollment_id", enrollmentID)
		return nil
	})
}

func (s *enrollmentService) GetByID(ctx context.Context, enrollmentID, userID string) (*EnrollmentResponse, error) {
	enrollment, err := s.repo.Enrollment().GetByIDWithCourses(ctx, nil, enrollmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	if enrollment.StudentID != userID {
		user, err := s.repo.User().GetByID(ctx, nil, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
		if !models.HasCapability(user.Role, models.ActionManageEnrollment) {
			return nil, NewPermissionError(userID, "enrollment", "read", "enrollment belongs to another student")
		}
	}

	return s.toResponse(enrollment, enrollment.StudentID), nil
}

func (s *enrollmentService) GetByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	return s.repo.Enrollment().GetByStudent(ctx, nil, studentID)
}

func (s *enrollmentService) List(ctx context.Context, filters repositories.EnrollmentFilters) (*EnrollmentListResponse, error) {
	enrollments, total, err := s.repo.Enrollment().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return &EnrollmentListResponse{
		Enrollments: enrollments,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

// RecordCourseOutcome applies a certifying exam result to course state. The
// enrollment row is locked for the whole transition, so two racing outcomes on
// the same enrollment serialize. When the last course passes the enrollment is
// completed and issuance runs after commit; the recorded outcome survives an
// issuance failure and issuance is retried on the next call.
func (s *enrollmentService) RecordCourseOutcome(ctx context.Context, enrollmentID string, outcome CourseOutcome) (*models.CourseProgress, error) {
	if !models.IsValidCourseType(outcome.CourseType) {
		return nil, ErrCourseNotFound
	}

	var course *models.CourseProgress
	var allPassed bool
	var studentID string

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		enrollment, err := txRepo.Enrollment().GetByIDForUpdate(ctx, nil, enrollmentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to lock enrollment: %w", err)
		}
		studentID = enrollment.StudentID

		if enrollment.Status != models.EnrollmentActive {
			return ErrEnrollmentNotActive
		}

		course, err = txRepo.CourseProgress().GetByEnrollmentAndType(ctx, nil, enrollmentID, outcome.CourseType)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCourseNotFound
			}
			return fmt.Errorf("failed to load course progress: %w", err)
		}

		if outcome.Passed {
			if !models.CanTransition(course.State, models.CoursePassed) {
				return ErrInvalidCourseState
			}
			course.State = models.CoursePassed
			course.ExamScore = outcome.ExamScore
		} else {
			if !models.CanTransition(course.State, models.CourseFailed) {
				return ErrInvalidCourseState
			}
			course.ExamScore = outcome.ExamScore
			if course.RetryCount < s.config.MaxCourseRetries {
				// Retry edge: straight back to in_progress.
				course.RetryCount++
				course.State = models.CourseInProgress
			} else {
				course.State = models.CourseFailed
			}
		}

		if err := txRepo.CourseProgress().Update(ctx, nil, course); err != nil {
			return fmt.Errorf("failed to update course progress: %w", err)
		}

		if outcome.Passed {
			if err := s.unlockNextCourse(ctx, txRepo, enrollmentID, outcome.CourseType); err != nil {
				return err
			}

			courses, err := txRepo.CourseProgress().GetByEnrollment(ctx, nil, enrollmentID)
			if err != nil {
				return fmt.Errorf("failed to load courses: %w", err)
			}
			allPassed = true
			for _, c := range courses {
				if c.State != models.CoursePassed {
					allPassed = false
					break
				}
			}

			if allPassed {
				enrollment.Status = models.EnrollmentCompleted
				if err := txRepo.Enrollment().Update(ctx, nil, enrollment); err != nil {
					return fmt.Errorf("failed to complete enrollment: %w", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.Passed {
		s.publishEvent(ctx, events.TopicCoursePassed, events.NewEvent(events.TopicCoursePassed, events.CoursePassedEvent{
			EnrollmentID: enrollmentID,
			StudentID:    studentID,
			CourseType:   string(outcome.CourseType),
			ExamScore:    outcome.ExamScore,
		}))
	}

	if allPassed {
		if _, err := s.certificates.Issue(ctx, enrollmentID); err != nil {
			// The outcome is already committed; the reconcile sweep picks the
			// enrollment up and issues on a later pass.
			s.logger.Error("certificate issuance failed after completion",
				"enrollment_id", enrollmentID, "error", err)
		}
	}

	return course, nil
}

// unlockNextCourse opens the next course in order once the prior one passes.
func (s *enrollmentService) unlockNextCourse(ctx context.Context, txRepo repositories.Repository, enrollmentID string, passed models.CourseType) error {
	for i, ct := range models.CourseTypes {
		if ct != passed || i+1 >= len(models.CourseTypes) {
			continue
		}
		next, err := txRepo.CourseProgress().GetByEnrollmentAndType(ctx, nil, enrollmentID, models.CourseTypes[i+1])
		if err != nil {
			return fmt.Errorf("failed to load next course: %w", err)
		}
		if next.State == models.CourseNotStarted {
			next.State = models.CourseInProgress
			if err := txRepo.CourseProgress().Update(ctx, nil, next); err != nil {
				return fmt.Errorf("failed to unlock next course: %w", err)
			}
		}
	}
	return nil
}

func (s *enrollmentService) toResponse(enrollment *models.Enrollment, studentID string) *EnrollmentResponse {
	return &EnrollmentResponse{
		Enrollment:  enrollment,
		CanPay:      enrollment.Status == models.EnrollmentPendingPayment && enrollment.StudentID == studentID,
		CanWithdraw: (enrollment.Status == models.EnrollmentPendingPayment || enrollment.Status == models.EnrollmentActive) && enrollment.StudentID == studentID,
	}
}

func (s *enrollmentService) publishEvent(ctx context.Context, topic string, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, topic, event); err != nil {
		s.logger.Error("failed to publish event", "topic", topic, "error", err)
	}
}
