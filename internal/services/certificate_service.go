package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/events"
	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"gorm.io/gorm"
)

type certificateService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	eventPublisher events.EventPublisher
	notifications  NotificationService
}

func NewCertificateService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, eventPublisher events.EventPublisher, notifications NotificationService) CertificateService {
	return &certificateService{
		repo:           repo,
		db:             db,
		logger:         logger,
		eventPublisher: eventPublisher,
		notifications:  notifications,
	}
}

// Issue creates the certificate for an enrollment whose three courses have all
// passed. Safe to call repeatedly: the unique enrollment index plus the
// read-first check make retries return the existing certificate.
func (s *certificateService) Issue(ctx context.Context, enrollmentID string) (*models.Certificate, error) {
	existing, err := s.repo.Certificate().GetByEnrollment(ctx, nil, enrollmentID)
	if err == nil {
		return existing, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	enrollment, err := s.repo.Enrollment().GetByIDWithCourses(ctx, nil, enrollmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	if len(enrollment.Courses) == 0 {
		return nil, ErrCoursesIncomplete
	}
	for _, course := range enrollment.Courses {
		if course.State != models.CoursePassed {
			return nil, ErrCoursesIncomplete
		}
	}

	cert := &models.Certificate{
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		SchoolID:     enrollment.SchoolID,
		IssuedAt:     time.Now(),
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Certificate().Create(ctx, nil, cert)
	})
	if err != nil {
		// A concurrent Issue may have won the unique-index race; re-read
		// before reporting failure.
		if winner, readErr := s.repo.Certificate().GetByEnrollment(ctx, nil, enrollmentID); readErr == nil {
			return winner, nil
		}
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	s.logger.Info("certificate issued",
		"certificate_id", cert.ID,
		"enrollment_id", enrollment.ID,
		"student_id", enrollment.StudentID)

	s.publishEvent(ctx, events.TopicCertificateIssued, events.NewEvent(events.TopicCertificateIssued, events.CertificateIssuedEvent{
		CertificateID:    cert.ID,
		EnrollmentID:     cert.EnrollmentID,
		StudentID:        cert.StudentID,
		SchoolID:         cert.SchoolID,
		VerificationCode: cert.VerificationCode,
		IssuedAt:         cert.IssuedAt,
	}))

	if s.notifications != nil {
		message := fmt.Sprintf("Your driving certificate is ready. Verification code: %s", cert.VerificationCode)
		if err := s.notifications.Notify(ctx, cert.StudentID, models.NotificationCertificateIssued, "Certificate issued", message); err != nil {
			s.logger.Error("failed to notify student", "certificate_id", cert.ID, "error", err)
		}
	}

	return cert, nil
}

func (s *certificateService) GetByStudent(ctx context.Context, studentID string) ([]*models.Certificate, error) {
	return s.repo.Certificate().GetByStudent(ctx, nil, studentID)
}

// ReconcileMissing issues certificates for completed enrollments that are
// still missing one. Completion and issuance live in separate transactions,
// so an issuance failure after the final course commits leaves a gap this
// closes on the next pass.
func (s *certificateService) ReconcileMissing(ctx context.Context) (int, error) {
	status := models.EnrollmentCompleted
	enrollments, _, err := s.repo.Enrollment().List(ctx, nil, repositories.EnrollmentFilters{Status: &status})
	if err != nil {
		return 0, fmt.Errorf("failed to list completed enrollments: %w", err)
	}

	issued := 0
	for _, enrollment := range enrollments {
		_, err := s.repo.Certificate().GetByEnrollment(ctx, nil, enrollment.ID)
		if err == nil {
			continue
		}
		if !repositories.IsNotFoundError(err) {
			return issued, fmt.Errorf("failed to look up certificate: %w", err)
		}
		if _, err := s.Issue(ctx, enrollment.ID); err != nil {
			s.logger.Error("certificate reconcile failed",
				"enrollment_id", enrollment.ID, "error", err)
			continue
		}
		issued++
	}
	return issued, nil
}

// CertificateReconciler re-runs ReconcileMissing on a fixed interval until
// ctx is done.
type CertificateReconciler struct {
	certificates CertificateService
	interval     time.Duration
	logger       *slog.Logger
}

func NewCertificateReconciler(certificates CertificateService, interval time.Duration, logger *slog.Logger) *CertificateReconciler {
	return &CertificateReconciler{
		certificates: certificates,
		interval:     interval,
		logger:       logger,
	}
}

func (w *CertificateReconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if issued, err := w.certificates.ReconcileMissing(ctx); err != nil {
				w.logger.Error("certificate reconcile sweep failed", "error", err)
			} else if issued > 0 {
				w.logger.Info("certificates issued by reconcile sweep", "count", issued)
			}
		}
	}
}

// Verify resolves a public verification code. Unknown codes are a negative
// answer, not an error.
func (s *certificateService) Verify(ctx context.Context, verificationCode string) (*VerifyResponse, error) {
	cert, err := s.repo.Certificate().GetByVerificationCode(ctx, nil, verificationCode)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &VerifyResponse{Valid: false}, nil
		}
		return nil, fmt.Errorf("failed to look up certificate: %w", err)
	}

	resp := &VerifyResponse{
		Valid:     true,
		IssueDate: cert.IssuedAt.Format("2006-01-02"),
	}

	if holder, err := s.repo.User().GetByID(ctx, nil, cert.StudentID); err == nil {
		resp.HolderName = holder.FullName()
	} else {
		s.logger.Warn("certificate holder lookup failed", "certificate_id", cert.ID, "error", err)
	}
	if school, err := s.repo.School().GetByID(ctx, nil, cert.SchoolID); err == nil {
		resp.SchoolName = school.Name
	} else {
		s.logger.Warn("certificate school lookup failed", "certificate_id", cert.ID, "error", err)
	}

	return resp, nil
}

func (s *certificateService) publishEvent(ctx context.Context, topic string, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, topic, event); err != nil {
		s.logger.Error("failed to publish event", "topic", topic, "error", err)
	}
}
