package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/events"
	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/validator"
	"gorm.io/gorm"
)

// SchedulingConfig tunes slot allocation and exam thresholds.
type SchedulingConfig struct {
	// MaxScheduleRetries bounds how many times a booking transaction is
	// retried when it loses the calendar lock race.
	MaxScheduleRetries int

	// RequiredSessions is the per-course number of completed sessions before
	// the course moves to awaiting_exam. Missing types fall back to
	// DefaultRequiredSessions.
	RequiredSessions        map[models.CourseType]int
	DefaultRequiredSessions int

	// PassingScores is the per-exam-type passing threshold. Missing types fall
	// back to DefaultPassingScore.
	PassingScores       map[models.CourseType]float64
	DefaultPassingScore float64

	ExamDurationMinutes int
}

func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		MaxScheduleRetries: 3,
		RequiredSessions: map[models.CourseType]int{
			models.CourseTheory: 5,
			models.CoursePark:   10,
			models.CourseRoad:   15,
		},
		DefaultRequiredSessions: 10,
		PassingScores:           map[models.CourseType]float64{},
		DefaultPassingScore:     70,
		ExamDurationMinutes:     60,
	}
}

func (c SchedulingConfig) requiredSessions(ct models.CourseType) int {
	if n, ok := c.RequiredSessions[ct]; ok {
		return n
	}
	return c.DefaultRequiredSessions
}

func (c SchedulingConfig) passingScore(ct models.CourseType) float64 {
	if s, ok := c.PassingScores[ct]; ok {
		return s
	}
	return c.DefaultPassingScore
}

type schedulingService struct {
	repo           repositories.Repository
	db             *gorm.DB
	logger         *slog.Logger
	validator      *validator.Validator
	eventPublisher events.EventPublisher
	enrollments    EnrollmentService
	config         SchedulingConfig
}

func NewSchedulingService(
	repo repositories.Repository,
	db *gorm.DB,
	logger *slog.Logger,
	validator *validator.Validator,
	eventPublisher events.EventPublisher,
	enrollments EnrollmentService,
	config SchedulingConfig,
) SchedulingService {
	return &schedulingService{
		repo:           repo,
		db:             db,
		logger:         logger,
		validator:      validator,
		eventPublisher: eventPublisher,
		enrollments:    enrollments,
		config:         config,
	}
}

// ===== SESSIONS =====

// ScheduleSession books a practical lesson slot. The write is conditional: the
// teacher's calendar row is locked, the overlap check re-runs inside the
// transaction, and only then is the session inserted. Losing the race to a
// concurrent booking surfaces as a slot conflict, never a double booking.
func (s *schedulingService) ScheduleSession(ctx context.Context, req *ScheduleSessionRequest, studentID string) (*models.Session, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}
	if !req.ScheduledAt.After(time.Now()) {
		return nil, ErrSlotInPast
	}

	course, enrollment, err := s.loadActiveCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if enrollment.StudentID != studentID {
		return nil, NewPermissionError(studentID, "session", "schedule", "course belongs to another student")
	}
	if course.State != models.CourseInProgress {
		return nil, ErrCourseNotInProgress
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if !models.HasCapability(student.Role, models.ActionScheduleSession) {
		return nil, NewPermissionError(studentID, "session", "schedule", "role cannot schedule sessions")
	}

	teacher, err := s.repo.Teacher().GetByID(ctx, nil, req.TeacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTeacherNotFound
		}
		return nil, fmt.Errorf("failed to load teacher: %w", err)
	}
	if !teacher.IsActive {
		return nil, ErrTeacherNotFound
	}
	if teacher.SchoolID != enrollment.SchoolID {
		return nil, NewBusinessRuleError("teacher_school", "teacher belongs to another school")
	}
	// Gender eligibility is a hard constraint, checked before any booking.
	if !teacher.CanTeach(student.Gender) {
		return nil, ErrGenderNotAccepted
	}

	session := &models.Session{
		CourseID:        course.ID,
		EnrollmentID:    enrollment.ID,
		StudentID:       studentID,
		TeacherID:       req.TeacherID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Status:          models.SessionScheduled,
	}

	end := req.ScheduledAt.Add(time.Duration(req.DurationMinutes) * time.Minute)
	err = s.bookSlot(ctx, req.TeacherID, req.ScheduledAt, end, func(txRepo repositories.Repository) error {
		return txRepo.Session().Create(ctx, nil, session)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicSessionScheduled, events.NewEvent(events.TopicSessionScheduled, events.SessionScheduledEvent{
		SessionID:    session.ID,
		EnrollmentID: enrollment.ID,
		StudentID:    studentID,
		TeacherID:    req.TeacherID,
		CourseType:   string(course.CourseType),
		ScheduledAt:  session.ScheduledAt,
	}))

	s.logger.Info("session scheduled",
		"session_id", session.ID,
		"teacher_id", req.TeacherID,
		"scheduled_at", session.ScheduledAt)
	return session, nil
}

// CompleteSession marks a lesson done and advances the course to awaiting_exam
// once the required session count is reached.
func (s *schedulingService) CompleteSession(ctx context.Context, sessionID, teacherID string) (*models.Session, error) {
	var session *models.Session

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		session, err = txRepo.Session().GetByID(ctx, nil, sessionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to load session: %w", err)
		}

		if session.Status != models.SessionScheduled {
			return ErrSessionNotModifiable
		}
		if err := s.checkSessionCompleter(ctx, txRepo, session, teacherID); err != nil {
			return err
		}

		now := time.Now().UTC()
		session.Status = models.SessionCompleted
		session.CompletedAt = &now
		if err := txRepo.Session().Update(ctx, nil, session); err != nil {
			return fmt.Errorf("failed to complete session: %w", err)
		}

		course, err := txRepo.CourseProgress().GetByID(ctx, nil, session.CourseID)
		if err != nil {
			return fmt.Errorf("failed to load course progress: %w", err)
		}
		course.CompletedSessions++
		if course.State == models.CourseInProgress && course.CompletedSessions >= s.config.requiredSessions(course.CourseType) {
			course.State = models.CourseAwaitingExam
		}
		if err := txRepo.CourseProgress().Update(ctx, nil, course); err != nil {
			return fmt.Errorf("failed to update course progress: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

func (s *schedulingService) CancelSession(ctx context.Context, sessionID, userID string) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		session, err := txRepo.Session().GetByID(ctx, nil, sessionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to load session: %w", err)
		}

		if session.Status != models.SessionScheduled {
			return ErrSessionNotModifiable
		}
		// Cancellation only before start; after start the slot is consumed
		// and the no-show sweep takes over.
		if !time.Now().Before(session.ScheduledAt) {
			return ErrSessionNotModifiable
		}
		isParticipant := session.StudentID == userID
		if !isParticipant {
			teacher, err := txRepo.Teacher().GetByUserID(ctx, nil, userID)
			if err != nil && !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to load teacher profile: %w", err)
			}
			isParticipant = err == nil && teacher.ID == session.TeacherID
		}
		if !isParticipant {
			return NewPermissionError(userID, "session", "cancel", "not a participant")
		}

		session.Status = models.SessionCancelled
		if err := txRepo.Session().Update(ctx, nil, session); err != nil {
			return fmt.Errorf("failed to cancel session: %w", err)
		}

		s.logger.Info("session cancelled", "session_id", sessionID, "user_id", userID)
		return nil
	})
}

func (s *schedulingService) ListSessions(ctx context.Context, filters repositories.SessionFilters) (*SessionListResponse, error) {
	sessions, total, err := s.repo.Session().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return &SessionListResponse{
		Sessions: sessions,
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

// ===== EXAMS =====

// ScheduleExam requests a certifying exam and matches an examiner. Matching
// prefers the earliest compatible preferred date; ties on the same date go to
// the expert with the lowest scheduled load.
func (s *schedulingService) ScheduleExam(ctx context.Context, req *ScheduleExamRequest, studentID string) (*models.Exam, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	course, enrollment, err := s.loadActiveCourse(ctx, req.CourseID)
	if err != nil {
		return nil, err
	}
	if enrollment.StudentID != studentID {
		return nil, NewPermissionError(studentID, "exam", "schedule", "course belongs to another student")
	}
	if course.State != models.CourseAwaitingExam {
		return nil, ErrCourseNotAwaitingExam
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if !models.HasCapability(student.Role, models.ActionScheduleExam) {
		return nil, NewPermissionError(studentID, "exam", "schedule", "role cannot schedule exams")
	}

	match, err := s.matchExaminer(ctx, course.CourseType, student.State, req.PreferredDates)
	if err != nil {
		return nil, err
	}

	exam := &models.Exam{
		CourseID:        course.ID,
		EnrollmentID:    enrollment.ID,
		StudentID:       studentID,
		ExaminerID:      match.examinerID,
		ExamType:        course.CourseType,
		Location:        req.Location,
		ScheduledAt:     &match.date,
		DurationMinutes: s.config.ExamDurationMinutes,
		Status:          models.ExamRequested,
	}
	if err := exam.SetPreferredDates(req.PreferredDates); err != nil {
		return nil, fmt.Errorf("failed to encode preferred dates: %w", err)
	}

	if err := s.repo.Exam().Create(ctx, nil, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.publishEvent(ctx, events.TopicExamRequested, events.NewEvent(events.TopicExamRequested, events.ExamRequestedEvent{
		ExamID:       exam.ID,
		EnrollmentID: enrollment.ID,
		StudentID:    studentID,
		ExamType:     string(course.CourseType),
		State:        student.State,
	}))

	s.logger.Info("exam requested",
		"exam_id", exam.ID,
		"examiner_id", match.examinerID,
		"proposed_at", match.date)
	return exam, nil
}

// ConfirmExam locks the confirmed slot on the examiner's calendar and moves
// the exam from requested to scheduled.
func (s *schedulingService) ConfirmExam(ctx context.Context, examID string, req *ConfirmExamRequest, userID string) (*models.Exam, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to load exam: %w", err)
	}
	if exam.Status != models.ExamRequested {
		return nil, ErrExamNotConfirmable
	}
	if err := s.checkExamConfirmer(ctx, exam, userID); err != nil {
		return nil, err
	}

	end := req.ScheduledAt.Add(time.Duration(exam.DurationMinutes) * time.Minute)
	err = s.bookSlot(ctx, exam.ExaminerID, req.ScheduledAt, end, func(txRepo repositories.Repository) error {
		// Re-read under the calendar lock so a double confirm loses cleanly.
		locked, err := txRepo.Exam().GetByID(ctx, nil, examID)
		if err != nil {
			return fmt.Errorf("failed to reload exam: %w", err)
		}
		if locked.Status != models.ExamRequested {
			return ErrExamNotConfirmable
		}

		now := time.Now().UTC()
		locked.Status = models.ExamScheduled
		locked.ScheduledAt = &req.ScheduledAt
		locked.ConfirmedAt = &now
		if err := txRepo.Exam().Update(ctx, nil, locked); err != nil {
			return fmt.Errorf("failed to confirm exam: %w", err)
		}
		exam = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicExamScheduled, events.NewEvent(events.TopicExamScheduled, events.ExamScheduledEvent{
		ExamID:      exam.ID,
		StudentID:   exam.StudentID,
		ExaminerID:  exam.ExaminerID,
		ExamType:    string(exam.ExamType),
		ScheduledAt: *exam.ScheduledAt,
	}))

	s.logger.Info("exam confirmed", "exam_id", examID, "scheduled_at", req.ScheduledAt)
	return exam, nil
}

// CompleteExam records the score and feeds the outcome into the enrollment
// ledger. The completed exam commits first; a failure while recording the
// outcome leaves the exam durable and is reported to the caller.
func (s *schedulingService) CompleteExam(ctx context.Context, examID string, req *CompleteExamRequest, examinerID string) (*models.Exam, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	var exam *models.Exam
	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		var err error
		exam, err = txRepo.Exam().GetByID(ctx, nil, examID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("failed to load exam: %w", err)
		}

		if exam.Status != models.ExamScheduled {
			return ErrExamNotModifiable
		}
		if exam.ExaminerID != examinerID {
			return NewPermissionError(examinerID, "exam", "complete", "not the assigned examiner")
		}
		examiner, err := txRepo.User().GetByID(ctx, nil, examinerID)
		if err != nil {
			return fmt.Errorf("failed to load examiner: %w", err)
		}
		if !models.HasCapability(examiner.Role, models.ActionCompleteExam) {
			return NewPermissionError(examinerID, "exam", "complete", "role cannot record exam results")
		}

		now := time.Now().UTC()
		exam.Status = models.ExamCompleted
		exam.Score = &req.Score
		exam.CompletedAt = &now
		if err := txRepo.Exam().Update(ctx, nil, exam); err != nil {
			return fmt.Errorf("failed to complete exam: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	passed := req.Score >= s.config.passingScore(exam.ExamType)
	score := req.Score
	if _, err := s.enrollments.RecordCourseOutcome(ctx, exam.EnrollmentID, CourseOutcome{
		CourseType: exam.ExamType,
		Passed:     passed,
		ExamScore:  &score,
	}); err != nil {
		s.logger.Error("failed to record course outcome",
			"exam_id", examID, "enrollment_id", exam.EnrollmentID, "error", err)
		return nil, fmt.Errorf("exam recorded but outcome failed: %w", err)
	}

	s.logger.Info("exam completed", "exam_id", examID, "score", req.Score, "passed", passed)
	return exam, nil
}

func (s *schedulingService) CancelExam(ctx context.Context, examID, userID string) error {
	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		exam, err := txRepo.Exam().GetByID(ctx, nil, examID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExamNotFound
			}
			return fmt.Errorf("failed to load exam: %w", err)
		}

		if exam.Status != models.ExamRequested && exam.Status != models.ExamScheduled {
			return ErrExamNotModifiable
		}
		if exam.ScheduledAt != nil && !time.Now().Before(*exam.ScheduledAt) {
			return ErrSessionNotModifiable
		}
		if exam.StudentID != userID && exam.ExaminerID != userID {
			return NewPermissionError(userID, "exam", "cancel", "not a participant")
		}

		exam.Status = models.ExamCancelled
		if err := txRepo.Exam().Update(ctx, nil, exam); err != nil {
			return fmt.Errorf("failed to cancel exam: %w", err)
		}

		s.logger.Info("exam cancelled", "exam_id", examID, "user_id", userID)
		return nil
	})
}

func (s *schedulingService) ListExams(ctx context.Context, filters repositories.ExamFilters) (*ExamListResponse, error) {
	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list exams: %w", err)
	}
	return &ExamListResponse{
		Exams:  exams,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	}, nil
}

func (s *schedulingService) publishEvent(ctx context.Context, topic string, event *events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, topic, event); err != nil {
		s.logger.Error("failed to publish event", "topic", topic, "error", err)
	}
}
