package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
)

// loadActiveCourse resolves a course progress row together with its
// enrollment, rejecting inactive enrollments.
func (s *schedulingService) loadActiveCourse(ctx context.Context, courseID string) (*models.CourseProgress, *models.Enrollment, error) {
	course, err := s.repo.CourseProgress().GetByID(ctx, nil, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("failed to load course progress: %w", err)
	}

	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, course.EnrollmentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	if enrollment.Status != models.EnrollmentActive {
		return nil, nil, ErrEnrollmentNotActive
	}

	return course, enrollment, nil
}

// bookSlot runs write under the resource's calendar lock after re-checking
// that [start, end) is free across the resource's sessions and exams. The
// transaction is retried a bounded number of times on transient failures; a
// genuine overlap is returned immediately as ErrSlotConflict.
func (s *schedulingService) bookSlot(ctx context.Context, resourceID string, start, end time.Time, write func(repositories.Repository) error) error {
	var lastErr error

	for attempt := 0; attempt < s.config.MaxScheduleRetries; attempt++ {
		err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			if _, err := txRepo.Calendar().Lock(ctx, nil, resourceID); err != nil {
				return fmt.Errorf("failed to lock calendar: %w", err)
			}

			free, err := s.slotFree(ctx, txRepo, resourceID, start, end)
			if err != nil {
				return err
			}
			if !free {
				return ErrSlotConflict
			}

			if err := write(txRepo); err != nil {
				return err
			}

			return txRepo.Calendar().Touch(ctx, nil, resourceID)
		})
		if err == nil {
			return nil
		}
		if isDomainError(err) {
			return err
		}

		lastErr = err
		s.logger.Warn("booking transaction failed, retrying",
			"resource_id", resourceID, "attempt", attempt+1, "error", err)
	}

	return fmt.Errorf("booking failed after %d attempts: %w", s.config.MaxScheduleRetries, lastErr)
}

func (s *schedulingService) slotFree(ctx context.Context, txRepo repositories.Repository, resourceID string, start, end time.Time) (bool, error) {
	sessions, err := txRepo.Session().ListOverlapping(ctx, nil, resourceID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check session overlaps: %w", err)
	}
	if len(sessions) > 0 {
		return false, nil
	}

	exams, err := txRepo.Exam().ListOverlapping(ctx, nil, resourceID, start, end)
	if err != nil {
		return false, fmt.Errorf("failed to check exam overlaps: %w", err)
	}
	return len(exams) == 0, nil
}

// isDomainError distinguishes rule violations, which must not be retried, from
// transient transaction failures.
func isDomainError(err error) bool {
	var permErr *PermissionError
	var ruleErr *BusinessRuleError
	var valErrs ValidationErrors
	if errors.As(err, &permErr) || errors.As(err, &ruleErr) || errors.As(err, &valErrs) {
		return true
	}
	return IsNotFound(err) || IsConflict(err) || IsNotEligible(err)
}

// examinerMatch is the winning candidate of the matching pass.
type examinerMatch struct {
	examinerID string
	date       time.Time
}

// matchExaminer picks an approved expert whose specializations include the
// exam type and whose coverage includes the student's wilaya. Earliest
// preferred date with a free slot wins; on the same date the expert with the
// lowest scheduled-exam load is chosen.
func (s *schedulingService) matchExaminer(ctx context.Context, examType models.CourseType, state string, preferredDates []time.Time) (*examinerMatch, error) {
	experts, _, err := s.repo.Expert().List(ctx, nil, repositories.ExpertFilters{
		Specialization: &examType,
		State:          &state,
		ApprovedOnly:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list experts: %w", err)
	}
	if len(experts) == 0 {
		return nil, ErrNoExpertAvailable
	}

	duration := time.Duration(s.config.ExamDurationMinutes) * time.Minute
	dates := sortedDates(preferredDates)

	for _, date := range dates {
		if !date.After(time.Now()) {
			continue
		}
		end := date.Add(duration)

		var bestID string
		bestLoad := -1
		for _, expert := range experts {
			free, err := s.slotFree(ctx, s.repo, expert.UserID, date, end)
			if err != nil {
				return nil, err
			}
			if !free {
				continue
			}

			load, err := s.repo.Exam().CountScheduled(ctx, nil, expert.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to count examiner load: %w", err)
			}
			if bestLoad < 0 || load < bestLoad {
				bestID = expert.UserID
				bestLoad = load
			}
		}

		if bestID != "" {
			return &examinerMatch{examinerID: bestID, date: date}, nil
		}
	}

	return nil, ErrNoExpertAvailable
}

func sortedDates(dates []time.Time) []time.Time {
	out := make([]time.Time, len(dates))
	copy(out, dates)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Before(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// checkSessionCompleter admits the assigned teacher (by their user account)
// or the manager of the school the assigned teacher works for. Session rows
// carry the teacher record id, not the user id, so the caller is resolved to
// their teacher profile first.
func (s *schedulingService) checkSessionCompleter(ctx context.Context, txRepo repositories.Repository, session *models.Session, userID string) error {
	teacher, err := txRepo.Teacher().GetByUserID(ctx, nil, userID)
	if err == nil {
		if teacher.ID == session.TeacherID {
			return nil
		}
		return NewPermissionError(userID, "session", "complete", "not the assigned teacher")
	}
	if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("failed to load teacher profile: %w", err)
	}

	user, err := txRepo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !models.HasCapability(user.Role, models.ActionCompleteSession) {
		return NewPermissionError(userID, "session", "complete", "not the assigned teacher")
	}

	assigned, err := txRepo.Teacher().GetByID(ctx, nil, session.TeacherID)
	if err != nil {
		return fmt.Errorf("failed to load assigned teacher: %w", err)
	}
	school, err := txRepo.School().GetByID(ctx, nil, assigned.SchoolID)
	if err != nil {
		return fmt.Errorf("failed to load school: %w", err)
	}
	if school.ManagerID != userID {
		return NewPermissionError(userID, "session", "complete", "session belongs to another school")
	}
	return nil
}

func (s *schedulingService) checkExamConfirmer(ctx context.Context, exam *models.Exam, userID string) error {
	if exam.ExaminerID == userID {
		return nil
	}

	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !models.HasCapability(user.Role, models.ActionConfirmExam) {
		return NewPermissionError(userID, "exam", "confirm", "not the assigned examiner")
	}
	return nil
}

// ===== NO-SHOW SWEEP =====

const noShowSweepBatch = 100

// MarkOverdueNoShows flips sessions still marked scheduled whose start passed
// more than grace ago. Each row is swept in its own transaction with the
// status re-checked under lock, so the sweep never races a late completion.
func (s *schedulingService) MarkOverdueNoShows(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := time.Now().Add(-grace)

	stale, err := s.repo.Session().ListStartedBefore(ctx, nil, cutoff, noShowSweepBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue sessions: %w", err)
	}

	swept := 0
	for _, candidate := range stale {
		err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			session, err := txRepo.Session().GetByID(ctx, nil, candidate.ID)
			if err != nil {
				return err
			}
			if session.Status != models.SessionScheduled {
				return nil
			}

			session.Status = models.SessionNoShow
			return txRepo.Session().Update(ctx, nil, session)
		})
		if err != nil {
			s.logger.Error("no-show sweep failed for session", "session_id", candidate.ID, "error", err)
			continue
		}
		swept++
	}

	if swept > 0 {
		s.logger.Info("no-show sweep finished", "swept", swept)
	}
	return swept, nil
}

// NoShowSweeper runs MarkOverdueNoShows on a fixed interval until ctx is done.
type NoShowSweeper struct {
	scheduling SchedulingService
	interval   time.Duration
	grace      time.Duration
	logger     *slog.Logger
}

func NewNoShowSweeper(scheduling SchedulingService, interval, grace time.Duration, logger *slog.Logger) *NoShowSweeper {
	return &NoShowSweeper{
		scheduling: scheduling,
		interval:   interval,
		grace:      grace,
		logger:     logger,
	}
}

func (w *NoShowSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.scheduling.MarkOverdueNoShows(ctx, w.grace); err != nil {
				w.logger.Error("no-show sweep failed", "error", err)
			}
		}
	}
}
