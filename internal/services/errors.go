package services

import (
	"errors"
	"fmt"

	"github.com/permis-dz/lifecycle-service/internal/validator"
)

// ValidationErrors re-exports the validator type so handlers can match on it.
type ValidationErrors = validator.ValidationErrors

// ===== NOT FOUND =====

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrSchoolNotFound       = errors.New("driving school not found")
	ErrTeacherNotFound      = errors.New("teacher not found")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrCourseNotFound       = errors.New("course progress not found")
	ErrSessionNotFound      = errors.New("session not found")
	ErrExamNotFound         = errors.New("exam not found")
	ErrExpertNotFound       = errors.New("external expert not found")
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrAttemptNotFound      = errors.New("quiz attempt not found")
	ErrCertificateNotFound  = errors.New("certificate not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// ===== CONFLICT =====

var (
	ErrEmailTaken             = errors.New("email already registered")
	ErrSchoolAlreadyManaged   = errors.New("manager already owns a driving school")
	ErrDuplicateEnrollment    = errors.New("active enrollment already exists for this school")
	ErrEnrollmentNotPayable   = errors.New("enrollment is not awaiting payment")
	ErrSlotConflict           = errors.New("time slot conflicts with an existing booking")
	ErrInvalidCourseState     = errors.New("course state does not allow this transition")
	ErrExamNotConfirmable     = errors.New("exam is not awaiting confirmation")
	ErrExamNotModifiable      = errors.New("exam can no longer be modified")
	ErrSessionNotModifiable   = errors.New("session can no longer be modified")
	ErrReviewAlreadySubmitted = errors.New("enrollment already has a review")
	ErrExpertAlreadyExists    = errors.New("expert profile already registered")
	ErrRetriesExhausted       = errors.New("maximum retries exceeded for this course")
)

// ===== NOT ELIGIBLE =====

var (
	ErrEnrollmentNotActive   = errors.New("enrollment is not active")
	ErrCourseNotInProgress   = errors.New("course is not in progress")
	ErrCourseNotAwaitingExam = errors.New("course is not awaiting an exam")
	ErrGenderNotAccepted     = errors.New("teacher does not accept students of this gender")
	ErrExpertNotApproved     = errors.New("external expert is not approved")
	ErrNoExpertAvailable     = errors.New("no compatible examiner is available")
	ErrCoursesIncomplete     = errors.New("not all courses are passed")
	ErrQuizInactive          = errors.New("quiz is not active")
	ErrSlotInPast            = errors.New("requested time is in the past")
)

// PermissionError carries who tried what on which resource.
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// BusinessRuleError reports a domain rule violation that is neither a missing
// record nor a permission problem.
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	for _, target := range []error{
		ErrUserNotFound, ErrSchoolNotFound, ErrTeacherNotFound, ErrEnrollmentNotFound,
		ErrCourseNotFound, ErrSessionNotFound, ErrExamNotFound, ErrExpertNotFound,
		ErrQuizNotFound, ErrAttemptNotFound, ErrCertificateNotFound, ErrNotificationNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict reports whether err belongs to the conflict family.
func IsConflict(err error) bool {
	for _, target := range []error{
		ErrEmailTaken, ErrSchoolAlreadyManaged, ErrDuplicateEnrollment, ErrEnrollmentNotPayable,
		ErrSlotConflict, ErrInvalidCourseState, ErrExamNotConfirmable, ErrExamNotModifiable, ErrSessionNotModifiable,
		ErrReviewAlreadySubmitted, ErrExpertAlreadyExists, ErrRetriesExhausted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotEligible reports whether err belongs to the not-eligible family.
func IsNotEligible(err error) bool {
	for _, target := range []error{
		ErrEnrollmentNotActive, ErrCourseNotInProgress, ErrCourseNotAwaitingExam,
		ErrGenderNotAccepted, ErrExpertNotApproved, ErrNoExpertAvailable,
		ErrCoursesIncomplete, ErrQuizInactive, ErrSlotInPast,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
