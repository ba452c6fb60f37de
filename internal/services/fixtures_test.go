package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/permis-dz/lifecycle-service/internal/events"
	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/validator"
)

// testEnv bundles the in-memory repository with the shared service
// dependencies so each test builds only the service under test.
type testEnv struct {
	repo      *mockRepository
	publisher *events.MockEventPublisher
	validator *validator.Validator
	logger    *slog.Logger
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &testEnv{
		repo:      newMockRepository(),
		publisher: events.NewMockEventPublisher(logger),
		validator: validator.New(),
		logger:    logger,
	}
}

func (e *testEnv) identityService() IdentityService {
	return NewIdentityService(e.repo, nil, e.logger, e.validator)
}

func (e *testEnv) catalogService() CatalogService {
	return NewCatalogService(e.repo, nil, e.logger, e.validator)
}

func (e *testEnv) notificationService() NotificationService {
	return NewNotificationService(e.repo, nil, e.logger)
}

func (e *testEnv) certificateService() CertificateService {
	return NewCertificateService(e.repo, nil, e.logger, e.publisher, e.notificationService())
}

func (e *testEnv) enrollmentService() EnrollmentService {
	return NewEnrollmentService(e.repo, nil, e.logger, e.validator, e.publisher, e.certificateService(), DefaultEnrollmentConfig())
}

func (e *testEnv) schedulingService() SchedulingService {
	return NewSchedulingService(e.repo, nil, e.logger, e.validator, e.publisher, e.enrollmentService(), DefaultSchedulingConfig())
}

func (e *testEnv) assessmentService() AssessmentService {
	return NewAssessmentService(e.repo, nil, e.logger, e.validator)
}

func (e *testEnv) eventsOfType(eventType string) []*events.Event {
	var out []*events.Event
	for _, event := range e.publisher.GetPublishedEvents() {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// ===== SEED HELPERS =====

func (e *testEnv) seedUser(t *testing.T, role models.UserRole, gender models.Gender) *models.User {
	t.Helper()
	user := &models.User{
		ID:        uuid.NewString(),
		Email:     uuid.NewString() + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Gender:    gender,
		State:     "Alger",
		Role:      role,
		IsActive:  true,
	}
	e.repo.users[user.ID] = user
	return user
}

func (e *testEnv) seedSchool(t *testing.T, managerID string) *models.DrivingSchool {
	t.Helper()
	school := &models.DrivingSchool{
		ID:        uuid.NewString(),
		ManagerID: managerID,
		Name:      "Auto École Test",
		Address:   "1 Rue Didouche Mourad",
		State:     "Alger",
		Phone:     "021000000",
		Price:     45000,
	}
	e.repo.schools[school.ID] = school
	return school
}

func (e *testEnv) seedTeacher(t *testing.T, schoolID string, canMale, canFemale bool) *models.Teacher {
	t.Helper()
	user := e.seedUser(t, models.RoleTeacher, models.GenderMale)
	teacher := &models.Teacher{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		SchoolID:       schoolID,
		CanTeachMale:   canMale,
		CanTeachFemale: canFemale,
		IsActive:       true,
	}
	e.repo.teachers[teacher.ID] = teacher
	return teacher
}

func (e *testEnv) seedExpert(t *testing.T, specs []models.CourseType, states []string, approved bool) *models.ExternalExpert {
	t.Helper()
	user := e.seedUser(t, models.RoleExternalExpert, models.GenderMale)
	expert := &models.ExternalExpert{
		ID:                  uuid.NewString(),
		UserID:              user.ID,
		CertificationNumber: uuid.NewString(),
		YearsOfExperience:   5,
		Approved:            approved,
	}
	if err := expert.SetSpecializations(specs); err != nil {
		t.Fatalf("failed to set specializations: %v", err)
	}
	if err := expert.SetCoverageStates(states); err != nil {
		t.Fatalf("failed to set coverage states: %v", err)
	}
	e.repo.experts[expert.ID] = expert
	return expert
}

// seedActiveEnrollment creates a paid enrollment with theory open and the
// remaining courses locked, the state right after a completed payment.
func (e *testEnv) seedActiveEnrollment(t *testing.T, studentID, schoolID string) (*models.Enrollment, map[models.CourseType]*models.CourseProgress) {
	t.Helper()
	now := time.Now().UTC()
	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		StudentID: studentID,
		SchoolID:  schoolID,
		Status:    models.EnrollmentActive,
		AmountDue: 45000,
		PaidAt:    &now,
	}
	e.repo.enrollments[enrollment.ID] = enrollment

	courses := make(map[models.CourseType]*models.CourseProgress, len(models.CourseTypes))
	for _, courseType := range models.CourseTypes {
		state := models.CourseNotStarted
		if courseType == models.CourseTheory {
			state = models.CourseInProgress
		}
		course := &models.CourseProgress{
			ID:           uuid.NewString(),
			EnrollmentID: enrollment.ID,
			CourseType:   courseType,
			State:        state,
		}
		e.repo.courses[course.ID] = course
		courses[courseType] = course
	}
	return enrollment, courses
}

func (e *testEnv) seedQuiz(t *testing.T, schoolID, createdBy string, active bool) *models.Quiz {
	t.Helper()
	quiz := &models.Quiz{
		ID:           uuid.NewString(),
		SchoolID:     schoolID,
		CreatedBy:    createdBy,
		CourseType:   models.CourseTheory,
		Title:        "Priorité à droite",
		Difficulty:   models.DifficultyEasy,
		PassingScore: 70,
		IsActive:     active,
	}
	if err := quiz.SetQuestions([]models.QuizQuestion{
		{Question: "Que signifie un feu orange fixe?", Options: []string{"Accélérer", "S'arrêter si possible", "Klaxonner"}, CorrectAnswer: 1},
		{Question: "Vitesse maximale en agglomération?", Options: []string{"50 km/h", "80 km/h"}, CorrectAnswer: 0},
	}); err != nil {
		t.Fatalf("failed to set questions: %v", err)
	}
	e.repo.quizzes[quiz.ID] = quiz
	return quiz
}
