package services

import (
	"context"
	"errors"
	"testing"

	"github.com/permis-dz/lifecycle-service/internal/models"
)

func TestCreateSchoolOnePerManager(t *testing.T) {
	env := newTestEnv()
	svc := env.catalogService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)

	req := &CreateSchoolRequest{
		Name:    "Auto École El Djazair",
		Address: "12 Rue Larbi Ben M'hidi",
		State:   "Alger",
		Phone:   "021123456",
		Price:   52000,
	}
	school, err := svc.CreateSchool(ctx, req, manager.ID)
	if err != nil {
		t.Fatalf("CreateSchool failed: %v", err)
	}
	if school.ManagerID != manager.ID {
		t.Errorf("expected manager %s, got %s", manager.ID, school.ManagerID)
	}

	if _, err := svc.CreateSchool(ctx, req, manager.ID); !errors.Is(err, ErrSchoolAlreadyManaged) {
		t.Errorf("expected ErrSchoolAlreadyManaged, got %v", err)
	}
}

func TestAddTeacherPromotesUser(t *testing.T) {
	env := newTestEnv()
	svc := env.catalogService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	recruit := env.seedUser(t, models.RoleGuest, models.GenderFemale)

	teacher, err := svc.AddTeacher(ctx, school.ID, &AddTeacherRequest{
		UserID:         recruit.ID,
		CanTeachMale:   false,
		CanTeachFemale: true,
	}, manager.ID)
	if err != nil {
		t.Fatalf("AddTeacher failed: %v", err)
	}

	if teacher.SchoolID != school.ID {
		t.Errorf("expected school %s, got %s", school.ID, teacher.SchoolID)
	}
	if teacher.CanTeachMale || !teacher.CanTeachFemale {
		t.Error("gender eligibility flags were not applied")
	}

	reloaded, err := env.repo.User().GetByID(ctx, nil, recruit.ID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if reloaded.Role != models.RoleTeacher {
		t.Errorf("expected role %s, got %s", models.RoleTeacher, reloaded.Role)
	}
}

func TestAddTeacherRejectsForeignManager(t *testing.T) {
	env := newTestEnv()
	svc := env.catalogService()
	ctx := context.Background()

	owner := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, owner.ID)
	rival := env.seedUser(t, models.RoleManager, models.GenderMale)
	env.seedSchool(t, rival.ID)
	recruit := env.seedUser(t, models.RoleGuest, models.GenderMale)

	_, err := svc.AddTeacher(ctx, school.ID, &AddTeacherRequest{UserID: recruit.ID, CanTeachMale: true}, rival.ID)
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Errorf("expected PermissionError, got %v", err)
	}
}

func TestSubmitReviewUpdatesSchoolRating(t *testing.T) {
	env := newTestEnv()
	svc := env.catalogService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)

	first := env.seedUser(t, models.RoleStudent, models.GenderMale)
	firstEnrollment, _ := env.seedActiveEnrollment(t, first.ID, school.ID)
	second := env.seedUser(t, models.RoleStudent, models.GenderFemale)
	secondEnrollment, _ := env.seedActiveEnrollment(t, second.ID, school.ID)

	if _, err := svc.SubmitReview(ctx, &SubmitReviewRequest{EnrollmentID: firstEnrollment.ID, Rating: 5}, first.ID); err != nil {
		t.Fatalf("first SubmitReview failed: %v", err)
	}
	if _, err := svc.SubmitReview(ctx, &SubmitReviewRequest{EnrollmentID: secondEnrollment.ID, Rating: 3}, second.ID); err != nil {
		t.Fatalf("second SubmitReview failed: %v", err)
	}

	reloaded, err := env.repo.School().GetByID(ctx, nil, school.ID)
	if err != nil {
		t.Fatalf("failed to reload school: %v", err)
	}
	if reloaded.Rating != 4 {
		t.Errorf("expected rating 4, got %.2f", reloaded.Rating)
	}
	if reloaded.TotalReviews != 2 {
		t.Errorf("expected 2 reviews, got %d", reloaded.TotalReviews)
	}
}

func TestSubmitReviewOncePerEnrollment(t *testing.T) {
	env := newTestEnv()
	svc := env.catalogService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	student := env.seedUser(t, models.RoleStudent, models.GenderMale)
	enrollment, _ := env.seedActiveEnrollment(t, student.ID, school.ID)

	if _, err := svc.SubmitReview(ctx, &SubmitReviewRequest{EnrollmentID: enrollment.ID, Rating: 4}, student.ID); err != nil {
		t.Fatalf("SubmitReview failed: %v", err)
	}
	if _, err := svc.SubmitReview(ctx, &SubmitReviewRequest{EnrollmentID: enrollment.ID, Rating: 1}, student.ID); !errors.Is(err, ErrReviewAlreadySubmitted) {
		t.Errorf("expected ErrReviewAlreadySubmitted, got %v", err)
	}
}

func TestSubmitReviewRequiresPaidEnrollment(t *testing.T) {
	env := newTestEnv()
	svc := env.catalogService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	student := env.seedUser(t, models.RoleStudent, models.GenderMale)
	enrollment, _ := env.seedActiveEnrollment(t, student.ID, school.ID)
	enrollment.Status = models.EnrollmentPendingPayment

	_, err := svc.SubmitReview(ctx, &SubmitReviewRequest{EnrollmentID: enrollment.ID, Rating: 5}, student.ID)
	if !errors.Is(err, ErrEnrollmentNotActive) {
		t.Errorf("expected ErrEnrollmentNotActive, got %v", err)
	}
}

func TestGetSchoolStatsCountsEnrollments(t *testing.T) {
	env := newTestEnv()
	svc := env.catalogService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	env.seedTeacher(t, school.ID, true, true)
	env.seedTeacher(t, school.ID, true, false)

	active := env.seedUser(t, models.RoleStudent, models.GenderMale)
	env.seedActiveEnrollment(t, active.ID, school.ID)

	graduate := env.seedUser(t, models.RoleStudent, models.GenderFemale)
	graduated, _ := env.seedActiveEnrollment(t, graduate.ID, school.ID)
	graduated.Status = models.EnrollmentCompleted

	pending := env.seedUser(t, models.RoleStudent, models.GenderMale)
	unpaid, _ := env.seedActiveEnrollment(t, pending.ID, school.ID)
	unpaid.Status = models.EnrollmentPendingPayment

	stats, err := svc.GetSchoolStats(ctx, school.ID, manager.ID)
	if err != nil {
		t.Fatalf("GetSchoolStats failed: %v", err)
	}
	if stats.ActiveEnrollments != 1 {
		t.Errorf("expected 1 active enrollment, got %d", stats.ActiveEnrollments)
	}
	if stats.Graduates != 1 {
		t.Errorf("expected 1 graduate, got %d", stats.Graduates)
	}
	if stats.PendingEnrollments != 1 {
		t.Errorf("expected 1 pending enrollment, got %d", stats.PendingEnrollments)
	}
	if stats.TeacherCount != 2 {
		t.Errorf("expected 2 teachers, got %d", stats.TeacherCount)
	}
}

func TestGetSchoolStatsRejectsForeignManager(t *testing.T) {
	env := newTestEnv()
	svc := env.catalogService()
	ctx := context.Background()

	owner := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, owner.ID)
	other := env.seedUser(t, models.RoleManager, models.GenderFemale)

	var permErr *PermissionError
	if _, err := svc.GetSchoolStats(ctx, school.ID, other.ID); !errors.As(err, &permErr) {
		t.Errorf("expected PermissionError, got %v", err)
	}

	student := env.seedUser(t, models.RoleStudent, models.GenderMale)
	if _, err := svc.GetSchoolStats(ctx, school.ID, student.ID); !errors.As(err, &permErr) {
		t.Errorf("expected PermissionError for student, got %v", err)
	}
}
