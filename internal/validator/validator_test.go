package validator

import (
	"testing"
	"time"

	"github.com/permis-dz/lifecycle-service/internal/models"
)

type stateProbe struct {
	State string `validate:"required,algerian_state"`
}

type courseProbe struct {
	CourseType models.CourseType `validate:"required,course_type"`
}

type dateProbe struct {
	At time.Time `validate:"required,future_date"`
}

type scoreProbe struct {
	Score int `validate:"passing_score"`
}

func TestAlgerianStateRule(t *testing.T) {
	v := New()

	if errs := v.Validate(stateProbe{State: "Alger"}); errs.HasErrors() {
		t.Errorf("valid wilaya rejected: %v", errs)
	}
	if errs := v.Validate(stateProbe{State: "Gotham"}); !errs.HasErrors() {
		t.Error("unknown wilaya accepted")
	}
}

func TestCourseTypeRule(t *testing.T) {
	v := New()

	for _, courseType := range models.CourseTypes {
		if errs := v.Validate(courseProbe{CourseType: courseType}); errs.HasErrors() {
			t.Errorf("valid course type %s rejected: %v", courseType, errs)
		}
	}
	if errs := v.Validate(courseProbe{CourseType: "piloting"}); !errs.HasErrors() {
		t.Error("unknown course type accepted")
	}
}

func TestFutureDateRule(t *testing.T) {
	v := New()

	if errs := v.Validate(dateProbe{At: time.Now().Add(time.Hour)}); errs.HasErrors() {
		t.Errorf("future date rejected: %v", errs)
	}
	if errs := v.Validate(dateProbe{At: time.Now().Add(-time.Hour)}); !errs.HasErrors() {
		t.Error("past date accepted")
	}
}

func TestPassingScoreRule(t *testing.T) {
	v := New()

	for _, score := range []int{0, 70, 100} {
		if errs := v.Validate(scoreProbe{Score: score}); errs.HasErrors() {
			t.Errorf("valid score %d rejected: %v", score, errs)
		}
	}
	if errs := v.Validate(scoreProbe{Score: 101}); !errs.HasErrors() {
		t.Error("score above 100 accepted")
	}
}

func TestValidationErrorFieldNames(t *testing.T) {
	v := New()

	type payload struct {
		FirstName string `validate:"required"`
	}
	errs := v.Validate(payload{})
	if !errs.HasErrors() {
		t.Fatal("expected a validation error")
	}
	if errs[0].Field != "first_name" {
		t.Errorf("expected snake_case field name, got %q", errs[0].Field)
	}
}
