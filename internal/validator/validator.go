package validator

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/permis-dz/lifecycle-service/internal/models"
)

// ValidationError describes a single failed rule on a request field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// ToValidationErrors converts go-playground field errors into our shape.
func ToValidationErrors(err error) ValidationErrors {
	var out ValidationErrors
	if err == nil {
		return out
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{
			Field:   "request",
			Message: err.Error(),
			Rule:    "invalid",
		}}
	}

	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   toSnakeCase(fe.Field()),
			Message: messageForTag(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "algerian_state":
		return "must be a valid wilaya"
	case "course_type":
		return "must be one of: theory, park, road"
	case "quiz_difficulty":
		return "must be one of: easy, medium, hard"
	case "future_date":
		return "must be in the future"
	case "passing_score":
		return "must be between 0 and 100"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validator wraps go-playground validation with the domain's custom rules.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerDomainRules()

	return v
}

// Validate runs struct-tag validation and returns nil when everything passes.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func (v *Validator) registerDomainRules() {
	v.validate.RegisterValidation("algerian_state", func(fl validator.FieldLevel) bool {
		return models.IsValidState(fl.Field().String())
	})

	v.validate.RegisterValidation("course_type", func(fl validator.FieldLevel) bool {
		ct := models.CourseType(fl.Field().String())
		for _, valid := range models.CourseTypes {
			if ct == valid {
				return true
			}
		}
		return false
	})

	v.validate.RegisterValidation("quiz_difficulty", func(fl validator.FieldLevel) bool {
		d := models.QuizDifficulty(fl.Field().String())
		return d == models.DifficultyEasy || d == models.DifficultyMedium || d == models.DifficultyHard
	})

	v.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr && field.IsNil() {
			return true
		}

		var t time.Time
		if field.Kind() == reflect.Ptr {
			t = field.Elem().Interface().(time.Time)
		} else {
			t = field.Interface().(time.Time)
		}

		return t.After(time.Now())
	})

	v.validate.RegisterValidation("passing_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Int()
		return score >= 0 && score <= 100
	})
}
