package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DrivingSchool struct {
	ID string `json:"id" gorm:"primaryKey;size:36"`

	// A school is owned by exactly one manager.
	ManagerID string `json:"manager_id" gorm:"uniqueIndex;not null;size:36"`

	Name        string  `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Address     string  `json:"address" gorm:"size:255" validate:"required"`
	State       string  `json:"state" gorm:"size:50;index" validate:"required"`
	Phone       string  `json:"phone" gorm:"size:30"`
	Email       string  `json:"email" gorm:"size:255" validate:"omitempty,email"`
	Description string  `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Price       float64 `json:"price" gorm:"not null" validate:"required,min=0"`

	// Rating is derived from reviews and recomputed on every new review.
	Rating       float64        `json:"rating" gorm:"default:0"`
	TotalReviews int            `json:"total_reviews" gorm:"default:0"`
	Photos       datatypes.JSON `json:"photos" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Manager  User      `json:"-" gorm:"foreignKey:ManagerID"`
	Teachers []Teacher `json:"teachers,omitempty" gorm:"foreignKey:SchoolID"`
}

func (DrivingSchool) TableName() string {
	return "driving_schools"
}

func (s *DrivingSchool) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Teacher is a manager-scoped capability record layered on a User with
// role=teacher. The gender flags are a hard scheduling constraint.
type Teacher struct {
	ID       string `json:"id" gorm:"primaryKey;size:36"`
	UserID   string `json:"user_id" gorm:"uniqueIndex;not null;size:36"`
	SchoolID string `json:"school_id" gorm:"not null;index;size:36"`

	CanTeachMale   bool `json:"can_teach_male" gorm:"not null;default:true"`
	CanTeachFemale bool `json:"can_teach_female" gorm:"not null;default:true"`
	IsActive       bool `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User   User          `json:"user" gorm:"foreignKey:UserID"`
	School DrivingSchool `json:"-" gorm:"foreignKey:SchoolID"`
}

func (Teacher) TableName() string {
	return "teachers"
}

func (t *Teacher) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// CanTeach reports whether the teacher's eligibility flags admit a student of
// the given gender.
func (t *Teacher) CanTeach(gender Gender) bool {
	switch gender {
	case GenderMale:
		return t.CanTeachMale
	case GenderFemale:
		return t.CanTeachFemale
	default:
		return false
	}
}

type Review struct {
	ID string `json:"id" gorm:"primaryKey;size:36"`

	// One review per enrollment.
	EnrollmentID string `json:"enrollment_id" gorm:"uniqueIndex;not null;size:36"`
	SchoolID     string `json:"school_id" gorm:"not null;index;size:36"`
	StudentID    string `json:"student_id" gorm:"not null;index;size:36"`

	Rating  int    `json:"rating" gorm:"not null" validate:"required,min=1,max=5"`
	Comment string `json:"comment" gorm:"type:text" validate:"omitempty,max=2000"`

	CreatedAt time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
