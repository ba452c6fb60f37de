package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleGuest          UserRole = "guest"
	RoleStudent        UserRole = "student"
	RoleTeacher        UserRole = "teacher"
	RoleManager        UserRole = "manager"
	RoleExternalExpert UserRole = "external_expert"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type User struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	Email        string `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	PasswordHash string `json:"-" gorm:"not null;size:255"`

	FirstName   string     `json:"first_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	LastName    string     `json:"last_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	Phone       string     `json:"phone" gorm:"size:30"`
	Address     string     `json:"address" gorm:"size:255"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      Gender     `json:"gender" gorm:"size:10;not null" validate:"required,oneof=male female"`

	// Administrative region (wilaya) the user lives in.
	State string `json:"state" gorm:"size:50;index" validate:"required"`

	Role     UserRole `json:"role" gorm:"size:20;not null;default:guest;index"`
	IsActive bool     `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// AlgerianStates lists the 58 wilayas accepted for User.State, school locations
// and expert coverage regions.
var AlgerianStates = []string{
	"Adrar", "Chlef", "Laghouat", "Oum El Bouaghi", "Batna", "Béjaïa", "Biskra",
	"Béchar", "Blida", "Bouira", "Tamanrasset", "Tébessa", "Tlemcen", "Tiaret",
	"Tizi Ouzou", "Alger", "Djelfa", "Jijel", "Sétif", "Saïda", "Skikda",
	"Sidi Bel Abbès", "Annaba", "Guelma", "Constantine", "Médéa", "Mostaganem",
	"M'Sila", "Mascara", "Ouargla", "Oran", "El Bayadh", "Illizi",
	"Bordj Bou Arréridj", "Boumerdès", "El Tarf", "Tindouf", "Tissemsilt",
	"El Oued", "Khenchela", "Souk Ahras", "Tipaza", "Mila", "Aïn Defla",
	"Naâma", "Aïn Témouchent", "Ghardaïa", "Relizane", "Timimoun",
	"Bordj Badji Mokhtar", "Ouled Djellal", "Béni Abbès", "In Salah",
	"In Guezzam", "Touggourt", "Djanet", "El M'Ghair", "El Meniaa",
}

func IsValidState(state string) bool {
	for _, s := range AlgerianStates {
		if s == state {
			return true
		}
	}
	return false
}
