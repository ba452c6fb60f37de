package repositories

import (
	"context"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository covers the Identity & Role Registry persistence.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error

	// UpdateRole performs the one-directional role transition. The user row is
	// updated in place; downstream records reference the immutable id.
	UpdateRole(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error

	// Deactivate soft-disables a user; no hard deletes.
	Deactivate(ctx context.Context, tx *gorm.DB, userID string) error
}
