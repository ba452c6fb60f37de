package pkg

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/permis-dz/lifecycle-service/internal/config"
	"github.com/permis-dz/lifecycle-service/internal/models"
)

// InitDatabase opens the Postgres connection and runs schema migrations.
func InitDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLogLevel := logger.Warn
	if cfg.Environment == "development" {
		gormLogLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.ExternalExpert{},
		&models.DrivingSchool{},
		&models.Teacher{},
		&models.Review{},
		&models.Enrollment{},
		&models.CourseProgress{},
		&models.Session{},
		&models.Exam{},
		&models.ResourceCalendar{},
		&models.Quiz{},
		&models.QuizAttempt{},
		&models.Certificate{},
		&models.Notification{},
	); err != nil {
		return err
	}

	// Backstop for the duplicate check in Enroll: the database allows at most
	// one open enrollment per student and school.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_enrollments_one_open
		ON enrollments (student_id, school_id)
		WHERE status IN ('pending_payment', 'active')`).Error
}
