package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/permis-dz/lifecycle-service/internal/cache"
	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type SchoolPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewSchoolPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.SchoolRepository {
	return &SchoolPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (s *SchoolPostgreSQL) Create(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error {
	db := s.helpers.DB(tx)
	return db.WithContext(ctx).Create(school).Error
}

func (s *SchoolPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.DrivingSchool, error) {
	db := s.helpers.DB(tx)
	// The catalog is read-mostly; cache individual school lookups.
	cacheKey := fmt.Sprintf("school:%s", id)
	var school models.DrivingSchool

	err := s.cacheManager.Catalog.CacheOrExecute(ctx, cacheKey, &school, cache.CatalogCacheConfig.TTL, func() (interface{}, error) {
		var dbSchool models.DrivingSchool
		if err := db.WithContext(ctx).First(&dbSchool, "id = ?", id).Error; err != nil {
			return nil, err
		}
		return &dbSchool, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}

	return &school, nil
}

func (s *SchoolPostgreSQL) GetByManager(ctx context.Context, tx *gorm.DB, managerID string) (*models.DrivingSchool, error) {
	db := s.helpers.DB(tx)
	var school models.DrivingSchool
	if err := db.WithContext(ctx).First(&school, "manager_id = ?", managerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &school, nil
}

func (s *SchoolPostgreSQL) Update(ctx context.Context, tx *gorm.DB, school *models.DrivingSchool) error {
	db := s.helpers.DB(tx)
	if err := db.WithContext(ctx).Save(school).Error; err != nil {
		return err
	}
	return s.cacheManager.InvalidateSchool(ctx, school.ID)
}

func (s *SchoolPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.SchoolFilters) ([]*models.DrivingSchool, int64, error) {
	db := s.helpers.DB(tx)
	var schools []*models.DrivingSchool
	var total int64

	query := db.WithContext(ctx).Model(&models.DrivingSchool{})
	if filters.State != nil {
		query = query.Where("state = ?", *filters.State)
	}
	if filters.MinPrice != nil {
		query = query.Where("price >= ?", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		query = query.Where("price <= ?", *filters.MaxPrice)
	}
	if filters.MinRating != nil {
		query = query.Where("rating >= ?", *filters.MinRating)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = s.helpers.ApplySort(query, filters.SortBy, filters.SortOrder, "name asc", map[string]string{
		"name":   "name",
		"price":  "price",
		"rating": "rating",
	})
	query = s.helpers.ApplyPagination(query, filters.Limit, filters.Offset)

	if err := query.Find(&schools).Error; err != nil {
		return nil, 0, err
	}

	return schools, total, nil
}

func (s *SchoolPostgreSQL) UpdateRating(ctx context.Context, tx *gorm.DB, schoolID string, rating float64, totalReviews int) error {
	db := s.helpers.DB(tx)
	result := db.WithContext(ctx).Model(&models.DrivingSchool{}).
		Where("id = ?", schoolID).
		Updates(map[string]interface{}{
			"rating":        rating,
			"total_reviews": totalReviews,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return s.cacheManager.InvalidateSchool(ctx, schoolID)
}

type TeacherPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewTeacherPostgreSQL(db *gorm.DB) repositories.TeacherRepository {
	return &TeacherPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (t *TeacherPostgreSQL) Create(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	db := t.helpers.DB(tx)
	return db.WithContext(ctx).Create(teacher).Error
}

func (t *TeacherPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Teacher, error) {
	db := t.helpers.DB(tx)
	var teacher models.Teacher
	if err := db.WithContext(ctx).Preload("User").First(&teacher, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &teacher, nil
}

func (t *TeacherPostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Teacher, error) {
	db := t.helpers.DB(tx)
	var teacher models.Teacher
	if err := db.WithContext(ctx).Preload("User").First(&teacher, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &teacher, nil
}

func (t *TeacherPostgreSQL) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string) ([]*models.Teacher, error) {
	db := t.helpers.DB(tx)
	var teachers []*models.Teacher
	if err := db.WithContext(ctx).
		Preload("User").
		Where("school_id = ? AND is_active = true", schoolID).
		Find(&teachers).Error; err != nil {
		return nil, err
	}
	return teachers, nil
}

func (t *TeacherPostgreSQL) Update(ctx context.Context, tx *gorm.DB, teacher *models.Teacher) error {
	db := t.helpers.DB(tx)
	return db.WithContext(ctx).Save(teacher).Error
}

type ReviewPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewReviewPostgreSQL(db *gorm.DB) repositories.ReviewRepository {
	return &ReviewPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (r *ReviewPostgreSQL) Create(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	db := r.helpers.DB(tx)
	return db.WithContext(ctx).Create(review).Error
}

func (r *ReviewPostgreSQL) GetByEnrollment(ctx context.Context, tx *gorm.DB, enrollmentID string) (*models.Review, error) {
	db := r.helpers.DB(tx)
	var review models.Review
	if err := db.WithContext(ctx).First(&review, "enrollment_id = ?", enrollmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewPostgreSQL) GetBySchool(ctx context.Context, tx *gorm.DB, schoolID string, limit, offset int) ([]*models.Review, int64, error) {
	db := r.helpers.DB(tx)
	var reviews []*models.Review
	var total int64

	query := db.WithContext(ctx).Model(&models.Review{}).Where("school_id = ?", schoolID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = r.helpers.ApplyPagination(query.Order("created_at desc"), limit, offset)
	if err := query.Find(&reviews).Error; err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

func (r *ReviewPostgreSQL) AggregateForSchool(ctx context.Context, tx *gorm.DB, schoolID string) (float64, int, error) {
	db := r.helpers.DB(tx)
	var result struct {
		Avg   float64
		Count int
	}
	err := db.WithContext(ctx).Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("school_id = ?", schoolID).
		Scan(&result).Error
	if err != nil {
		return 0, 0, err
	}
	return result.Avg, result.Count, nil
}
