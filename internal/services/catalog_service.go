package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/validator"
	"gorm.io/gorm"
)

type catalogService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCatalogService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) CatalogService {
	return &catalogService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *catalogService) CreateSchool(ctx context.Context, req *CreateSchoolRequest, managerID string) (*models.DrivingSchool, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	manager, err := s.repo.User().GetByID(ctx, nil, managerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load manager: %w", err)
	}
	if !models.HasCapability(manager.Role, models.ActionManageSchool) {
		return nil, NewPermissionError(managerID, "school", "create", "role cannot manage schools")
	}

	if _, err := s.repo.School().GetByManager(ctx, nil, managerID); err == nil {
		return nil, ErrSchoolAlreadyManaged
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing school: %w", err)
	}

	school := &models.DrivingSchool{
		ManagerID:   managerID,
		Name:        req.Name,
		Address:     req.Address,
		State:       req.State,
		Phone:       req.Phone,
		Email:       req.Email,
		Description: req.Description,
		Price:       req.Price,
	}

	if err := s.repo.School().Create(ctx, nil, school); err != nil {
		return nil, fmt.Errorf("failed to create school: %w", err)
	}

	s.logger.Info("school created", "school_id", school.ID, "manager_id", managerID, "state", school.State)
	return school, nil
}

func (s *catalogService) GetSchool(ctx context.Context, id string) (*models.DrivingSchool, error) {
	school, err := s.repo.School().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to load school: %w", err)
	}
	return school, nil
}

func (s *catalogService) UpdateSchool(ctx context.Context, id string, req *UpdateSchoolRequest, managerID string) (*models.DrivingSchool, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	school, err := s.GetSchool(ctx, id)
	if err != nil {
		return nil, err
	}
	if school.ManagerID != managerID {
		return nil, NewPermissionError(managerID, "school", "update", "not the school manager")
	}

	if req.Name != nil {
		school.Name = *req.Name
	}
	if req.Address != nil {
		school.Address = *req.Address
	}
	if req.Phone != nil {
		school.Phone = *req.Phone
	}
	if req.Email != nil {
		school.Email = *req.Email
	}
	if req.Description != nil {
		school.Description = *req.Description
	}
	if req.Price != nil {
		school.Price = *req.Price
	}

	if err := s.repo.School().Update(ctx, nil, school); err != nil {
		return nil, fmt.Errorf("failed to update school: %w", err)
	}

	return school, nil
}

func (s *catalogService) ListSchools(ctx context.Context, filters repositories.SchoolFilters) (*SchoolListResponse, error) {
	schools, total, err := s.repo.School().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}

	return &SchoolListResponse{
		Schools: schools,
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}, nil
}

// ===== TEACHERS =====

// AddTeacher attaches an existing user to the manager's school and promotes
// them to the teacher role. Gender eligibility flags are set here and enforced
// by the scheduling engine on every booking.
// GetSchoolStats builds the manager dashboard summary. Only the school's own
// manager (or another analytics-capable role) can read it.
func (s *catalogService) GetSchoolStats(ctx context.Context, schoolID, managerID string) (*SchoolStatsResponse, error) {
	manager, err := s.repo.User().GetByID(ctx, nil, managerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load manager: %w", err)
	}
	if !models.HasCapability(manager.Role, models.ActionViewAnalytics) {
		return nil, NewPermissionError(managerID, "school", "stats", "role cannot view analytics")
	}

	school, err := s.repo.School().GetByID(ctx, nil, schoolID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to load school: %w", err)
	}
	if school.ManagerID != managerID {
		return nil, NewPermissionError(managerID, "school", "stats", "school belongs to another manager")
	}

	stats := &SchoolStatsResponse{
		SchoolID:     school.ID,
		Rating:       school.Rating,
		TotalReviews: school.TotalReviews,
	}

	for status, target := range map[models.EnrollmentStatus]*int64{
		models.EnrollmentActive:         &stats.ActiveEnrollments,
		models.EnrollmentPendingPayment: &stats.PendingEnrollments,
		models.EnrollmentCompleted:      &stats.Graduates,
	} {
		st := status
		_, count, err := s.repo.Enrollment().List(ctx, nil, repositories.EnrollmentFilters{
			SchoolID: &schoolID,
			Status:   &st,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s enrollments: %w", status, err)
		}
		*target = count
	}

	teachers, err := s.repo.Teacher().GetBySchool(ctx, nil, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teachers: %w", err)
	}
	stats.TeacherCount = len(teachers)

	return stats, nil
}

func (s *catalogService) AddTeacher(ctx context.Context, schoolID string, req *AddTeacherRequest, managerID string) (*models.Teacher, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if !req.CanTeachMale && !req.CanTeachFemale {
		return nil, NewBusinessRuleError("teacher_gender_flags", "teacher must accept at least one gender")
	}

	manager, err := s.repo.User().GetByID(ctx, nil, managerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load manager: %w", err)
	}
	if !models.HasCapability(manager.Role, models.ActionInviteTeacher) {
		return nil, NewPermissionError(managerID, "teacher", "invite", "role cannot invite teachers")
	}

	school, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if school.ManagerID != managerID {
		return nil, NewPermissionError(managerID, "teacher", "invite", "not the school manager")
	}

	if _, err := s.repo.User().GetByID(ctx, nil, req.UserID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var teacher *models.Teacher
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		teacher = &models.Teacher{
			UserID:         req.UserID,
			SchoolID:       schoolID,
			CanTeachMale:   req.CanTeachMale,
			CanTeachFemale: req.CanTeachFemale,
			IsActive:       true,
		}
		if err := txRepo.Teacher().Create(ctx, nil, teacher); err != nil {
			return fmt.Errorf("failed to create teacher: %w", err)
		}

		if err := txRepo.User().UpdateRole(ctx, nil, req.UserID, models.RoleTeacher); err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("teacher added", "teacher_id", teacher.ID, "school_id", schoolID)
	return teacher, nil
}

func (s *catalogService) ListTeachers(ctx context.Context, schoolID string) ([]*models.Teacher, error) {
	if _, err := s.GetSchool(ctx, schoolID); err != nil {
		return nil, err
	}
	return s.repo.Teacher().GetBySchool(ctx, nil, schoolID)
}

// ===== REVIEWS =====

func (s *catalogService) SubmitReview(ctx context.Context, req *SubmitReviewRequest, studentID string) (*models.Review, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	enrollment, err := s.repo.Enrollment().GetByID(ctx, nil, req.EnrollmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}
	if enrollment.StudentID != studentID {
		return nil, NewPermissionError(studentID, "review", "create", "enrollment belongs to another student")
	}
	if enrollment.Status == models.EnrollmentPendingPayment {
		return nil, ErrEnrollmentNotActive
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if !models.HasCapability(student.Role, models.ActionReviewSchool) {
		return nil, NewPermissionError(studentID, "review", "create", "role cannot review schools")
	}

	if _, err := s.repo.Review().GetByEnrollment(ctx, nil, req.EnrollmentID); err == nil {
		return nil, ErrReviewAlreadySubmitted
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}

	var review *models.Review
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		review = &models.Review{
			EnrollmentID: req.EnrollmentID,
			SchoolID:     enrollment.SchoolID,
			StudentID:    studentID,
			Rating:       req.Rating,
			Comment:      req.Comment,
		}
		if err := txRepo.Review().Create(ctx, nil, review); err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		avg, count, err := txRepo.Review().AggregateForSchool(ctx, nil, enrollment.SchoolID)
		if err != nil {
			return fmt.Errorf("failed to aggregate reviews: %w", err)
		}
		if err := txRepo.School().UpdateRating(ctx, nil, enrollment.SchoolID, avg, count); err != nil {
			return fmt.Errorf("failed to update school rating: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review submitted", "school_id", enrollment.SchoolID, "rating", req.Rating)
	return review, nil
}

func (s *catalogService) ListReviews(ctx context.Context, schoolID string) ([]*models.Review, error) {
	if _, err := s.GetSchool(ctx, schoolID); err != nil {
		return nil, err
	}
	reviews, _, err := s.repo.Review().GetBySchool(ctx, nil, schoolID, 0, 0)
	return reviews, err
}
