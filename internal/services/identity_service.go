package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/validator"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type identityService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewIdentityService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) IdentityService {
	return &identityService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *identityService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	if _, err := s.repo.User().GetByEmail(ctx, nil, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		Gender:       req.Gender,
		State:        req.State,
		DateOfBirth:  req.DateOfBirth,
		Role:         models.RoleGuest,
		IsActive:     true,
	}

	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "state", user.State)
	return user, nil
}

func (s *identityService) Authenticate(ctx context.Context, req *LoginRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.IsActive {
		return nil, NewPermissionError(user.ID, "account", "login", "account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUserNotFound
	}

	return user, nil
}

func (s *identityService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *identityService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.State != nil {
		user.State = *req.State
	}

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *identityService) Deactivate(ctx context.Context, userID, actorID string) error {
	if userID != actorID {
		actor, err := s.GetProfile(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.Role != models.RoleManager {
			return NewPermissionError(actorID, "user", "deactivate", "only the account owner or a manager may deactivate")
		}
	}

	if err := s.repo.User().Deactivate(ctx, nil, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	s.logger.Info("user deactivated", "user_id", userID, "actor_id", actorID)
	return nil
}

// ===== EXPERT LIFECYCLE =====

func (s *identityService) RegisterExpert(ctx context.Context, userID string, req *RegisterExpertRequest) (*models.ExternalExpert, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !models.HasCapability(user.Role, models.ActionRegisterExpert) {
		return nil, NewPermissionError(userID, "expert", "register", "role cannot register as expert")
	}

	if _, err := s.repo.Expert().GetByUserID(ctx, nil, userID); err == nil {
		return nil, ErrExpertAlreadyExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check expert profile: %w", err)
	}

	expert := &models.ExternalExpert{
		UserID:              userID,
		CertificationNumber: req.CertificationNumber,
		YearsOfExperience:   req.YearsOfExperience,
		Approved:            false,
	}
	if err := expert.SetSpecializations(req.Specializations); err != nil {
		return nil, fmt.Errorf("failed to encode specializations: %w", err)
	}
	if err := expert.SetCoverageStates(req.CoverageStates); err != nil {
		return nil, fmt.Errorf("failed to encode coverage states: %w", err)
	}

	if err := s.repo.Expert().Create(ctx, nil, expert); err != nil {
		return nil, fmt.Errorf("failed to create expert profile: %w", err)
	}

	s.logger.Info("expert registered, pending approval", "user_id", userID, "expert_id", expert.ID)
	return expert, nil
}

// ApproveExpert marks the profile approved and promotes the user to
// external_expert so the matcher starts considering them.
func (s *identityService) ApproveExpert(ctx context.Context, expertID, approverID string) (*models.ExternalExpert, error) {
	approver, err := s.GetProfile(ctx, approverID)
	if err != nil {
		return nil, err
	}
	if !models.HasCapability(approver.Role, models.ActionApproveExpert) {
		return nil, NewPermissionError(approverID, "expert", "approve", "role cannot approve experts")
	}

	var expert *models.ExternalExpert
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		expert, err = txRepo.Expert().GetByID(ctx, nil, expertID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrExpertNotFound
			}
			return fmt.Errorf("failed to load expert: %w", err)
		}

		if expert.Approved {
			return nil
		}

		expert.Approved = true
		if err := txRepo.Expert().Update(ctx, nil, expert); err != nil {
			return fmt.Errorf("failed to approve expert: %w", err)
		}

		if err := txRepo.User().UpdateRole(ctx, nil, expert.UserID, models.RoleExternalExpert); err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("expert approved", "expert_id", expertID, "approver_id", approverID)
	return expert, nil
}

func (s *identityService) ListExperts(ctx context.Context, filters repositories.ExpertFilters) ([]*models.ExternalExpert, int64, error) {
	return s.repo.Expert().List(ctx, nil, filters)
}
