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

type assessmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAssessmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// managedSchool resolves the school a manager owns, or a permission error.
func (s *assessmentService) managedSchool(ctx context.Context, managerID string) (*models.DrivingSchool, error) {
	manager, err := s.repo.User().GetByID(ctx, nil, managerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load manager: %w", err)
	}
	if !models.HasCapability(manager.Role, models.ActionAuthorQuiz) {
		return nil, NewPermissionError(managerID, "quiz", "author", "role cannot author quizzes")
	}

	school, err := s.repo.School().GetByManager(ctx, nil, managerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to load managed school: %w", err)
	}
	return school, nil
}

func (s *assessmentService) CreateQuiz(ctx context.Context, req *CreateQuizRequest, managerID string) (*models.Quiz, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}
	if errs := validateQuestions(req.Questions); errs.HasErrors() {
		return nil, errs
	}

	school, err := s.managedSchool(ctx, managerID)
	if err != nil {
		return nil, err
	}

	quiz := &models.Quiz{
		SchoolID:         school.ID,
		CreatedBy:        managerID,
		CourseType:       req.CourseType,
		Title:            req.Title,
		Description:      req.Description,
		Difficulty:       req.Difficulty,
		PassingScore:     req.PassingScore,
		TimeLimitMinutes: req.TimeLimitMinutes,
		IsActive:         true,
	}
	if quiz.Difficulty == "" {
		quiz.Difficulty = models.DifficultyEasy
	}
	if err := quiz.SetQuestions(req.Questions); err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("quiz created", "quiz_id", quiz.ID, "school_id", school.ID, "course_type", quiz.CourseType)
	return quiz, nil
}

func (s *assessmentService) GetQuiz(ctx context.Context, quizID, userID string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}

	// Students only see active quizzes; the authoring manager sees everything.
	if !quiz.IsActive && quiz.CreatedBy != userID {
		return nil, ErrQuizNotFound
	}

	return quiz, nil
}

func (s *assessmentService) UpdateQuiz(ctx context.Context, quizID string, req *UpdateQuizRequest, managerID string) (*models.Quiz, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}
	if req.Questions != nil {
		if errs := validateQuestions(req.Questions); errs.HasErrors() {
			return nil, errs
		}
	}

	school, err := s.managedSchool(ctx, managerID)
	if err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	if quiz.SchoolID != school.ID {
		return nil, NewPermissionError(managerID, "quiz", "update", "quiz belongs to another school")
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Difficulty != nil {
		quiz.Difficulty = *req.Difficulty
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.TimeLimitMinutes != nil {
		quiz.TimeLimitMinutes = *req.TimeLimitMinutes
	}
	if req.IsActive != nil {
		quiz.IsActive = *req.IsActive
	}
	if req.Questions != nil {
		if err := quiz.SetQuestions(req.Questions); err != nil {
			return nil, fmt.Errorf("failed to encode questions: %w", err)
		}
	}

	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	return quiz, nil
}

func (s *assessmentService) ListQuizzes(ctx context.Context, filters repositories.QuizFilters, userID string) (*QuizListResponse, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Managers browse their own school's quizzes, drafts included; everyone
	// else only sees active ones.
	if models.HasCapability(user.Role, models.ActionAuthorQuiz) {
		school, err := s.repo.School().GetByManager(ctx, nil, userID)
		if err == nil {
			quizzes, total, err := s.repo.Quiz().GetBySchool(ctx, nil, school.ID, filters)
			if err != nil {
				return nil, fmt.Errorf("failed to list quizzes: %w", err)
			}
			return &QuizListResponse{Quizzes: quizzes, Total: total, Limit: filters.Limit, Offset: filters.Offset}, nil
		}
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load managed school: %w", err)
		}
	}

	filters.ActiveOnly = true
	quizzes, total, err := s.repo.Quiz().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return &QuizListResponse{Quizzes: quizzes, Total: total, Limit: filters.Limit, Offset: filters.Offset}, nil
}

// SubmitAttempt grades the answers against the stored questions. Attempts are
// formative: the result never touches CourseProgress.
func (s *assessmentService) SubmitAttempt(ctx context.Context, quizID string, req *SubmitQuizAttemptRequest, studentID string) (*QuizAttemptResponse, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, errs
	}

	student, err := s.repo.User().GetByID(ctx, nil, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load student: %w", err)
	}
	if !models.HasCapability(student.Role, models.ActionTakeQuiz) {
		return nil, NewPermissionError(studentID, "quiz", "take", "role cannot take quizzes")
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	if !quiz.IsActive {
		return nil, ErrQuizInactive
	}

	questions, err := quiz.GetQuestions()
	if err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	correct := 0
	for i, q := range questions {
		if answer, ok := req.Answers[i]; ok && answer == q.CorrectAnswer {
			correct++
		}
	}

	score := float64(0)
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions)) * 100
	}

	attempt := &models.QuizAttempt{
		QuizID:    quizID,
		StudentID: studentID,
		Score:     score,
		Passed:    score >= float64(quiz.PassingScore),
	}
	if err := attempt.SetAnswers(req.Answers); err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	if err := s.repo.QuizAttempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to save attempt: %w", err)
	}

	s.logger.Info("quiz attempt graded",
		"quiz_id", quizID,
		"student_id", studentID,
		"score", score,
		"passed", attempt.Passed)

	return &QuizAttemptResponse{
		QuizAttempt:    attempt,
		TotalQuestions: len(questions),
		CorrectAnswers: correct,
	}, nil
}

func (s *assessmentService) GetStudentAttempts(ctx context.Context, studentID string, limit, offset int) ([]*models.QuizAttempt, int64, error) {
	return s.repo.QuizAttempt().GetByStudent(ctx, nil, studentID, limit, offset)
}

// validateQuestions checks the cross-field rules struct tags cannot express.
func validateQuestions(questions []models.QuizQuestion) ValidationErrors {
	var errs ValidationErrors
	for i, q := range questions {
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("questions[%d].correct_answer", i),
				Message: "must index one of the options",
				Value:   q.CorrectAnswer,
				Rule:    "answer_in_range",
			})
		}
	}
	return errs
}
