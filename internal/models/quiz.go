package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizDifficulty string

const (
	DifficultyEasy   QuizDifficulty = "easy"
	DifficultyMedium QuizDifficulty = "medium"
	DifficultyHard   QuizDifficulty = "hard"
)

// Quiz is a formative practice tool authored by a manager for a course type.
// Quiz results never advance CourseProgress; only the certifying exam does.
type Quiz struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	SchoolID  string `json:"school_id" gorm:"not null;index;size:36"`
	CreatedBy string `json:"created_by" gorm:"not null;index;size:36"`

	CourseType  CourseType     `json:"course_type" gorm:"size:10;not null;index"`
	Title       string         `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Description string         `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Difficulty  QuizDifficulty `json:"difficulty" gorm:"size:10;default:easy" validate:"omitempty,oneof=easy medium hard"`

	Questions datatypes.JSON `json:"questions" gorm:"type:jsonb;not null"`

	PassingScore     int  `json:"passing_score" gorm:"not null" validate:"required,min=0,max=100"`
	TimeLimitMinutes int  `json:"time_limit_minutes" gorm:"default:15" validate:"omitempty,min=1,max=120"`
	IsActive         bool `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

func (q *Quiz) SetQuestions(questions []QuizQuestion) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	q.Questions = data
	return nil
}

func (q *Quiz) GetQuestions() ([]QuizQuestion, error) {
	if len(q.Questions) == 0 {
		return nil, nil
	}
	var questions []QuizQuestion
	if err := json.Unmarshal(q.Questions, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// QuizQuestion is the element shape stored in Quiz.Questions.
type QuizQuestion struct {
	Question      string   `json:"question" validate:"required,min=1,max=1000"`
	Options       []string `json:"options" validate:"required,min=2,max=6,dive,max=200"`
	CorrectAnswer int      `json:"correct_answer" validate:"min=0"`
	Explanation   string   `json:"explanation,omitempty" validate:"omitempty,max=1000"`
}

// QuizAttempt binds one student, one quiz and the recorded answers, with the
// score computed against the quiz passing score.
type QuizAttempt struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	QuizID    string `json:"quiz_id" gorm:"not null;index;size:36"`
	StudentID string `json:"student_id" gorm:"not null;index;size:36"`

	// Answers maps question index to chosen option index.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	Score  float64 `json:"score" gorm:"not null"`
	Passed bool    `json:"passed" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Quiz Quiz `json:"-" gorm:"foreignKey:QuizID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (a *QuizAttempt) SetAnswers(answers map[int]int) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	a.Answers = data
	return nil
}

func (a *QuizAttempt) GetAnswers() (map[int]int, error) {
	if len(a.Answers) == 0 {
		return nil, nil
	}
	var answers map[int]int
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}
