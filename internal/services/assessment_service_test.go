package services

import (
	"context"
	"errors"
	"testing"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
)

func TestCreateQuizDefaultsAndActivates(t *testing.T) {
	env := newTestEnv()
	svc := env.assessmentService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	env.seedSchool(t, manager.ID)

	quiz, err := svc.CreateQuiz(ctx, &CreateQuizRequest{
		CourseType:   models.CourseTheory,
		Title:        "Signalisation verticale",
		PassingScore: 70,
		Questions: []models.QuizQuestion{
			{Question: "Forme d'un panneau stop?", Options: []string{"Triangle", "Octogone"}, CorrectAnswer: 1},
		},
	}, manager.ID)
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	if !quiz.IsActive {
		t.Error("new quizzes should be active")
	}
	if quiz.Difficulty != models.DifficultyEasy {
		t.Errorf("expected default difficulty %s, got %s", models.DifficultyEasy, quiz.Difficulty)
	}
	if quiz.CreatedBy != manager.ID {
		t.Errorf("expected creator %s, got %s", manager.ID, quiz.CreatedBy)
	}
}

func TestCreateQuizRejectsOutOfRangeAnswer(t *testing.T) {
	env := newTestEnv()
	svc := env.assessmentService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	env.seedSchool(t, manager.ID)

	_, err := svc.CreateQuiz(ctx, &CreateQuizRequest{
		CourseType:   models.CourseTheory,
		Title:        "Mauvaise question",
		PassingScore: 70,
		Questions: []models.QuizQuestion{
			{Question: "Deux options seulement", Options: []string{"A", "B"}, CorrectAnswer: 2},
		},
	}, manager.ID)

	var valErrs ValidationErrors
	if !errors.As(err, &valErrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
}

func TestSubmitAttemptGradesAgainstKey(t *testing.T) {
	env := newTestEnv()
	svc := env.assessmentService()
	ctx := context.Background()

	student := env.seedUser(t, models.RoleStudent, models.GenderMale)
	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	quiz := env.seedQuiz(t, school.ID, manager.ID, true)

	// One of two correct: 50%, below the 70 passing score.
	resp, err := svc.SubmitAttempt(ctx, quiz.ID, &SubmitQuizAttemptRequest{
		Answers: map[int]int{0: 1, 1: 1},
	}, student.ID)
	if err != nil {
		t.Fatalf("SubmitAttempt failed: %v", err)
	}

	if resp.Score != 50 {
		t.Errorf("expected score 50, got %.2f", resp.Score)
	}
	if resp.Passed {
		t.Error("50%% must not pass a 70%% threshold")
	}
	if resp.TotalQuestions != 2 || resp.CorrectAnswers != 1 {
		t.Errorf("expected 1/2 correct, got %d/%d", resp.CorrectAnswers, resp.TotalQuestions)
	}

	// Full marks passes.
	resp, err = svc.SubmitAttempt(ctx, quiz.ID, &SubmitQuizAttemptRequest{
		Answers: map[int]int{0: 1, 1: 0},
	}, student.ID)
	if err != nil {
		t.Fatalf("second SubmitAttempt failed: %v", err)
	}
	if resp.Score != 100 || !resp.Passed {
		t.Errorf("expected a passing 100, got %.2f passed=%v", resp.Score, resp.Passed)
	}
}

func TestSubmitAttemptRejectsInactiveQuiz(t *testing.T) {
	env := newTestEnv()
	svc := env.assessmentService()
	ctx := context.Background()

	student := env.seedUser(t, models.RoleStudent, models.GenderMale)
	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	quiz := env.seedQuiz(t, school.ID, manager.ID, false)

	_, err := svc.SubmitAttempt(ctx, quiz.ID, &SubmitQuizAttemptRequest{
		Answers: map[int]int{0: 1},
	}, student.ID)
	if !errors.Is(err, ErrQuizInactive) {
		t.Errorf("expected ErrQuizInactive, got %v", err)
	}
}

func TestListQuizzesHidesDraftsFromStudents(t *testing.T) {
	env := newTestEnv()
	svc := env.assessmentService()
	ctx := context.Background()

	student := env.seedUser(t, models.RoleStudent, models.GenderMale)
	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	env.seedQuiz(t, school.ID, manager.ID, true)
	env.seedQuiz(t, school.ID, manager.ID, false)

	asStudent, err := svc.ListQuizzes(ctx, repositories.QuizFilters{}, student.ID)
	if err != nil {
		t.Fatalf("ListQuizzes as student failed: %v", err)
	}
	if len(asStudent.Quizzes) != 1 {
		t.Errorf("students should only see active quizzes, got %d", len(asStudent.Quizzes))
	}

	asManager, err := svc.ListQuizzes(ctx, repositories.QuizFilters{}, manager.ID)
	if err != nil {
		t.Fatalf("ListQuizzes as manager failed: %v", err)
	}
	if len(asManager.Quizzes) != 2 {
		t.Errorf("the owning manager should see drafts too, got %d", len(asManager.Quizzes))
	}
}

func TestUpdateQuizRejectsForeignManager(t *testing.T) {
	env := newTestEnv()
	svc := env.assessmentService()
	ctx := context.Background()

	owner := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, owner.ID)
	quiz := env.seedQuiz(t, school.ID, owner.ID, true)

	rival := env.seedUser(t, models.RoleManager, models.GenderMale)
	env.seedSchool(t, rival.ID)

	title := "Hijacked"
	_, err := svc.UpdateQuiz(ctx, quiz.ID, &UpdateQuizRequest{Title: &title}, rival.ID)
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Errorf("expected PermissionError, got %v", err)
	}
}

func TestQuestionSheetRoundTrip(t *testing.T) {
	env := newTestEnv()
	svc := env.assessmentService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	source := env.seedQuiz(t, school.ID, manager.ID, true)

	data, err := svc.ExportQuestions(ctx, source.ID, manager.ID)
	if err != nil {
		t.Fatalf("ExportQuestions failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected spreadsheet bytes")
	}

	target, err := svc.CreateQuiz(ctx, &CreateQuizRequest{
		CourseType:   models.CourseTheory,
		Title:        "Copie",
		PassingScore: 70,
		Questions: []models.QuizQuestion{
			{Question: "Question initiale?", Options: []string{"Oui", "Non"}, CorrectAnswer: 0},
		},
	}, manager.ID)
	if err != nil {
		t.Fatalf("CreateQuiz failed: %v", err)
	}

	imported, err := svc.ImportQuestions(ctx, target.ID, data, manager.ID)
	if err != nil {
		t.Fatalf("ImportQuestions failed: %v", err)
	}
	if imported != 2 {
		t.Errorf("expected 2 imported questions, got %d", imported)
	}

	reloaded, err := env.repo.Quiz().GetByID(ctx, nil, target.ID)
	if err != nil {
		t.Fatalf("failed to reload quiz: %v", err)
	}
	questions, err := reloaded.GetQuestions()
	if err != nil {
		t.Fatalf("failed to decode questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions after import, got %d", len(questions))
	}

	sourceQuestions, _ := source.GetQuestions()
	got := questions[1]
	want := sourceQuestions[0]
	if got.Question != want.Question {
		t.Errorf("expected question %q, got %q", want.Question, got.Question)
	}
	if got.CorrectAnswer != want.CorrectAnswer {
		t.Errorf("expected correct answer %d, got %d", want.CorrectAnswer, got.CorrectAnswer)
	}
	if len(got.Options) != len(want.Options) {
		t.Errorf("expected %d options, got %d", len(want.Options), len(got.Options))
	}
}

func TestImportQuestionsRejectsGarbage(t *testing.T) {
	env := newTestEnv()
	svc := env.assessmentService()
	ctx := context.Background()

	manager := env.seedUser(t, models.RoleManager, models.GenderMale)
	school := env.seedSchool(t, manager.ID)
	quiz := env.seedQuiz(t, school.ID, manager.ID, true)

	_, err := svc.ImportQuestions(ctx, quiz.ID, []byte("not a spreadsheet"), manager.ID)
	var ruleErr *BusinessRuleError
	if !errors.As(err, &ruleErr) {
		t.Errorf("expected BusinessRuleError, got %v", err)
	}
}

func TestParseQuestionRows(t *testing.T) {
	rows := [][]string{
		questionSheetHeaders,
		{"Que faire au feu rouge?", "S'arrêter", "Passer", "", "", "1", "Le feu rouge impose l'arrêt"},
		{"", "", "", "", "", "", ""},
		{"Vitesse sur autoroute?", "100", "120", "140", "", "2", ""},
	}

	questions, errs := parseQuestionRows(rows)
	if errs.HasErrors() {
		t.Fatalf("parseQuestionRows failed: %v", errs)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].CorrectAnswer != 0 {
		t.Errorf("sheet uses 1-based answers, expected stored 0, got %d", questions[0].CorrectAnswer)
	}
	if len(questions[1].Options) != 3 {
		t.Errorf("blank option cells must be dropped, expected 3 options, got %d", len(questions[1].Options))
	}

	// Correct option outside the option count fails with the row number.
	_, errs = parseQuestionRows([][]string{
		questionSheetHeaders,
		{"Question?", "A", "B", "", "", "5", ""},
	})
	if !errs.HasErrors() {
		t.Error("expected a validation error for an out-of-range correct option")
	}
}
