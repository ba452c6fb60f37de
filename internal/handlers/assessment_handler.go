package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/services"
)

const maxQuestionSheetBytes = 5 << 20

type AssessmentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
}

func NewAssessmentHandler(assessmentService services.AssessmentService, logger *slog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
	}
}

func (h *AssessmentHandler) CreateQuiz(c *gin.Context) {
	managerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quiz, err := h.assessmentService.CreateQuiz(c.Request.Context(), &req, managerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

func (h *AssessmentHandler) GetQuiz(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	quiz, err := h.assessmentService.GetQuiz(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

func (h *AssessmentHandler) UpdateQuiz(c *gin.Context) {
	managerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateQuizRequest
	if !h.bindJSON(c, &req) {
		return
	}

	quiz, err := h.assessmentService.UpdateQuiz(c.Request.Context(), c.Param("id"), &req, managerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

func (h *AssessmentHandler) ListQuizzes(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.QuizFilters{
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("course_type"); raw != "" {
		courseType := models.CourseType(raw)
		filters.CourseType = &courseType
	}
	if raw := c.Query("difficulty"); raw != "" {
		difficulty := models.QuizDifficulty(raw)
		filters.Difficulty = &difficulty
	}
	if schoolID := c.Query("school_id"); schoolID != "" {
		filters.SchoolID = &schoolID
	}

	resp, err := h.assessmentService.ListQuizzes(c.Request.Context(), filters, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AssessmentHandler) SubmitAttempt(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitQuizAttemptRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.assessmentService.SubmitAttempt(c.Request.Context(), c.Param("id"), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *AssessmentHandler) ListMyAttempts(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	attempts, total, err := h.assessmentService.GetStudentAttempts(c.Request.Context(), studentID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempts": attempts,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// ImportQuestions appends questions from an uploaded spreadsheet.
func (h *AssessmentHandler) ImportQuestions(c *gin.Context) {
	managerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxQuestionSheetBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Message: "File too large",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read upload",
			Details: err.Error(),
		})
		return
	}

	count, err := h.assessmentService.ImportQuestions(c.Request.Context(), c.Param("id"), data, managerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": count})
}

// ExportQuestions streams the quiz questions as a spreadsheet download.
func (h *AssessmentHandler) ExportQuestions(c *gin.Context) {
	managerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	data, err := h.assessmentService.ExportQuestions(c.Request.Context(), c.Param("id"), managerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz-%s-questions.xlsx", c.Param("id"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
