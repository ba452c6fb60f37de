package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/services"
)

type SchedulingHandler struct {
	BaseHandler
	schedulingService services.SchedulingService
}

func NewSchedulingHandler(schedulingService services.SchedulingService, logger *slog.Logger) *SchedulingHandler {
	return &SchedulingHandler{
		BaseHandler:       NewBaseHandler(logger),
		schedulingService: schedulingService,
	}
}

// ===== SESSIONS =====

func (h *SchedulingHandler) ScheduleSession(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.ScheduleSessionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	session, err := h.schedulingService.ScheduleSession(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *SchedulingHandler) CompleteSession(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	session, err := h.schedulingService.CompleteSession(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SchedulingHandler) CancelSession(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.schedulingService.CancelSession(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SchedulingHandler) ListSessions(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.SessionFilters{
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.SessionStatus(raw)
		filters.Status = &status
	}
	if studentID := c.Query("student_id"); studentID != "" {
		filters.StudentID = &studentID
	}
	if teacherID := c.Query("teacher_id"); teacherID != "" {
		filters.TeacherID = &teacherID
	}
	filters.DateFrom = parseTimeQuery(c, "date_from")
	filters.DateTo = parseTimeQuery(c, "date_to")

	resp, err := h.schedulingService.ListSessions(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ===== EXAMS =====

func (h *SchedulingHandler) ScheduleExam(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.ScheduleExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.schedulingService.ScheduleExam(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

func (h *SchedulingHandler) ConfirmExam(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.ConfirmExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.schedulingService.ConfirmExam(c.Request.Context(), c.Param("id"), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// CompleteExam records the certifying result. The score feeds the course
// outcome, so only the assigned examiner may call this.
func (h *SchedulingHandler) CompleteExam(c *gin.Context) {
	examinerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CompleteExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	exam, err := h.schedulingService.CompleteExam(c.Request.Context(), c.Param("id"), &req, examinerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

func (h *SchedulingHandler) CancelExam(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.schedulingService.CancelExam(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SchedulingHandler) ListExams(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.ExamFilters{
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ExamStatus(raw)
		filters.Status = &status
	}
	if raw := c.Query("exam_type"); raw != "" {
		examType := models.CourseType(raw)
		filters.ExamType = &examType
	}
	if studentID := c.Query("student_id"); studentID != "" {
		filters.StudentID = &studentID
	}
	if examinerID := c.Query("examiner_id"); examinerID != "" {
		filters.ExaminerID = &examinerID
	}
	filters.DateFrom = parseTimeQuery(c, "date_from")
	filters.DateTo = parseTimeQuery(c, "date_to")

	resp, err := h.schedulingService.ListExams(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseTimeQuery(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil
	}
	return &parsed
}
