package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/services"
)

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
	}
}

func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.EnrollRequest
	if !h.bindJSON(c, &req) {
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, enrollment)
}

// CompletePayment confirms payment for a pending enrollment. Safe to repeat:
// an already-active enrollment comes back unchanged.
func (h *EnrollmentHandler) CompletePayment(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.CompletePayment(c.Request.Context(), c.Param("id"), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	if err := h.enrollmentService.Withdraw(c.Request.Context(), c.Param("id"), studentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *EnrollmentHandler) GetEnrollment(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.GetByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollment)
}

// ListMyEnrollments returns the current student's enrollments.
func (h *EnrollmentHandler) ListMyEnrollments(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	enrollments, err := h.enrollmentService.GetByStudent(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

// ListEnrollments is the manager-facing listing with filters.
func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.EnrollmentFilters{
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.EnrollmentStatus(raw)
		filters.Status = &status
	}
	if studentID := c.Query("student_id"); studentID != "" {
		filters.StudentID = &studentID
	}
	if schoolID := c.Query("school_id"); schoolID != "" {
		filters.SchoolID = &schoolID
	}

	resp, err := h.enrollmentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
