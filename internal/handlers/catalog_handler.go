package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/services"
)

type CatalogHandler struct {
	BaseHandler
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler:    NewBaseHandler(logger),
		catalogService: catalogService,
	}
}

func (h *CatalogHandler) CreateSchool(c *gin.Context) {
	managerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateSchoolRequest
	if !h.bindJSON(c, &req) {
		return
	}

	school, err := h.catalogService.CreateSchool(c.Request.Context(), &req, managerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, school)
}

func (h *CatalogHandler) GetSchool(c *gin.Context) {
	school, err := h.catalogService.GetSchool(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, school)
}

func (h *CatalogHandler) UpdateSchool(c *gin.Context) {
	managerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateSchoolRequest
	if !h.bindJSON(c, &req) {
		return
	}

	school, err := h.catalogService.UpdateSchool(c.Request.Context(), c.Param("id"), &req, managerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, school)
}

// ListSchools is the public browse endpoint with state, price and rating
// filters.
func (h *CatalogHandler) ListSchools(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.SchoolFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if state := c.Query("state"); state != "" {
		filters.State = &state
	}
	if raw := c.Query("min_price"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MinPrice = &parsed
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MaxPrice = &parsed
		}
	}
	if raw := c.Query("min_rating"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil {
			filters.MinRating = &parsed
		}
	}

	resp, err := h.catalogService.ListSchools(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) AddTeacher(c *gin.Context) {
	managerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.AddTeacherRequest
	if !h.bindJSON(c, &req) {
		return
	}

	teacher, err := h.catalogService.AddTeacher(c.Request.Context(), c.Param("id"), &req, managerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, teacher)
}

func (h *CatalogHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.catalogService.ListTeachers(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"teachers": teachers})
}

func (h *CatalogHandler) GetSchoolStats(c *gin.Context) {
	managerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.catalogService.GetSchoolStats(c.Request.Context(), c.Param("id"), managerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *CatalogHandler) SubmitReview(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.SubmitReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	review, err := h.catalogService.SubmitReview(c.Request.Context(), &req, studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

func (h *CatalogHandler) ListReviews(c *gin.Context) {
	reviews, err := h.catalogService.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
