package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/permis-dz/lifecycle-service/internal/models"
	"github.com/permis-dz/lifecycle-service/internal/repositories"
	"github.com/permis-dz/lifecycle-service/internal/services"
)

type IdentityHandler struct {
	BaseHandler
	identityService services.IdentityService
	authMiddleware  *JWTAuthMiddleware
}

func NewIdentityHandler(identityService services.IdentityService, authMiddleware *JWTAuthMiddleware, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{
		BaseHandler:     NewBaseHandler(logger),
		identityService: identityService,
		authMiddleware:  authMiddleware,
	}
}

// Register creates a new account with the guest role.
func (h *IdentityHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.identityService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login authenticates credentials and returns a bearer token.
func (h *IdentityHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.identityService.Authenticate(c.Request.Context(), &req)
	if err != nil {
		// Do not leak whether the email exists.
		if services.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid credentials",
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	token, err := h.authMiddleware.IssueToken(user)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

func (h *IdentityHandler) GetProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.identityService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *IdentityHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.identityService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *IdentityHandler) Deactivate(c *gin.Context) {
	actorID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	targetID := c.Param("id")
	if err := h.identityService.Deactivate(c.Request.Context(), targetID, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterExpert submits an external examiner application for the current user.
func (h *IdentityHandler) RegisterExpert(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.RegisterExpertRequest
	if !h.bindJSON(c, &req) {
		return
	}

	expert, err := h.identityService.RegisterExpert(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, expert)
}

func (h *IdentityHandler) ApproveExpert(c *gin.Context) {
	approverID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	expert, err := h.identityService.ApproveExpert(c.Request.Context(), c.Param("id"), approverID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, expert)
}

func (h *IdentityHandler) ListExperts(c *gin.Context) {
	limit, offset := h.parsePagination(c)
	filters := repositories.ExpertFilters{
		Limit:  limit,
		Offset: offset,
	}
	if state := c.Query("state"); state != "" {
		filters.State = &state
	}
	if raw := c.Query("specialization"); raw != "" {
		courseType := models.CourseType(raw)
		filters.Specialization = &courseType
	}
	filters.ApprovedOnly = c.Query("approved_only") == "true"

	experts, total, err := h.identityService.ListExperts(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"experts": experts,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// ListStates returns the wilayas accepted for registration and coverage.
func (h *IdentityHandler) ListStates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"states": models.AlgerianStates,
	})
}
