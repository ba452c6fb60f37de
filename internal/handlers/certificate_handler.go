package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/permis-dz/lifecycle-service/internal/services"
)

type CertificateHandler struct {
	BaseHandler
	certificateService services.CertificateService
}

func NewCertificateHandler(certificateService services.CertificateService, logger *slog.Logger) *CertificateHandler {
	return &CertificateHandler{
		BaseHandler:        NewBaseHandler(logger),
		certificateService: certificateService,
	}
}

func (h *CertificateHandler) ListMyCertificates(c *gin.Context) {
	studentID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	certificates, err := h.certificateService.GetByStudent(c.Request.Context(), studentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificates": certificates})
}

// Verify is public: anyone holding a verification code can check a
// certificate without authenticating. Unknown codes return valid=false.
func (h *CertificateHandler) Verify(c *gin.Context) {
	resp, err := h.certificateService.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
