package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
)

// CertificateHandler serves issued certificates and the public verifier.
type CertificateHandler struct {
	certificateService *service.CertificateService
	log                zerolog.Logger
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(certificateService *service.CertificateService, log zerolog.Logger) *CertificateHandler {
	return &CertificateHandler{
		certificateService: certificateService,
		log:                log.With().Str("component", "certificate_handler").Logger(),
	}
}

// ListMine godoc
// GET /api/v1/me/certificates
func (h *CertificateHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	certs, err := h.certificateService.ListMine(c.Request.Context(), actor.UserID)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, certs)
}

// Get godoc
// GET /api/v1/certificates/:id
func (h *CertificateHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	cert, err := h.certificateService.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, cert)
}

// Verify godoc
// GET /api/v1/certificates/verify/:number
// Public. Unknown numbers answer 200 with valid=false.
func (h *CertificateHandler) Verify(c *gin.Context) {
	number := c.Param("number")
	if len(number) > 64 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	v, err := h.certificateService.Verify(c.Request.Context(), number)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, v)
}
