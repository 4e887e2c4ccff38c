package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
)

// maxWebhookBytes caps provider callbacks; real payloads are a few KiB.
const maxWebhookBytes = 64 << 10

// PaymentHandler handles checkout, payment history and provider webhooks.
type PaymentHandler struct {
	paymentService *service.PaymentService
	log            zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, log zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log.With().Str("component", "payment_handler").Logger(),
	}
}

// Checkout godoc
// POST /api/v1/courses/:id/checkout
// Creates a PENDING payment and returns the provider's checkout URL.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	courseID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req model.CheckoutRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	res, err := h.paymentService.Checkout(c.Request.Context(), middleware.GetActor(c), courseID, req.Provider, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// ListMine godoc
// GET /api/v1/me/payments
func (h *PaymentHandler) ListMine(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var p model.PageQuery
	if !bindQuery(c, &p) {
		return
	}

	payments, total, err := h.paymentService.ListMine(c.Request.Context(), actor.UserID, p)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	paginated(c, payments, p, total)
}

// Get godoc
// GET /api/v1/payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	p, err := h.paymentService.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// StripeWebhook godoc
// POST /api/v1/webhooks/stripe
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	h.webhook(c, model.PaymentProviderStripe)
}

// MidtransWebhook godoc
// POST /api/v1/webhooks/midtrans
func (h *PaymentHandler) MidtransWebhook(c *gin.Context) {
	h.webhook(c, model.PaymentProviderMidtrans)
}

// webhook reads the raw body, which signature checks need byte for byte.
// Anything but a 2xx makes the provider retry, so only bad signatures and
// infrastructure failures are reported as errors.
func (h *PaymentHandler) webhook(c *gin.Context, provider model.PaymentProvider) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrInvalidPayload)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	if err := h.paymentService.HandleWebhook(c.Request.Context(), provider, payload, c.Request.Header); err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			h.log.Warn().Str("provider", string(provider)).Str("ip", c.ClientIP()).Msg("Rejected webhook with bad signature")
		}
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}
