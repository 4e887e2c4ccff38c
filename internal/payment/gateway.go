// Package payment opens hosted checkout sessions and verifies webhook
// notifications for the supported gateways.
package payment

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
)

var (
	ErrInvalidSignature    = errors.New("payment: invalid webhook signature")
	ErrMalformedPayload    = errors.New("payment: malformed webhook payload")
	ErrUnsupportedCurrency = errors.New("payment: currency not supported by provider")
)

// CheckoutInput describes what the customer is paying for.
type CheckoutInput struct {
	PaymentID     uuid.UUID
	CourseID      uuid.UUID
	CourseTitle   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	CustomerName  string
}

// Session is an opened hosted checkout.
type Session struct {
	ProviderRef string
	URL         string
}

// Event is a verified state change reported by a gateway. PaymentID is our
// payment id when the gateway echoes it back, otherwise empty.
type Event struct {
	PaymentID   string
	ProviderRef string
	Status      model.PaymentStatus
	Reason      string
}

// Gateway is implemented by each payment provider.
type Gateway interface {
	Provider() model.PaymentProvider
	CreateCheckout(ctx context.Context, in CheckoutInput) (Session, error)
	// ParseWebhook verifies and decodes a notification. A nil event with a nil
	// error means the notification is valid but carries nothing to act on.
	ParseWebhook(payload []byte, header http.Header) (*Event, error)
}

// NewGateways returns the gateways that have credentials configured.
func NewGateways(cfg *config.Config) map[model.PaymentProvider]Gateway {
	gateways := make(map[model.PaymentProvider]Gateway)
	if cfg.StripeSecretKey != "" {
		gateways[model.PaymentProviderStripe] = NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.PaymentSuccessURL, cfg.PaymentCancelURL)
	}
	if cfg.MidtransServerKey != "" {
		gateways[model.PaymentProviderMidtrans] = NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransProduction, cfg.PaymentSuccessURL)
	}
	return gateways
}
