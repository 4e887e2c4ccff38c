package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Stripe webhook event types handled.
const (
	stripeSessionCompleted          = "checkout.session.completed"
	stripeSessionAsyncPaymentOK     = "checkout.session.async_payment_succeeded"
	stripeSessionAsyncPaymentFailed = "checkout.session.async_payment_failed"
	stripeSessionExpired            = "checkout.session.expired"
)

// StripeGateway uses Stripe Checkout.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

// NewStripeGateway creates a StripeGateway.
func NewStripeGateway(secretKey, webhookSecret, successURL, cancelURL string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret, successURL: successURL, cancelURL: cancelURL}
}

// Provider implements Gateway.
func (g *StripeGateway) Provider() model.PaymentProvider { return model.PaymentProviderStripe }

func withPaymentID(rawURL, paymentID string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("payment_id", paymentID)
	u.RawQuery = q.Encode()
	return u.String()
}

func (g *StripeGateway) sessionParams(in CheckoutInput) *stripe.CheckoutSessionParams {
	id := in.PaymentID.String()
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(withPaymentID(g.successURL, id)),
		CancelURL:         stripe.String(withPaymentID(g.cancelURL, id)),
		ClientReferenceID: stripe.String(id),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(in.Currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(in.CourseTitle),
				},
				UnitAmount: stripe.Int64(in.AmountCents),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}
	params.AddMetadata("payment_id", id)
	params.AddMetadata("course_id", in.CourseID.String())
	return params
}

// CreateCheckout opens a Checkout Session for one course.
func (g *StripeGateway) CreateCheckout(ctx context.Context, in CheckoutInput) (Session, error) {
	params := g.sessionParams(in)
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe checkout: %w", err)
	}
	return Session{ProviderRef: s.ID, URL: s.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and maps checkout events.
func (g *StripeGateway) ParseWebhook(payload []byte, header http.Header) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, header.Get("Stripe-Signature"), g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var status model.PaymentStatus
	reason := ""
	switch string(evt.Type) {
	case stripeSessionCompleted, stripeSessionAsyncPaymentOK:
		status = model.PaymentStatusSucceeded
	case stripeSessionAsyncPaymentFailed:
		status, reason = model.PaymentStatusFailed, "async payment failed"
	case stripeSessionExpired:
		status, reason = model.PaymentStatusExpired, "checkout session expired"
	default:
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(evt.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	// Delayed payment methods complete the session before the money arrives.
	if string(evt.Type) == stripeSessionCompleted && s.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return nil, nil
	}

	paymentID := s.ClientReferenceID
	if paymentID == "" {
		paymentID = s.Metadata["payment_id"]
	}
	return &Event{PaymentID: paymentID, ProviderRef: s.ID, Status: status, Reason: reason}, nil
}
