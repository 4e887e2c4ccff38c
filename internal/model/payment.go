package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentProvider names the gateway that handled a payment.
type PaymentProvider string

const (
	PaymentProviderStripe   PaymentProvider = "STRIPE"
	PaymentProviderMidtrans PaymentProvider = "MIDTRANS"
)

// PaymentStatus is the local mirror of the gateway state.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusExpired   PaymentStatus = "EXPIRED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Payment records one checkout for a paid course.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	CourseID      uuid.UUID       `json:"course_id"`
	CourseTitle   string          `json:"course_title,omitempty"`
	Provider      PaymentProvider `json:"provider"`
	ProviderRef   *string         `json:"provider_ref,omitempty"`
	AmountCents   int64           `json:"amount_cents"`
	Currency      string          `json:"currency"`
	Status        PaymentStatus   `json:"status"`
	CheckoutURL   *string         `json:"checkout_url,omitempty"`
	FailureReason *string         `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CheckoutRequest optionally picks a provider for a checkout.
type CheckoutRequest struct {
	Provider PaymentProvider `json:"provider" binding:"omitempty,oneof=STRIPE MIDTRANS"`
}

// CheckoutResponse is returned after a checkout session is opened.
type CheckoutResponse struct {
	Payment     *Payment `json:"payment"`
	CheckoutURL string   `json:"checkout_url"`
}
