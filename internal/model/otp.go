package model

import (
	"time"

	"github.com/google/uuid"
)

// OTPPurpose scopes a one-time code to one flow.
type OTPPurpose string

const (
	OTPPurposeLogin         OTPPurpose = "LOGIN_2FA"
	OTPPurposeEmailVerify   OTPPurpose = "EMAIL_VERIFY"
	OTPPurposePasswordReset OTPPurpose = "PASSWORD_RESET"
)

// OTP is a hashed one-time code.
type OTP struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	Purpose    OTPPurpose `json:"purpose"`
	CodeHash   string     `json:"-"`
	Attempts   int        `json:"attempts"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Usable reports whether the code can still be tried at time now.
func (o *OTP) Usable(now time.Time, maxAttempts int) bool {
	return o.ConsumedAt == nil && now.Before(o.ExpiresAt) && o.Attempts < maxAttempts
}
