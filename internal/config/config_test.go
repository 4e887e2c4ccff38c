package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("JWT_EXPIRY_HOURS", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Nil(t, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("OTP_TTL_MINUTES", "3")
	t.Setenv("MIDTRANS_PRODUCTION", "true")
	t.Setenv("PAYMENT_PROVIDER", "midtrans")
	t.Setenv("APP_BASE_URL", "https://learn.example.com/")
	t.Setenv("PAYMENT_SUCCESS_URL", "")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 3*time.Minute, cfg.OTPTTL)
	assert.True(t, cfg.MidtransProduction)
	assert.Equal(t, "MIDTRANS", cfg.DefaultPaymentProvider)
	assert.Equal(t, "https://learn.example.com/payments/success", cfg.PaymentSuccessURL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("MAX_DB_CONNS", "many")
	assert.Equal(t, 16, getEnvInt("MAX_DB_CONNS", 16))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "user:abc:notifications", CacheKey.UserNotificationChannel("abc"))
	assert.Equal(t, "otp:u1:LOGIN_2FA:resend", CacheKey.OTPResendKey("u1", "LOGIN_2FA"))
	assert.Equal(t, "ratelimit:auth:1.2.3.4:42", CacheKey.RateLimitKey("auth", "1.2.3.4", 42))
	assert.Equal(t, "auth:disabled:u1", CacheKey.DisabledUserKey("u1"))
}

func TestQueues_Depths(t *testing.T) {
	depths := Queues.Depths()
	assert.Len(t, depths, 2)
	assert.Equal(t, Queues.Email, depths["email"])
	assert.Equal(t, Queues.ActivityLog, depths["activity_log"])
	assert.NotEqual(t, Queues.Email, Queues.ActivityLog)
}
