package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
)

// AuthHandler handles registration, login and two-factor endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates a student account and emails a verification code.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, user)
}

// VerifyEmail godoc
// POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req model.VerifyEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.VerifyEmail(c.Request.Context(), req, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"email_verified": true})
}

// ResendVerification godoc
// POST /api/v1/auth/verify-email/resend
// Always answers 200 so the endpoint cannot be used to enumerate accounts.
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req model.ResendVerificationRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "If the address is registered and unverified, a new code was sent."})
}

// Login godoc
// POST /api/v1/auth/login
// Returns a token, or a challenge token when two-factor is enabled.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// VerifyLogin godoc
// POST /api/v1/auth/login/verify
func (h *AuthHandler) VerifyLogin(c *gin.Context) {
	var req model.VerifyLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.VerifyLogin(c.Request.Context(), req, middleware.Meta(c))
	if err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ResendOTP godoc
// POST /api/v1/auth/otp/resend
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req model.ResendOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResendLoginOTP(c.Request.Context(), req.ChallengeToken); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "A new code was sent."})
}

// ForgotPassword godoc
// POST /api/v1/auth/password/forgot
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "If the address is registered, a reset code was sent."})
}

// ResetPassword godoc
// POST /api/v1/auth/password/reset
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password updated."})
}

// Logout godoc
// POST /api/v1/auth/logout
// Puts the current token on the denylist until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ChangePassword godoc
// POST /api/v1/auth/me/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req model.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), actor.UserID, req, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password updated."})
}

// SetTwoFactor godoc
// POST /api/v1/auth/2fa
func (h *AuthHandler) SetTwoFactor(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req model.TwoFactorRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.SetTwoFactor(c.Request.Context(), actor.UserID, *req.Enabled, middleware.Meta(c)); err != nil {
		failErr(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"two_factor_enabled": *req.Enabled})
}
