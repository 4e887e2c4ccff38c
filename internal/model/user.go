package model

import (
	"time"

	"github.com/google/uuid"
)

// User is any account on the platform. Role decides what it may do.
type User struct {
	ID               uuid.UUID  `json:"id"`
	OrganizationID   *uuid.UUID `json:"organization_id,omitempty"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"`
	Role             Role       `json:"role"`
	AvatarURL        *string    `json:"avatar_url,omitempty"`
	EmailVerified    bool       `json:"email_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	IsActive         bool       `json:"is_active"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// RegisterRequest is the payload for self sign-up.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128,password"`
}

// LoginRequest is the payload for password authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=128"`
}

// LoginResult is returned by a login step. Either Token or ChallengeToken is set.
type LoginResult struct {
	Token             string `json:"token,omitempty"`
	User              *User  `json:"user,omitempty"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	ChallengeToken    string `json:"challenge_token,omitempty"`
}

// VerifyEmailRequest confirms an email address with the code that was sent to it.
type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

// ResendVerificationRequest asks for a new email verification code.
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyLoginRequest completes a two-factor login.
type VerifyLoginRequest struct {
	ChallengeToken string `json:"challenge_token" binding:"required"`
	Code           string `json:"code" binding:"required,len=6,numeric"`
}

// ResendOTPRequest re-issues the login code for a pending challenge.
type ResendOTPRequest struct {
	ChallengeToken string `json:"challenge_token" binding:"required"`
}

// ForgotPasswordRequest starts the password reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest finishes the password reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128,password"`
}

// UpdateProfileRequest edits the caller's own profile.
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,min=2,max=100"`
}

// ChangePasswordRequest changes the caller's password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128,password"`
}

// TwoFactorRequest toggles email two-factor authentication.
type TwoFactorRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// UpdateUserRoleRequest is used by admins to change a user's role.
type UpdateUserRoleRequest struct {
	Role Role `json:"role" binding:"required,oneof=STUDENT INSTRUCTOR ORG_ADMIN ADMIN"`
}

// UpdateUserStatusRequest is used by admins to (de)activate an account.
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// UserListParams filters the admin user list.
type UserListParams struct {
	PageQuery
	Role  string `form:"role" binding:"omitempty,oneof=STUDENT INSTRUCTOR ORG_ADMIN ADMIN"`
	Query string `form:"q" binding:"omitempty,max=100"`
}
