package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/mailer"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// TokenType distinguishes full access tokens from two-factor challenges.
type TokenType string

const (
	TokenTypeAccess    TokenType = "access"
	TokenTypeChallenge TokenType = "challenge"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	TokenType      TokenType  `json:"token_type"`
	UserID         uuid.UUID  `json:"user_id"`
	Role           model.Role `json:"role,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	Permissions    []string   `json:"permissions,omitempty"`
}

// Actor converts access-token claims into a service Actor.
func (c *Claims) Actor() *Actor {
	return &Actor{UserID: c.UserID, Role: c.Role, OrganizationID: c.OrganizationID}
}

// AuthService handles registration, login, OTP two-factor, passwords and JWTs.
type AuthService struct {
	cfg      *config.Config
	rdb      *redis.Client
	users    UserStore
	otp      *OTPService
	mail     *MailService
	activity *ActivityService
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, users UserStore, otp *OTPService, mail *MailService, activity *ActivityService, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		rdb:      rdb,
		users:    users,
		otp:      otp,
		mail:     mail,
		activity: activity,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ----------------------------------------------------------------
// Tokens
// ----------------------------------------------------------------

// GenerateAccessToken creates a JWT carrying the user's role and permissions.
func (s *AuthService) GenerateAccessToken(u *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		TokenType:      TokenTypeAccess,
		UserID:         u.ID,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		Permissions:    model.PermissionsFor(u.Role),
	}
	return s.sign(claims)
}

func (s *AuthService) generateChallengeToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.ChallengeExpiry)),
		},
		TokenType: TokenTypeChallenge,
		UserID:    userID,
	}
	return s.sign(claims)
}

func (s *AuthService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) validateChallenge(tokenStr string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeChallenge {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Revoke puts a token id on the denylist until the token would have expired.
func (s *AuthService) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, config.CacheKey.RevokedTokenKey(jti), 1, ttl).Err()
}

// IsRevoked reports whether the token id was logged out.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.RevokedTokenKey(jti)).Result()
	return n > 0, err
}

// IsDisabled reports whether the user was deactivated after their token was issued.
func (s *AuthService) IsDisabled(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.DisabledUserKey(userID.String())).Result()
	return n > 0, err
}

// ----------------------------------------------------------------
// Registration & email verification
// ----------------------------------------------------------------

// Register creates a STUDENT account and emails an EMAIL_VERIFY code.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, meta RequestMeta) (*model.User, error) {
	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		Email:        normalizeEmail(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         model.RoleStudent,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sendCode(ctx, u, model.OTPPurposeEmailVerify); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID.String()).Msg("send verification code")
	}
	s.activity.Record(ctx, &u.ID, model.ActivityRegister, "user", u.ID.String(), meta, nil)
	return u, nil
}

// VerifyEmail marks the address as verified with an EMAIL_VERIFY code.
func (s *AuthService) VerifyEmail(ctx context.Context, req model.VerifyEmailRequest, meta RequestMeta) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if u.EmailVerified {
		return nil
	}
	if err := s.otp.Verify(ctx, u.ID, model.OTPPurposeEmailVerify, req.Code); err != nil {
		return err
	}
	if err := s.users.MarkEmailVerified(ctx, u.ID); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	s.activity.Record(ctx, &u.ID, model.ActivityEmailVerified, "user", u.ID.String(), meta, nil)
	return nil
}

// ResendVerification re-issues the EMAIL_VERIFY code. Unknown or already
// verified addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if u.EmailVerified || !u.IsActive {
		return nil
	}
	return s.sendCode(ctx, u, model.OTPPurposeEmailVerify)
}

// ----------------------------------------------------------------
// Login
// ----------------------------------------------------------------

// Login checks the password. Accounts with two-factor enabled get a
// challenge token and an emailed code instead of an access token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest, meta RequestMeta) (*model.LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.CheckPassword(u.PasswordHash, req.Password); err != nil {
		s.activity.Record(ctx, &u.ID, model.ActivityLoginFailed, "user", u.ID.String(), meta, nil)
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	if u.TwoFactorEnabled {
		// A throttled resend leaves the previous code valid.
		if err := s.sendCode(ctx, u, model.OTPPurposeLogin); err != nil && !errors.Is(err, ErrOTPThrottled) {
			return nil, err
		}
		challenge, err := s.generateChallengeToken(u.ID)
		if err != nil {
			return nil, err
		}
		return &model.LoginResult{TwoFactorRequired: true, ChallengeToken: challenge}, nil
	}

	return s.completeLogin(ctx, u, meta)
}

// VerifyLogin finishes a two-factor login.
func (s *AuthService) VerifyLogin(ctx context.Context, req model.VerifyLoginRequest, meta RequestMeta) (*model.LoginResult, error) {
	claims, err := s.validateChallenge(req.ChallengeToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := s.otp.Verify(ctx, u.ID, model.OTPPurposeLogin, req.Code); err != nil {
		return nil, err
	}
	return s.completeLogin(ctx, u, meta)
}

// ResendLoginOTP re-issues the code of a pending two-factor login.
func (s *AuthService) ResendLoginOTP(ctx context.Context, challengeToken string) error {
	claims, err := s.validateChallenge(challengeToken)
	if err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	if !u.IsActive {
		return ErrAccountDisabled
	}
	return s.sendCode(ctx, u, model.OTPPurposeLogin)
}

func (s *AuthService) completeLogin(ctx context.Context, u *model.User, meta RequestMeta) (*model.LoginResult, error) {
	token, err := s.GenerateAccessToken(u)
	if err != nil {
		return nil, err
	}
	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("update last login")
	}
	s.activity.Record(ctx, &u.ID, model.ActivityLogin, "user", u.ID.String(), meta, nil)
	return &model.LoginResult{Token: token, User: u}, nil
}

// Logout revokes the presented access token.
func (s *AuthService) Logout(ctx context.Context, claims *Claims, meta RequestMeta) error {
	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := s.Revoke(ctx, claims.ID, exp); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	s.activity.Record(ctx, &claims.UserID, model.ActivityLogout, "user", claims.UserID.String(), meta, nil)
	return nil
}

// ----------------------------------------------------------------
// Passwords & two-factor settings
// ----------------------------------------------------------------

// ForgotPassword emails a PASSWORD_RESET code when the account exists.
// Unknown addresses and throttled resends succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if !u.IsActive {
		return nil
	}
	if err := s.sendCode(ctx, u, model.OTPPurposePasswordReset); err != nil && !errors.Is(err, ErrOTPThrottled) {
		return err
	}
	return nil
}

// ResetPassword sets a new password with a PASSWORD_RESET code. The code
// proves control of the mailbox, so the email is marked verified too.
func (s *AuthService) ResetPassword(ctx context.Context, req model.ResetPasswordRequest, meta RequestMeta) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	if err := s.otp.Verify(ctx, u.ID, model.OTPPurposePasswordReset, req.Code); err != nil {
		return err
	}
	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if !u.EmailVerified {
		if err := s.users.MarkEmailVerified(ctx, u.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("mark verified after reset")
		}
	}
	s.activity.Record(ctx, &u.ID, model.ActivityPasswordReset, "user", u.ID.String(), meta, nil)
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req model.ChangePasswordRequest, meta RequestMeta) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.CheckPassword(u.PasswordHash, req.CurrentPassword); err != nil {
		return err
	}
	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.activity.Record(ctx, &userID, model.ActivityPasswordChanged, "user", userID.String(), meta, nil)
	return nil
}

// SetTwoFactor toggles email two-factor. Enabling needs a verified address.
func (s *AuthService) SetTwoFactor(ctx context.Context, userID uuid.UUID, enabled bool, meta RequestMeta) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if enabled && !u.EmailVerified {
		return ErrEmailNotVerified
	}
	if err := s.users.SetTwoFactor(ctx, userID, enabled); err != nil {
		return err
	}
	s.activity.Record(ctx, &userID, model.ActivityTwoFactorToggled, "user", userID.String(), meta,
		map[string]interface{}{"enabled": enabled})
	return nil
}

// sendCode issues an OTP for purpose and queues the matching email.
func (s *AuthService) sendCode(ctx context.Context, u *model.User, purpose model.OTPPurpose) error {
	code, err := s.otp.Issue(ctx, u.ID, purpose)
	if err != nil {
		return err
	}
	return s.mail.Enqueue(ctx, otpTemplates[purpose], u.Email, u.Name, map[string]interface{}{
		"Name":           u.Name,
		"Code":           code,
		"ExpiresMinutes": s.otp.ExpiresMinutes(),
	})
}

var otpTemplates = map[model.OTPPurpose]string{
	model.OTPPurposeEmailVerify:   mailer.TemplateVerifyEmail,
	model.OTPPurposeLogin:         mailer.TemplateLoginOTP,
	model.OTPPurposePasswordReset: mailer.TemplatePasswordReset,
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
