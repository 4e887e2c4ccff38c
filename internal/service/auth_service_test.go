package service

import (
	"context"
	"testing"
	"time"

	"github.com/stemsi/learnhub-backend/internal/mailer"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerUser(t *testing.T, env *testEnv, email string) *model.User {
	t.Helper()
	u, err := env.auth.Register(context.Background(), model.RegisterRequest{
		Name:     "Ann Lee",
		Email:    email,
		Password: "Secret123",
	}, RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	return u
}

func TestAuth_RegisterAndVerifyEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := registerUser(t, env, "  Ann@Example.com ")
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, model.RoleStudent, u.Role)
	assert.False(t, u.EmailVerified)
	assert.NotEqual(t, "Secret123", u.PasswordHash)

	code := env.lastCode(t, mailer.TemplateVerifyEmail)
	assert.Len(t, code, 6)

	err := env.auth.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "ann@example.com", Code: "000000x"}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	require.NoError(t, env.auth.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "ann@example.com", Code: code}, RequestMeta{}))
	assert.True(t, env.users.byID[u.ID].EmailVerified)

	// Verifying again is a no-op.
	require.NoError(t, env.auth.VerifyEmail(ctx, model.VerifyEmailRequest{Email: "ann@example.com", Code: code}, RequestMeta{}))
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "ann@example.com")

	_, err := env.auth.Register(context.Background(), model.RegisterRequest{
		Name: "Other", Email: "ANN@example.com", Password: "Secret123",
	}, RequestMeta{})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuth_ResendVerificationIsThrottledAndSilent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerUser(t, env, "ann@example.com")

	assert.ErrorIs(t, env.auth.ResendVerification(ctx, "ann@example.com"), ErrOTPThrottled)
	assert.NoError(t, env.auth.ResendVerification(ctx, "nobody@example.com"))

	env.mr.FastForward(env.cfg.OTPResendAfter)
	assert.NoError(t, env.auth.ResendVerification(ctx, "ann@example.com"))
	assert.Equal(t, []string{mailer.TemplateVerifyEmail, mailer.TemplateVerifyEmail}, env.templates(t))
}

func TestAuth_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "ann@example.com")

	tests := []struct {
		name    string
		email   string
		pass    string
		active  bool
		wantErr error
	}{
		{name: "unknown email", email: "bob@example.com", pass: "Secret123", active: true, wantErr: ErrInvalidCredentials},
		{name: "wrong password", email: "ann@example.com", pass: "nope", active: true, wantErr: ErrInvalidCredentials},
		{name: "disabled account", email: "ann@example.com", pass: "Secret123", active: false, wantErr: ErrAccountDisabled},
		{name: "success", email: "ANN@example.com", pass: "Secret123", active: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.users.byID[u.ID].IsActive = tt.active
			res, err := env.auth.Login(ctx, model.LoginRequest{Email: tt.email, Password: tt.pass}, RequestMeta{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, res.TwoFactorRequired)
			require.NotEmpty(t, res.Token)

			claims, err := env.auth.ValidateToken(res.Token)
			require.NoError(t, err)
			assert.Equal(t, TokenTypeAccess, claims.TokenType)
			assert.Equal(t, u.ID, claims.UserID)
			assert.Equal(t, model.RoleStudent, claims.Role)
			assert.ElementsMatch(t, model.PermissionsFor(model.RoleStudent), claims.Permissions)
			assert.NotNil(t, env.users.byID[u.ID].LastLoginAt)
		})
	}
}

func TestAuth_TwoFactorLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "ann@example.com")

	assert.ErrorIs(t, env.auth.SetTwoFactor(ctx, u.ID, true, RequestMeta{}), ErrEmailNotVerified)
	env.users.byID[u.ID].EmailVerified = true
	require.NoError(t, env.auth.SetTwoFactor(ctx, u.ID, true, RequestMeta{}))

	res, err := env.auth.Login(ctx, model.LoginRequest{Email: "ann@example.com", Password: "Secret123"}, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, res.TwoFactorRequired)
	assert.Empty(t, res.Token)
	require.NotEmpty(t, res.ChallengeToken)

	code := env.lastCode(t, mailer.TemplateLoginOTP)

	_, err = env.auth.VerifyLogin(ctx, model.VerifyLoginRequest{ChallengeToken: res.ChallengeToken, Code: "999999"}, RequestMeta{})
	if code != "999999" {
		assert.ErrorIs(t, err, ErrInvalidOTP)
	}

	done, err := env.auth.VerifyLogin(ctx, model.VerifyLoginRequest{ChallengeToken: res.ChallengeToken, Code: code}, RequestMeta{})
	require.NoError(t, err)
	assert.NotEmpty(t, done.Token)

	// The code is single use.
	_, err = env.auth.VerifyLogin(ctx, model.VerifyLoginRequest{ChallengeToken: res.ChallengeToken, Code: code}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestAuth_AccessTokenIsNotAChallenge(t *testing.T) {
	env := newTestEnv(t)
	u := env.users.add(&model.User{Email: "a@example.com", IsActive: true})

	token, err := env.auth.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = env.auth.VerifyLogin(context.Background(), model.VerifyLoginRequest{ChallengeToken: token, Code: "123456"}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, env.auth.ResendLoginOTP(context.Background(), "garbage"), ErrInvalidToken)
}

func TestAuth_LogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.users.add(&model.User{Email: "a@example.com", IsActive: true})

	token, err := env.auth.GenerateAccessToken(u)
	require.NoError(t, err)
	claims, err := env.auth.ValidateToken(token)
	require.NoError(t, err)

	revoked, err := env.auth.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, env.auth.Logout(ctx, claims, RequestMeta{}))

	revoked, err = env.auth.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Greater(t, env.mr.TTL("auth:revoked:"+claims.ID), time.Duration(0))
}

func TestAuth_PasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "ann@example.com")
	env.mr.FastForward(env.cfg.OTPResendAfter)

	require.NoError(t, env.auth.ForgotPassword(ctx, "ann@example.com"))
	require.NoError(t, env.auth.ForgotPassword(ctx, "ghost@example.com"))
	code := env.lastCode(t, mailer.TemplatePasswordReset)

	err := env.auth.ResetPassword(ctx, model.ResetPasswordRequest{
		Email: "ann@example.com", Code: code, NewPassword: "Another123",
	}, RequestMeta{})
	require.NoError(t, err)
	assert.True(t, env.users.byID[u.ID].EmailVerified)

	_, err = env.auth.Login(ctx, model.LoginRequest{Email: "ann@example.com", Password: "Secret123"}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, model.LoginRequest{Email: "ann@example.com", Password: "Another123"}, RequestMeta{})
	assert.NoError(t, err)
}

func TestAuth_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := registerUser(t, env, "ann@example.com")

	err := env.auth.ChangePassword(ctx, u.ID, model.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "Another123"}, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.auth.ChangePassword(ctx, u.ID, model.ChangePasswordRequest{CurrentPassword: "Secret123", NewPassword: "Another123"}, RequestMeta{}))
	assert.NoError(t, env.auth.CheckPassword(env.users.byID[u.ID].PasswordHash, "Another123"))
}
