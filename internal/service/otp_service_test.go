package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTP_IssueAndVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := env.otp.Issue(ctx, userID, model.OTPPurposeLogin)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)
	require.Len(t, env.otpRepo.codes, 1)
	assert.NotEqual(t, code, env.otpRepo.codes[0].CodeHash)

	require.NoError(t, env.otp.Verify(ctx, userID, model.OTPPurposeLogin, code))
	assert.ErrorIs(t, env.otp.Verify(ctx, userID, model.OTPPurposeLogin, code), ErrInvalidOTP)
}

func TestOTP_ResendThrottle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := env.otp.Issue(ctx, userID, model.OTPPurposeLogin)
	require.NoError(t, err)

	_, err = env.otp.Issue(ctx, userID, model.OTPPurposeLogin)
	assert.ErrorIs(t, err, ErrOTPThrottled)

	// Other purposes have their own throttle.
	_, err = env.otp.Issue(ctx, userID, model.OTPPurposePasswordReset)
	assert.NoError(t, err)

	env.mr.FastForward(env.cfg.OTPResendAfter + time.Second)
	_, err = env.otp.Issue(ctx, userID, model.OTPPurposeLogin)
	assert.NoError(t, err)
}

func TestOTP_NewCodeReplacesOld(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	first, err := env.otp.Issue(ctx, userID, model.OTPPurposeEmailVerify)
	require.NoError(t, err)
	env.mr.FastForward(env.cfg.OTPResendAfter)
	second, err := env.otp.Issue(ctx, userID, model.OTPPurposeEmailVerify)
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, env.otp.Verify(ctx, userID, model.OTPPurposeEmailVerify, first), ErrInvalidOTP)
	}
	assert.NoError(t, env.otp.Verify(ctx, userID, model.OTPPurposeEmailVerify, second))
}

func TestOTP_AttemptLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := env.otp.Issue(ctx, userID, model.OTPPurposeLogin)
	require.NoError(t, err)

	wrong := "wrong"
	for i := 0; i < env.cfg.OTPMaxAttempts; i++ {
		assert.ErrorIs(t, env.otp.Verify(ctx, userID, model.OTPPurposeLogin, wrong), ErrInvalidOTP)
	}
	assert.Equal(t, env.cfg.OTPMaxAttempts, env.otpRepo.codes[0].Attempts)

	// Locked even with the right code.
	assert.ErrorIs(t, env.otp.Verify(ctx, userID, model.OTPPurposeLogin, code), ErrInvalidOTP)
}

// gatedOTPs holds every Latest call until all callers have read the code.
type gatedOTPs struct {
	*fakeOTPs
	readers *sync.WaitGroup
}

func (g gatedOTPs) Latest(ctx context.Context, userID uuid.UUID, purpose model.OTPPurpose) (*model.OTP, error) {
	o, err := g.fakeOTPs.Latest(ctx, userID, purpose)
	g.readers.Done()
	g.readers.Wait()
	return o, err
}

func TestOTP_AttemptLimitHoldsUnderParallelGuesses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := env.otp.Issue(ctx, userID, model.OTPPurposeLogin)
	require.NoError(t, err)

	const guesses = 10
	var readers sync.WaitGroup
	readers.Add(guesses)
	env.otp.repo = gatedOTPs{fakeOTPs: env.otpRepo, readers: &readers}

	errs := make([]error, guesses)
	var wg sync.WaitGroup
	for i := range guesses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			guess := "000000"
			if code == guess {
				guess = "111111"
			}
			if i == guesses-1 {
				guess = code
			}
			errs[i] = env.otp.Verify(ctx, userID, model.OTPPurposeLogin, guess)
		}()
	}
	wg.Wait()

	for i := 0; i < guesses-1; i++ {
		assert.ErrorIs(t, errs[i], ErrInvalidOTP)
	}
	assert.Equal(t, env.cfg.OTPMaxAttempts, env.otpRepo.codes[0].Attempts)
}

func TestOTP_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := uuid.New()

	code, err := env.otp.Issue(ctx, userID, model.OTPPurposeLogin)
	require.NoError(t, err)

	env.otp.now = func() time.Time { return time.Now().Add(env.cfg.OTPTTL + time.Minute) }
	assert.ErrorIs(t, env.otp.Verify(ctx, userID, model.OTPPurposeLogin, code), ErrInvalidOTP)

	n, err := env.otp.Purge(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestOTP_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	assert.ErrorIs(t, env.otp.Verify(context.Background(), uuid.New(), model.OTPPurposeLogin, "123456"), ErrInvalidOTP)
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := generateCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
	}
}
