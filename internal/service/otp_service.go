package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/learnhub-backend/internal/config"
	"github.com/stemsi/learnhub-backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

const otpDigits = 6

// OTPService issues and checks one-time codes. Only bcrypt hashes are stored.
type OTPService struct {
	cfg  *config.Config
	rdb  *redis.Client
	repo OTPStore
	now  func() time.Time
}

// NewOTPService creates a new OTPService.
func NewOTPService(cfg *config.Config, rdb *redis.Client, repo OTPStore) *OTPService {
	return &OTPService{cfg: cfg, rdb: rdb, repo: repo, now: time.Now}
}

// Issue creates a fresh code for userID and purpose and returns it in clear
// text so it can be emailed. Older codes of the same purpose stop working.
// Returns ErrOTPThrottled when a code was issued less than OTPResendAfter ago.
func (s *OTPService) Issue(ctx context.Context, userID uuid.UUID, purpose model.OTPPurpose) (string, error) {
	throttleKey := config.CacheKey.OTPResendKey(userID.String(), string(purpose))
	ok, err := s.rdb.SetNX(ctx, throttleKey, 1, s.cfg.OTPResendAfter).Result()
	if err != nil {
		return "", fmt.Errorf("otp throttle: %w", err)
	}
	if !ok {
		return "", ErrOTPThrottled
	}

	code, err := generateCode(otpDigits)
	if err != nil {
		s.rdb.Del(ctx, throttleKey)
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cfg.BcryptCost)
	if err != nil {
		s.rdb.Del(ctx, throttleKey)
		return "", fmt.Errorf("hash otp: %w", err)
	}

	otp := &model.OTP{
		UserID:    userID,
		Purpose:   purpose,
		CodeHash:  string(hash),
		ExpiresAt: s.now().Add(s.cfg.OTPTTL),
	}
	if err := s.repo.Create(ctx, otp); err != nil {
		s.rdb.Del(ctx, throttleKey)
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks code against the newest code for userID and purpose and
// consumes it on success. Each try is counted before the hash comparison, so
// no more than OTPMaxAttempts guesses are ever checked, even in parallel.
func (s *OTPService) Verify(ctx context.Context, userID uuid.UUID, purpose model.OTPPurpose, code string) error {
	otp, err := s.repo.Latest(ctx, userID, purpose)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}
	now := s.now()
	if !otp.Usable(now, s.cfg.OTPMaxAttempts) {
		return ErrInvalidOTP
	}

	if _, err := s.repo.ReserveAttempt(ctx, otp.ID, now, s.cfg.OTPMaxAttempts); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		return ErrInvalidOTP
	}

	if err := s.repo.Consume(ctx, otp.ID, s.cfg.OTPMaxAttempts); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost a race against a concurrent verification.
			return ErrInvalidOTP
		}
		return err
	}
	return nil
}

// Purge deletes expired and consumed codes.
func (s *OTPService) Purge(ctx context.Context) (int64, error) {
	return s.repo.Purge(ctx, s.now())
}

// ExpiresMinutes is the code lifetime shown in emails.
func (s *OTPService) ExpiresMinutes() int {
	return int(s.cfg.OTPTTL / time.Minute)
}

func generateCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}
