package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RevokedTokenKey marks a JWT ID as logged out until the token would have expired.
func (r *CacheKeyStruct) RevokedTokenKey(jti string) string {
	return fmt.Sprintf("auth:revoked:%s", jti)
}

// DisabledUserKey blocks every token of a deactivated user until the longest token expires.
func (r *CacheKeyStruct) DisabledUserKey(userID string) string {
	return fmt.Sprintf("auth:disabled:%s", userID)
}

// OTPResendKey throttles OTP issuing for one user and purpose.
func (r *CacheKeyStruct) OTPResendKey(userID, purpose string) string {
	return fmt.Sprintf("otp:%s:%s:resend", userID, purpose)
}

// RateLimitKey returns the fixed-window counter key for a limiter scope.
func (r *CacheKeyStruct) RateLimitKey(scope, subject string, window int64) string {
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, subject, window)
}

// CourseOutlineKey caches the public outline (modules + lessons) of a course.
func (r *CacheKeyStruct) CourseOutlineKey(courseID string) string {
	return fmt.Sprintf("course:%s:outline", courseID)
}

// UserNotificationChannel returns the Redis PubSub channel for a user's notifications.
func (r *CacheKeyStruct) UserNotificationChannel(userID string) string {
	return fmt.Sprintf("user:%s:notifications", userID)
}

var CacheKey = NewCacheKeyStruct()
