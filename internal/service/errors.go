package service

import (
	"errors"

	"github.com/stemsi/learnhub-backend/internal/repository"
)

// ErrNotFound is the repository sentinel, re-exported so handlers only need
// this package.
var ErrNotFound = repository.ErrNotFound

// Constraint violations surfaced unchanged from the repositories.
var (
	ErrDuplicate  = repository.ErrDuplicate
	ErrReferenced = repository.ErrReferenced
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrEmailNotVerified   = errors.New("email address is not verified")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrOTPThrottled       = errors.New("a code was sent recently, please wait")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// Access errors.
var (
	ErrForbidden       = errors.New("forbidden")
	ErrNotEnrolled     = errors.New("not enrolled in this course")
	ErrActionForbidden = errors.New("action not allowed")
)

// Domain errors.
var (
	ErrConflict           = errors.New("resource already exists")
	ErrDependencyExists   = errors.New("resource is still referenced")
	ErrCourseNotPublished = errors.New("course is not published")
	ErrCourseEmpty        = errors.New("course has no lessons")
	ErrAlreadyEnrolled    = errors.New("already enrolled")
	ErrAttemptsExhausted  = errors.New("no attempts left")
	ErrAssessmentEmpty    = errors.New("assessment has no questions")
	ErrUnknownQuestion    = errors.New("answer references a question outside this assessment")
	ErrInvalidAnswerKey   = errors.New("correct answer does not match the question type")
	ErrAlreadyReviewed    = errors.New("course already reviewed")
	ErrPaymentRequired    = errors.New("course requires payment")
	ErrCourseIsFree       = errors.New("course is free")
	ErrProviderDisabled   = errors.New("payment provider is not enabled")
	ErrPaymentProvider    = errors.New("payment provider error")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrUnsupportedFile    = errors.New("unsupported file type")
	ErrFileTooLarge       = errors.New("file too large")
)
