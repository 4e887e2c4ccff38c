package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrAccountDisabled    ErrCode = "ACCOUNT_DISABLED"
	ErrEmailNotVerified   ErrCode = "EMAIL_NOT_VERIFIED"
	ErrInvalidOTP         ErrCode = "INVALID_OTP"
	ErrOTPThrottled       ErrCode = "OTP_THROTTLED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenRevoked       ErrCode = "TOKEN_REVOKED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrNotEnrolled      ErrCode = "NOT_ENROLLED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidAnswer  ErrCode = "INVALID_ANSWER_KEY"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Learning ──────────────────────────────────────────────────────
	ErrCourseNotPublished ErrCode = "COURSE_NOT_PUBLISHED"
	ErrCourseEmpty        ErrCode = "COURSE_HAS_NO_LESSONS"
	ErrAlreadyEnrolled    ErrCode = "ALREADY_ENROLLED"
	ErrAttemptsExhausted  ErrCode = "ATTEMPTS_EXHAUSTED"
	ErrAlreadyReviewed    ErrCode = "ALREADY_REVIEWED"

	// ─── Payments ──────────────────────────────────────────────────────
	ErrPaymentRequired    ErrCode = "PAYMENT_REQUIRED"
	ErrCourseIsFree       ErrCode = "COURSE_IS_FREE"
	ErrPaymentProvider    ErrCode = "PAYMENT_PROVIDER_ERROR"
	ErrInvalidSignature   ErrCode = "INVALID_SIGNATURE"
	ErrProviderNotEnabled ErrCode = "PAYMENT_PROVIDER_DISABLED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal           ErrCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrAccountDisabled:
		return "This account has been disabled."
	case ErrEmailNotVerified:
		return "Please verify your email address first."
	case ErrInvalidOTP:
		return "The verification code is invalid or has expired."
	case ErrOTPThrottled:
		return "Please wait before requesting another code."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid or expired."
	case ErrTokenRevoked:
		return "This session has been signed out."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrNotEnrolled:
		return "You are not enrolled in this course."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidAnswer:
		return "The correct answer does not match the question type format."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "The resource is still referenced by other data."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Learning ──────────────────────────────────────────────────────
	case ErrCourseNotPublished:
		return "This course is not published."
	case ErrCourseEmpty:
		return "A course needs at least one lesson before it can be published."
	case ErrAlreadyEnrolled:
		return "You are already enrolled in this course."
	case ErrAttemptsExhausted:
		return "No attempts left for this assessment."
	case ErrAlreadyReviewed:
		return "You have already reviewed this course."

	// ─── Payments ──────────────────────────────────────────────────────
	case ErrPaymentRequired:
		return "This course requires payment before enrolling."
	case ErrCourseIsFree:
		return "This course is free. Enroll directly."
	case ErrPaymentProvider:
		return "The payment provider could not process the request."
	case ErrInvalidSignature:
		return "Webhook signature verification failed."
	case ErrProviderNotEnabled:
		return "The selected payment provider is not configured."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File size exceeds the limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	case ErrServiceUnavailable:
		return "A required service is unavailable."
	default:
		return "An unexpected error occurred."
	}
}
