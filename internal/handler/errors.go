package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/learnhub-backend/internal/middleware"
	"github.com/stemsi/learnhub-backend/internal/model"
	"github.com/stemsi/learnhub-backend/internal/response"
	"github.com/stemsi/learnhub-backend/internal/service"
	"github.com/stemsi/learnhub-backend/internal/validator"
)

type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
}

// errorMappings is checked in order with errors.Is; the first match wins.
var errorMappings = []errorMapping{
	{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},

	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrAccountDisabled, http.StatusForbidden, response.ErrAccountDisabled},
	{service.ErrEmailNotVerified, http.StatusForbidden, response.ErrEmailNotVerified},
	{service.ErrEmailTaken, http.StatusConflict, response.ErrConflict},
	{service.ErrInvalidOTP, http.StatusBadRequest, response.ErrInvalidOTP},
	{service.ErrOTPThrottled, http.StatusTooManyRequests, response.ErrOTPThrottled},
	{service.ErrInvalidToken, http.StatusUnauthorized, response.ErrTokenInvalid},
	{service.ErrTokenRevoked, http.StatusUnauthorized, response.ErrTokenRevoked},

	{service.ErrForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrNotEnrolled, http.StatusForbidden, response.ErrNotEnrolled},
	{service.ErrActionForbidden, http.StatusConflict, response.ErrActionForbidden},

	{service.ErrConflict, http.StatusConflict, response.ErrConflict},
	{service.ErrDuplicate, http.StatusConflict, response.ErrConflict},
	{service.ErrDependencyExists, http.StatusConflict, response.ErrDependencyExists},
	{service.ErrReferenced, http.StatusConflict, response.ErrDependencyExists},

	{service.ErrCourseNotPublished, http.StatusConflict, response.ErrCourseNotPublished},
	{service.ErrCourseEmpty, http.StatusConflict, response.ErrCourseEmpty},
	{service.ErrAlreadyEnrolled, http.StatusConflict, response.ErrAlreadyEnrolled},
	{service.ErrAttemptsExhausted, http.StatusConflict, response.ErrAttemptsExhausted},
	{service.ErrAssessmentEmpty, http.StatusConflict, response.ErrActionForbidden},
	{service.ErrUnknownQuestion, http.StatusBadRequest, response.ErrInvalidPayload},
	{service.ErrInvalidAnswerKey, http.StatusUnprocessableEntity, response.ErrInvalidAnswer},
	{service.ErrAlreadyReviewed, http.StatusConflict, response.ErrAlreadyReviewed},

	{service.ErrPaymentRequired, http.StatusPaymentRequired, response.ErrPaymentRequired},
	{service.ErrCourseIsFree, http.StatusConflict, response.ErrCourseIsFree},
	{service.ErrProviderDisabled, http.StatusBadRequest, response.ErrProviderNotEnabled},
	{service.ErrPaymentProvider, http.StatusBadGateway, response.ErrPaymentProvider},
	{service.ErrInvalidSignature, http.StatusBadRequest, response.ErrInvalidSignature},

	{service.ErrUnsupportedFile, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge},
}

// failErr writes the envelope matching err. Unknown errors are logged with
// the request id and returned as INTERNAL_ERROR.
func failErr(c *gin.Context, log zerolog.Logger, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}
	log.Error().Err(err).
		Str("request_id", response.RequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Unhandled error")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// paramID parses a UUID path parameter, writing INVALID_ID on failure.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON validates the body into dst, writing VALIDATION_ERROR on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if fields := validator.Bind(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false
	}
	return true
}

// bindQuery validates the query string into dst.
func bindQuery(c *gin.Context, dst interface{}) bool {
	if fields := validator.BindQuery(c, dst); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return false
	}
	return true
}

// requireActor returns the caller or writes TOKEN_REQUIRED.
func requireActor(c *gin.Context) (*service.Actor, bool) {
	actor := middleware.GetActor(c)
	if actor == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}
	return actor, true
}

// paginated writes a list with its pagination block.
func paginated(c *gin.Context, items interface{}, p model.PageQuery, total int) {
	p.Normalize()
	response.SuccessWithPagination(c, http.StatusOK, items, response.NewPagination(p.Page, p.PerPage, total))
}
