package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUserNotFound = "USER_NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Conflict reasons
const (
	ReasonAlreadyMember    = "ALREADY_MEMBER"
	ReasonDuplicatePending = "DUPLICATE_PENDING"
	ReasonAlreadyProcessed = "ALREADY_PROCESSED"
	ReasonProtectedRole    = "PROTECTED_ROLE"
	ReasonEmailTaken       = "EMAIL_TAKEN"
)

// Validation reasons
const (
	ReasonEmptyText    = "EMPTY_TEXT"
	ReasonUnknownField = "UNKNOWN_FIELD"
	ReasonInvalidEnum  = "INVALID_ENUM"
)

// APIError represents a standardized API error response. Services return it
// directly so the handler layer only has to pick a status code.
type APIError struct {
	Code    string      `json:"code"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithReason creates a new APIError qualified by a reason
func NewAPIErrorWithReason(code, reason, message string) *APIError {
	return &APIError{
		Code:    code,
		Reason:  reason,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Constructors for the kinds services return

func NewNotFound(message string) *APIError {
	return NewAPIError(ErrCodeNotFound, message)
}

func NewForbidden(message string) *APIError {
	return NewAPIError(ErrCodeForbidden, message)
}

func NewValidation(message string) *APIError {
	return NewAPIError(ErrCodeInvalidInput, message)
}

func NewValidationWithReason(reason, message string) *APIError {
	return NewAPIErrorWithReason(ErrCodeInvalidInput, reason, message)
}

func NewConflict(reason, message string) *APIError {
	return NewAPIErrorWithReason(ErrCodeConflict, reason, message)
}

// Predefined errors
var (
	ErrUnauthorized       = NewAPIError(ErrCodeUnauthorized, "Authentication required")
	ErrForbidden          = NewAPIError(ErrCodeForbidden, "Access denied")
	ErrNotFound           = NewAPIError(ErrCodeNotFound, "Resource not found")
	ErrInvalidInput       = NewAPIError(ErrCodeInvalidInput, "Invalid request body")
	ErrInternalError      = NewAPIError(ErrCodeInternalError, "Internal server error")
	ErrServiceUnavailable = NewAPIError(ErrCodeServiceUnavailable, "Service temporarily unavailable")
)

// Code returns the code of the APIError wrapped in err, or "" if none.
func Code(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// ReasonOf returns the reason of the APIError wrapped in err, or "" if none.
func ReasonOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason
	}
	return ""
}

// StatusCode maps an error code to its HTTP status.
func StatusCode(code string) int {
	switch code {
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeNotFound, ErrCodeUserNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Respond maps any error returned by a service to a response. Errors that are
// not an APIError are logged and hidden behind a generic 500.
func Respond(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		RespondWithError(c, StatusCode(apiErr.Code), apiErr)
		return
	}

	slog.ErrorContext(c.Request.Context(), "unhandled error",
		"error", err,
		"method", c.Request.Method,
		"path", c.FullPath(),
	)
	RespondWithError(c, http.StatusInternalServerError, ErrInternalError)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}
