package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrMissingLocator   = New(http.StatusBadRequest, "MISSING_LOCATOR", "No feed address configured")

	// 404 Not Found
	ErrNotFound        = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrStudentNotFound = New(http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found in current dataset")
	ErrNoStudents      = New(http.StatusNotFound, "NO_STUDENTS", "Dataset contains no students")

	// 409 Conflict
	ErrDatasetNotLoaded = New(http.StatusConflict, "DATASET_NOT_LOADED", "No dataset is currently loaded")

	// 422 Unprocessable Entity
	ErrFeedFormat = New(http.StatusUnprocessableEntity, "FEED_FORMAT", "Feed payload is not a published feed")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer   = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrWebSocketUpgrade = New(http.StatusInternalServerError, "WEBSOCKET_UPGRADE_FAILED", "WebSocket upgrade failed")

	// 502 Bad Gateway
	ErrFeedTransport = New(http.StatusBadGateway, "FEED_TRANSPORT", "Feed request failed")
)

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// FeedTransportError creates a transport error carrying the upstream status
func FeedTransportError(status int, err error) *APIError {
	message := "Feed request failed"
	if status != 0 {
		message = fmt.Sprintf("Feed returned status %d", status)
	}
	details := map[string]interface{}{"upstream_status": status}
	if err != nil {
		details["cause"] = err.Error()
	}
	return NewWithDetails(http.StatusBadGateway, "FEED_TRANSPORT", message, details)
}

// FeedFormatError creates a format error with the parse failure reason
func FeedFormatError(err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, "FEED_FORMAT", "Feed payload is not a published feed", err.Error())
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}
