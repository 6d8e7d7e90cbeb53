package errors

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/render"

	"marksheet/internal/feed"
	"marksheet/internal/services"
)

// ErrorHandler is the single boundary that converts internal failures into
// user-facing responses. Refresh taxonomy errors (missing locator,
// transport, format) and service sentinels each map to a stable error code
// so clients can distinguish them.
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// HandleError classifies err, logs it, and writes the JSON error response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	apiErr := h.Classify(err)
	render.Render(w, r, NewErrorResponse(apiErr))
}

// Classify maps an internal error to its APIError. Unrecognized errors
// become a generic internal server error rather than leaking internals.
func (h *ErrorHandler) Classify(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var transportErr *feed.TransportError
	var formatErr *feed.FormatError

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return New(http.StatusGatewayTimeout, "TIMEOUT", "The request took too long to process")
	case errors.Is(err, feed.ErrMissingLocator):
		return ErrMissingLocator
	case errors.As(err, &transportErr):
		return FeedTransportError(transportErr.Status, transportErr.Err)
	case errors.As(err, &formatErr):
		return FeedFormatError(formatErr)
	case errors.Is(err, services.ErrStudentNotFound):
		return ErrStudentNotFound
	case errors.Is(err, services.ErrNoStudents):
		return ErrNoStudents
	case errors.Is(err, services.ErrDatasetNotLoaded):
		return ErrDatasetNotLoaded
	case errors.Is(err, services.ErrInvalidInput):
		return ErrInvalidRequest
	default:
		return ErrInternalServer
	}
}

// HandlePanic recovers from panics with a generic internal error response.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	render.Render(w, r, NewErrorResponse(ErrInternalServer))
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, NewErrorResponse(ErrNotFound))
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Render(w, r, NewErrorResponse(
		New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method "+r.Method+" is not allowed for this endpoint")))
}
