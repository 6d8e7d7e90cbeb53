package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"marksheet/internal/feed"
	"marksheet/internal/services"
)

func testHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestErrorHandler_Classify(t *testing.T) {
	h := testHandler()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "api error passes through",
			err:        ErrStudentNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "STUDENT_NOT_FOUND",
		},
		{
			name:       "missing locator",
			err:        feed.ErrMissingLocator,
			wantStatus: http.StatusBadRequest,
			wantCode:   "MISSING_LOCATOR",
		},
		{
			name:       "transport error with upstream status",
			err:        &feed.TransportError{Status: http.StatusForbidden},
			wantStatus: http.StatusBadGateway,
			wantCode:   "FEED_TRANSPORT",
		},
		{
			name:       "transport error from round trip failure",
			err:        &feed.TransportError{Err: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantCode:   "FEED_TRANSPORT",
		},
		{
			name:       "format error",
			err:        &feed.FormatError{Reason: "response wrapper not found"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FEED_FORMAT",
		},
		{
			name:       "dataset not loaded",
			err:        services.ErrDatasetNotLoaded,
			wantStatus: http.StatusConflict,
			wantCode:   "DATASET_NOT_LOADED",
		},
		{
			name:       "no students",
			err:        services.ErrNoStudents,
			wantStatus: http.StatusNotFound,
			wantCode:   "NO_STUDENTS",
		},
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "TIMEOUT",
		},
		{
			name:       "unknown error stays generic",
			err:        errors.New("database exploded"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := h.Classify(tt.err)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	h := testHandler()

	req := httptest.NewRequest("GET", "/api/results/aggregates", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, services.ErrDatasetNotLoaded)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"DATASET_NOT_LOADED"`)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestErrorHandler_WrappedErrorsClassify(t *testing.T) {
	h := testHandler()

	wrapped := fmt.Errorf("parsing feed: %w", &feed.FormatError{Reason: "embedded JSON has no table"})
	apiErr := h.Classify(wrapped)
	assert.Equal(t, "FEED_FORMAT", apiErr.ErrorCode)
}
