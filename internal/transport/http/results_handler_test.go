package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "marksheet/internal/errors"
	"marksheet/internal/feed"
	"marksheet/internal/services"
	"marksheet/pkg/contracts/domain"
)

// MockResultsService is a mock implementation of ResultsServiceInterface
type MockResultsService struct {
	mock.Mock
}

func (m *MockResultsService) Refresh(ctx context.Context, locator string) (int, error) {
	args := m.Called(locator)
	return args.Int(0), args.Error(1)
}

func (m *MockResultsService) Snapshot(ctx context.Context) domain.Snapshot {
	args := m.Called()
	return args.Get(0).(domain.Snapshot)
}

func (m *MockResultsService) Averages(ctx context.Context) (domain.Averages, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Averages), args.Error(1)
}

func (m *MockResultsService) Student(ctx context.Context, name string) (domain.StudentRecord, error) {
	args := m.Called(name)
	return args.Get(0).(domain.StudentRecord), args.Error(1)
}

func (m *MockResultsService) Top(ctx context.Context) (domain.StudentRecord, error) {
	args := m.Called()
	return args.Get(0).(domain.StudentRecord), args.Error(1)
}

func (m *MockResultsService) StudentSummary(ctx context.Context, name string) (domain.StudentRecord, domain.Averages, int, error) {
	args := m.Called(name)
	if args.Get(1) == nil {
		return args.Get(0).(domain.StudentRecord), nil, args.Int(2), args.Error(3)
	}
	return args.Get(0).(domain.StudentRecord), args.Get(1).(domain.Averages), args.Int(2), args.Error(3)
}

func (m *MockResultsService) ExamSlots() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func newTestResultsHandler(service ResultsServiceInterface) *ResultsHandler {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	errorHandler := apierrors.NewErrorHandler(logger)
	return NewResultsHandler(service, logger, errorHandler)
}

func TestResultsHandler_Refresh(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockResultsService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "successful refresh without body",
			body: "",
			setupMock: func(m *MockResultsService) {
				m.On("Refresh", "").Return(42, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"records":42`,
		},
		{
			name: "successful refresh with locator override",
			body: `{"locator":"https://example.com/gviz"}`,
			setupMock: func(m *MockResultsService) {
				m.On("Refresh", "https://example.com/gviz").Return(3, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"records":3`,
		},
		{
			name:           "malformed body",
			body:           `{"locator":`,
			setupMock:      func(m *MockResultsService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_REQUEST"`,
		},
		{
			name:           "locator is not a url",
			body:           `{"locator":"not a url"}`,
			setupMock:      func(m *MockResultsService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"VALIDATION_FAILED"`,
		},
		{
			name: "missing locator",
			body: "",
			setupMock: func(m *MockResultsService) {
				m.On("Refresh", "").Return(0, feed.ErrMissingLocator)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"MISSING_LOCATOR"`,
		},
		{
			name: "upstream transport failure",
			body: "",
			setupMock: func(m *MockResultsService) {
				m.On("Refresh", "").Return(0, &feed.TransportError{Status: http.StatusBadGateway})
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"FEED_TRANSPORT"`,
		},
		{
			name: "unparseable feed",
			body: "",
			setupMock: func(m *MockResultsService) {
				m.On("Refresh", "").Return(0, &feed.FormatError{Reason: "response wrapper not found"})
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"FEED_FORMAT"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockResultsService)
			tt.setupMock(mockService)

			handler := newTestResultsHandler(mockService)

			req := httptest.NewRequest("POST", "/api/refresh", strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()

			handler.Refresh(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestResultsHandler_GetResults(t *testing.T) {
	mockService := new(MockResultsService)
	mockService.On("Snapshot").Return(domain.Snapshot{
		Records: []domain.StudentRecord{
			{Name: "Alice", Rank: 1, Total: 20},
			{Name: "Bob", Rank: 2, Total: 10},
		},
		Averages: domain.Averages{"FA1": "5.00"},
		Loaded:   true,
	})

	handler := newTestResultsHandler(mockService)

	req := httptest.NewRequest("GET", "/api/results", nil)
	rec := httptest.NewRecorder()

	handler.GetResults(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
	assert.Contains(t, rec.Body.String(), `"Alice"`)
	mockService.AssertExpectations(t)
}

func TestResultsHandler_GetAggregates(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockResultsService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "averages returned with slot order",
			setupMock: func(m *MockResultsService) {
				m.On("Averages").Return(domain.Averages{"FA1": "5.00", "FA2": "6.67"}, nil)
				m.On("ExamSlots").Return([]string{"FA1", "FA2", "SA1", "SA2"})
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"FA2":"6.67"`,
		},
		{
			name: "dataset not loaded",
			setupMock: func(m *MockResultsService) {
				m.On("Averages").Return(nil, services.ErrDatasetNotLoaded)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"DATASET_NOT_LOADED"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockResultsService)
			tt.setupMock(mockService)

			handler := newTestResultsHandler(mockService)

			req := httptest.NewRequest("GET", "/api/results/aggregates", nil)
			rec := httptest.NewRecorder()

			handler.GetAggregates(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestResultsHandler_GetTop(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockResultsService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "top student",
			setupMock: func(m *MockResultsService) {
				m.On("Top").Return(domain.StudentRecord{Name: "Alice", Rank: 1, Total: 20}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"Alice"`,
		},
		{
			name: "empty dataset",
			setupMock: func(m *MockResultsService) {
				m.On("Top").Return(domain.StudentRecord{}, services.ErrNoStudents)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"NO_STUDENTS"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockResultsService)
			tt.setupMock(mockService)

			handler := newTestResultsHandler(mockService)

			req := httptest.NewRequest("GET", "/api/results/top", nil)
			rec := httptest.NewRecorder()

			handler.GetTop(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestResultsHandler_GetStudent(t *testing.T) {
	mockService := new(MockResultsService)
	mockService.On("Student", "Alice").Return(domain.StudentRecord{Name: "Alice", Rank: 1}, nil)
	mockService.On("Student", "Nobody").Return(domain.StudentRecord{}, services.ErrStudentNotFound)

	handler := newTestResultsHandler(mockService)
	router := chi.NewRouter()
	router.Mount("/results", handler.Routes())

	req := httptest.NewRequest("GET", "/results/student/Alice", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Alice"`)

	req = httptest.NewRequest("GET", "/results/student/Nobody", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"STUDENT_NOT_FOUND"`)

	mockService.AssertExpectations(t)
}

func TestResultsHandler_GetStudentSummary(t *testing.T) {
	record := domain.StudentRecord{
		Name:  "Alice Smith",
		Rank:  1,
		Total: 20,
		Marks: map[string]float64{"FA1": 5, "FA2": 5, "SA1": 5, "SA2": 5},
	}
	averages := domain.Averages{"FA1": "4.00", "FA2": "4.50", "SA1": "3.00", "SA2": "5.00"}
	slots := []string{"FA1", "FA2", "SA1", "SA2"}

	t.Run("csv download", func(t *testing.T) {
		mockService := new(MockResultsService)
		mockService.On("StudentSummary", "Alice Smith").Return(record, averages, 30, nil)
		mockService.On("ExamSlots").Return(slots)

		handler := newTestResultsHandler(mockService)
		router := chi.NewRouter()
		router.Mount("/results", handler.Routes())

		req := httptest.NewRequest("GET", "/results/student/Alice%20Smith/summary?format=csv", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "Alice_Smith_summary.csv")
		assert.Contains(t, rec.Body.String(), "Alice Smith")
		assert.Contains(t, rec.Body.String(), "FA1")
		mockService.AssertExpectations(t)
	})

	t.Run("xlsx download", func(t *testing.T) {
		mockService := new(MockResultsService)
		mockService.On("StudentSummary", "Alice Smith").Return(record, averages, 30, nil)
		mockService.On("ExamSlots").Return(slots)

		handler := newTestResultsHandler(mockService)
		router := chi.NewRouter()
		router.Mount("/results", handler.Routes())

		req := httptest.NewRequest("GET", "/results/student/Alice%20Smith/summary", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "Alice_Smith_summary.xlsx")
		assert.NotEmpty(t, rec.Body.Bytes())
		mockService.AssertExpectations(t)
	})

	t.Run("unsupported format", func(t *testing.T) {
		mockService := new(MockResultsService)

		handler := newTestResultsHandler(mockService)
		router := chi.NewRouter()
		router.Mount("/results", handler.Routes())

		req := httptest.NewRequest("GET", "/results/student/Alice/summary?format=pdf", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"VALIDATION_FAILED"`)
		mockService.AssertExpectations(t)
	})
}
