package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "marksheet/internal/errors"
	"marksheet/internal/exporter"
)

// ResultsHandler handles dataset-related HTTP requests
type ResultsHandler struct {
	service      ResultsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(service ResultsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ResultsHandler {
	return &ResultsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "results_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the results routes
func (h *ResultsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetResults)
	r.Get("/aggregates", h.GetAggregates)
	r.Get("/top", h.GetTop)

	r.Route("/student/{name}", func(r chi.Router) {
		r.Use(h.StudentCtx)
		r.Get("/", h.GetStudent)
		r.Get("/summary", h.GetStudentSummary)
	})

	return r
}

// StudentCtx middleware validates the name parameter
func (h *ResultsHandler) StudentCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if strings.TrimSpace(name) == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("name", "Student name is required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RefreshRequest is the optional refresh body; a locator here overrides the
// configured one for this invocation.
type RefreshRequest struct {
	Locator string `json:"locator" validate:"omitempty,url"`
}

// Refresh handles POST /api/refresh
func (h *ResultsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if r.ContentLength > 0 {
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("locator", "Locator must be a valid URL"))
			return
		}
	}

	h.logger.InfoContext(r.Context(), "refresh requested",
		slog.Bool("locator_override", req.Locator != ""))

	count, err := h.service.Refresh(r.Context(), req.Locator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":  "success",
		"records": count,
	})
}

// GetResults handles GET /api/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	snap := h.service.Snapshot(r.Context())

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   snap,
		"count":  len(snap.Records),
	})
}

// GetAggregates handles GET /api/results/aggregates
func (h *ResultsHandler) GetAggregates(w http.ResponseWriter, r *http.Request) {
	avgs, err := h.service.Averages(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   avgs,
		"slots":  h.service.ExamSlots(),
	})
}

// GetTop handles GET /api/results/top
func (h *ResultsHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	top, err := h.service.Top(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   top,
	})
}

// GetStudent handles GET /api/results/student/{name}
func (h *ResultsHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rec, err := h.service.Student(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rec,
	})
}

// GetStudentSummary handles GET /api/results/student/{name}/summary.
// The format query parameter selects xlsx (default) or csv.
func (h *ResultsHandler) GetStudentSummary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", fmt.Sprintf("Unsupported format: %s", format)))
		return
	}

	rec, avgs, classSize, err := h.service.StudentSummary(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	exp := exporter.NewSummaryExporter(h.service.ExamSlots())
	filename := strings.ReplaceAll(rec.Name, " ", "_") + "_summary." + format

	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		err = exp.WriteXLSX(w, rec, avgs, classSize)
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		err = exp.WriteCSV(w, rec, avgs, classSize)
	}

	if err != nil {
		// Headers may already be out; log rather than double-respond.
		h.logger.ErrorContext(r.Context(), "summary export failed",
			slog.String("student", rec.Name),
			slog.String("format", format),
			slog.String("error", err.Error()))
	}
}
