package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"marksheet/internal/config"
	apierrors "marksheet/internal/errors"
)

// QueryHandler exposes the three query lanes over HTTP. Submissions are
// debounced inside the engine, so the state returned alongside a submission
// reflects the last settled evaluation, not the text just submitted;
// clients poll the same endpoint (or listen on the websocket) to observe
// the evaluated result.
type QueryHandler struct {
	engine       QueryEngineInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(engine QueryEngineInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryHandler {
	return &QueryHandler{
		engine:       engine,
		logger:       logger.With(slog.String("component", "query_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the query routes
func (h *QueryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/{lane}", func(r chi.Router) {
		r.Use(h.LaneCtx)
		r.Get("/", h.Search)
	})

	return r
}

// LaneCtx middleware validates the lane parameter
func (h *QueryHandler) LaneCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lane := chi.URLParam(r, "lane")

		known := false
		for _, id := range config.Lanes {
			if id == lane {
				known = true
				break
			}
		}
		if !known {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("lane", "Unknown query lane: "+lane))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Search handles GET /api/search/{lane}?q=...
// When the q parameter is present (including empty, which clears the lane)
// it is submitted before the lane state is returned.
func (h *QueryHandler) Search(w http.ResponseWriter, r *http.Request) {
	lane := chi.URLParam(r, "lane")

	if r.URL.Query().Has("q") {
		if err := h.engine.Submit(lane, r.URL.Query().Get("q")); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}

	state, err := h.engine.State(lane)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"lane":   lane,
		"data":   state,
	})
}

// Compare handles GET /api/compare
func (h *QueryHandler) Compare(w http.ResponseWriter, r *http.Request) {
	a, b, ok := h.engine.Compare()

	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"resolved": ok,
		"a":        a,
		"b":        b,
	})
}
