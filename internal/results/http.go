package results

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/quiz-engine/pkg/http/errors"
)

// HTTPHandler exposes REST endpoints for result history.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs a results HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "results_http").Logger(),
	}
}

// Routes mounts the result endpoints.
func (h *HTTPHandler) Routes(r chi.Router) {
	r.Get("/v1/results/top", h.HandleTop)
	r.Get("/v1/results/{userID}", h.HandleHistory)
}

// HandleHistory responds with a user's recent results.
// Route: GET /v1/results/{userID}?limit=10
func (h *HTTPHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidUserID, "Invalid user id")
		return
	}

	entries, source, err := h.svc.Recent(r.Context(), userID, parseLimit(r))
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("result history fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeResultsFetchFailed, "Could not load results")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"source":  source,
		"results": entries,
	})
}

// HandleTop responds with users ranked by best percentage.
// Route: GET /v1/results/top?limit=10
func (h *HTTPHandler) HandleTop(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Best(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.Warn().Err(err).Msg("best results fetch failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeResultsFetchFailed, "Could not load results")
		return
	}
	if entries == nil {
		entries = []BestEntry{}
	}
	httperrors.RespondJSON(w, http.StatusOK, map[string]any{"top": entries})
}

func parseLimit(r *http.Request) int {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return limit
}
