package quiz

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-engine/internal/server"
	httperrors "github.com/gokatarajesh/quiz-engine/pkg/http/errors"
)

// HandleWebSocket upgrades the request and serves the user named by the
// user_id query parameter.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "Missing user_id")
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidUserID, "Invalid user_id")
		return
	}

	conn, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn, userID)
}
