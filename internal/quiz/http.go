package quiz

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/quiz-engine/pkg/http/errors"
)

// HTTPHandlers exposes the two-phase session protocol over REST: answering
// and advancing are separate calls.
type HTTPHandlers struct {
	engine *Engine
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for quiz sessions.
func NewHTTPHandlers(engine *Engine, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		engine: engine,
		logger: logger.With().Str("component", "quiz_http").Logger(),
	}
}

// StartRequest is the body of POST /v1/sessions/{userID}.
type StartRequest struct {
	Text  string `json:"text,omitempty"`
	Topic string `json:"topic,omitempty"`
}

// AnswerRequest is the body of POST /v1/sessions/{userID}/answer. Index names
// the question being answered; without it the current question is assumed.
type AnswerRequest struct {
	Index  *int   `json:"index,omitempty"`
	Choice string `json:"choice"`
}

// StepResponse carries either the next question or the final result.
type StepResponse struct {
	Done     bool    `json:"done"`
	Question *Prompt `json:"question,omitempty"`
	Result   any     `json:"result,omitempty"`
	Text     string  `json:"text"`
}

// Routes mounts the session endpoints.
func (h *HTTPHandlers) Routes(r chi.Router) {
	r.Route("/v1/sessions/{userID}", func(r chi.Router) {
		r.Get("/", h.GetStatus)
		r.Post("/", h.Start)
		r.Delete("/", h.Stop)
		r.Post("/answer", h.Answer)
		r.Post("/advance", h.Advance)
	})
}

// GetStatus handles GET /v1/sessions/{userID}
func (h *HTTPHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	st, found := h.engine.Status(userID)
	if !found {
		if sessionID, ok := h.engine.ActiveElsewhere(r.Context(), userID); ok {
			httperrors.RespondJSON(w, http.StatusOK, Status{
				SessionID: sessionID,
				UserID:    userID,
				Active:    true,
				Elsewhere: true,
			})
			return
		}
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoActiveSession, UserMessage(ErrNoActiveSession))
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, st)
}

// Start handles POST /v1/sessions/{userID}
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	var (
		prompt Prompt
		err    error
	)
	switch {
	case req.Text != "":
		prompt, err = h.engine.Start(r.Context(), userID, req.Text)
	case req.Topic != "":
		prompt, err = h.engine.StartTopic(r.Context(), userID, req.Topic)
	default:
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMissingField, "text or topic is required")
		return
	}
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusCreated, prompt)
}

// Answer handles POST /v1/sessions/{userID}/answer
func (h *HTTPHandlers) Answer(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	fb, err := h.engine.AnswerAt(r.Context(), userID, answerIndex(req.Index), req.Choice)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, fb)
}

// Advance handles POST /v1/sessions/{userID}/advance
func (h *HTTPHandlers) Advance(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	step, err := h.engine.Advance(r.Context(), userID)
	if err != nil {
		h.respondQuizError(w, err)
		return
	}
	resp := StepResponse{Done: step.Done()}
	if step.Done() {
		resp.Result = step.Result
		resp.Text = step.Result.Text()
	} else {
		resp.Question = step.Prompt
		resp.Text = step.Prompt.Text
	}
	httperrors.RespondJSON(w, http.StatusOK, resp)
}

// Stop handles DELETE /v1/sessions/{userID}
func (h *HTTPHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	if !h.engine.Cancel(r.Context(), userID) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeNoActiveSession, UserMessage(ErrNoActiveSession))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlers) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidUserID, "Invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *HTTPHandlers) respondQuizError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrNoActiveSession):
		status = http.StatusNotFound
	case errors.Is(err, ErrQuestionPending):
		status = http.StatusConflict
	case errors.Is(err, ErrParseEmpty), errors.Is(err, ErrUnrecognizedAction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, ErrNoQuestionSource):
		status = http.StatusServiceUnavailable
	default:
		h.logger.Error().Err(err).Msg("quiz request failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, UserMessage(err))
		return
	}
	httperrors.RespondError(w, status, ErrorCode(err), UserMessage(err))
}
