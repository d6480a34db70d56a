package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-engine/internal/quiz/scoring"
	httperrors "github.com/gokatarajesh/quiz-engine/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-engine/pkg/http/ws"
)

// Handler manages WebSocket connections and routes quiz messages.
type Handler struct {
	engine *Engine
	hub    *ws.Hub
	idle   time.Duration
	logger zerolog.Logger
}

var _ Notifier = (*Handler)(nil)

// NewHandler creates a quiz WebSocket handler.
func NewHandler(engine *Engine, hub *ws.Hub, idle time.Duration, logger zerolog.Logger) *Handler {
	return &Handler{
		engine: engine,
		hub:    hub,
		idle:   idle,
		logger: logger.With().Str("component", "quiz_ws").Logger(),
	}
}

// HandleConnection serves one user's socket until it closes.
func (h *Handler) HandleConnection(conn *websocket.Conn, userID uuid.UUID) {
	wsConn := ws.NewConnection(conn, h.logger.With().Str("user_id", userID.String()).Logger())
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(h.idle, func(msg ws.Message) error {
		return h.handleMessage(context.Background(), userID, msg)
	})

	h.hub.UnregisterConnection(userID, wsConn)
}

// Notify pushes timer-driven events to the user's socket.
func (h *Handler) Notify(ctx context.Context, userID uuid.UUID, ev Event) error {
	msg, err := eventMessage(ev)
	if err != nil {
		return err
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		if errors.Is(err, ws.ErrConnectionNotFound) {
			return nil
		}
		return fmt.Errorf("send %s: %w", ev.Kind, err)
	}
	return nil
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, userID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStartQuiz:
		return h.handleStart(ctx, userID, msg)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(ctx, userID, msg)
	case ws.TypeStopQuiz:
		return h.handleStop(ctx, userID, msg)
	case ws.TypeRequestStatus:
		return h.handleStatus(userID, msg)
	case ws.TypePing:
		return h.send(userID, ws.TypePong, struct{}{}, msg.RequestID)
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type), msg.RequestID)
	}
}

func (h *Handler) handleStart(ctx context.Context, userID uuid.UUID, msg ws.Message) error {
	var req ws.StartQuizPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid payload", msg.RequestID)
	}

	var (
		prompt Prompt
		err    error
	)
	switch {
	case req.Text != "":
		prompt, err = h.engine.Start(ctx, userID, req.Text)
	case req.Topic != "":
		prompt, err = h.engine.StartTopic(ctx, userID, req.Topic)
	default:
		return h.sendError(userID, httperrors.ErrCodeMissingField, "text or topic is required", msg.RequestID)
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("start quiz failed")
		return h.sendQuizError(userID, err, msg.RequestID)
	}
	return h.send(userID, ws.TypeQuestion, questionPayload(prompt), msg.RequestID)
}

func (h *Handler) handleSubmitAnswer(ctx context.Context, userID uuid.UUID, msg ws.Message) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid payload", msg.RequestID)
	}

	fb, err := h.engine.AnswerAt(ctx, userID, answerIndex(req.Index), req.Choice)
	if err != nil {
		return h.sendQuizError(userID, err, msg.RequestID)
	}
	if err := h.send(userID, ws.TypeFeedback, feedbackPayload(fb), msg.RequestID); err != nil {
		return err
	}
	if fb.Outcome == OutcomeStale {
		// the timer path already advanced or is advancing
		return nil
	}

	step, err := h.engine.Advance(ctx, userID)
	if err != nil {
		return h.sendQuizError(userID, err, msg.RequestID)
	}
	if step.Done() {
		return h.send(userID, ws.TypeResult, resultPayload(*step.Result), msg.RequestID)
	}
	return h.send(userID, ws.TypeQuestion, questionPayload(*step.Prompt), msg.RequestID)
}

func (h *Handler) handleStop(ctx context.Context, userID uuid.UUID, msg ws.Message) error {
	if !h.engine.Cancel(ctx, userID) {
		return h.sendQuizError(userID, ErrNoActiveSession, msg.RequestID)
	}
	return h.send(userID, ws.TypeStopped, struct{}{}, msg.RequestID)
}

func (h *Handler) handleStatus(userID uuid.UUID, msg ws.Message) error {
	st, ok := h.engine.Status(userID)
	if !ok {
		return h.sendQuizError(userID, ErrNoActiveSession, msg.RequestID)
	}
	return h.send(userID, ws.TypeStatus, ws.StatusPayload{
		Active:   st.Active,
		Index:    st.Index,
		Total:    st.Total,
		Score:    st.Score,
		Possible: st.Possible,
	}, msg.RequestID)
}

func (h *Handler) send(userID uuid.UUID, msgType string, payload any, requestID string) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	msg.RequestID = requestID
	return h.hub.SendToUser(userID, msg)
}

func (h *Handler) sendError(userID uuid.UUID, code, message, requestID string) error {
	return h.send(userID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message}, requestID)
}

func (h *Handler) sendQuizError(userID uuid.UUID, err error, requestID string) error {
	return h.sendError(userID, ErrorCode(err), UserMessage(err), requestID)
}

// ErrorCode maps engine errors to transport error codes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrParseEmpty):
		return httperrors.ErrCodeParseEmpty
	case errors.Is(err, ErrNoActiveSession):
		return httperrors.ErrCodeNoActiveSession
	case errors.Is(err, ErrUnrecognizedAction):
		return httperrors.ErrCodeUnrecognizedAction
	case errors.Is(err, ErrQuestionPending):
		return httperrors.ErrCodeQuestionPending
	case errors.Is(err, ErrNoQuestionSource):
		return httperrors.ErrCodeSourceUnavailable
	default:
		return httperrors.ErrCodeInternalError
	}
}

func eventMessage(ev Event) (ws.Message, error) {
	switch ev.Kind {
	case EventFeedback:
		return ws.NewMessage(ws.TypeFeedback, feedbackPayload(*ev.Feedback))
	case EventQuestion:
		return ws.NewMessage(ws.TypeQuestion, questionPayload(*ev.Prompt))
	case EventResult:
		return ws.NewMessage(ws.TypeResult, resultPayload(*ev.Result))
	default:
		return ws.Message{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

func questionPayload(p Prompt) ws.QuestionPayload {
	return ws.QuestionPayload{
		SessionID: p.SessionID.String(),
		Index:     p.Index,
		Total:     p.Total,
		Points:    p.Points,
		Seconds:   int(p.Budget.Seconds()),
		Prompt:    p.Question.Text,
		Options:   p.Question.Options,
		Text:      p.Text,
	}
}

func answerIndex(index *int) int {
	if index == nil {
		return CurrentQuestion
	}
	return *index
}

func feedbackPayload(fb Feedback) ws.FeedbackPayload {
	return ws.FeedbackPayload{
		Index:         fb.Index,
		Outcome:       string(fb.Outcome),
		Recorded:      string(fb.Recorded),
		CorrectLetter: fb.CorrectLetter,
		Points:        fb.Points,
		Awarded:       fb.Awarded,
		Text:          fb.Text,
	}
}

func resultPayload(r scoring.Result) ws.ResultPayload {
	return ws.ResultPayload{
		Earned:     r.Earned,
		Possible:   r.Possible,
		Percentage: r.Percentage,
		Tier:       r.Tier,
		Text:       r.Text(),
	}
}
