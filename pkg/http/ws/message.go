package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeStartQuiz     = "start_quiz"
	TypeSubmitAnswer  = "submit_answer"
	TypeStopQuiz      = "stop_quiz"
	TypeRequestStatus = "request_status"
	TypePing          = "ping"

	// Server -> Client
	TypeQuestion = "question"
	TypeFeedback = "feedback"
	TypeResult   = "result"
	TypeStatus   = "status"
	TypeStopped  = "stopped"
	TypeError    = "error"
	TypePong     = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}

// Client Messages (incoming)

// StartQuizPayload carries either raw quiz text or a topic to generate from.
type StartQuizPayload struct {
	Text  string `json:"text,omitempty"`
	Topic string `json:"topic,omitempty"`
}

// SubmitAnswerPayload answers the question at Index, or the current question
// when Index is omitted.
type SubmitAnswerPayload struct {
	Index  *int   `json:"index,omitempty"`
	Choice string `json:"choice"`
}

// Server Messages (outgoing)

type QuestionPayload struct {
	SessionID string            `json:"session_id"`
	Index     int               `json:"index"`
	Total     int               `json:"total"`
	Points    int               `json:"points"`
	Seconds   int               `json:"seconds"`
	Prompt    string            `json:"prompt"`
	Options   map[string]string `json:"options"`
	Text      string            `json:"text"`
}

type FeedbackPayload struct {
	Index         int    `json:"index"`
	Outcome       string `json:"outcome"`
	Recorded      string `json:"recorded,omitempty"`
	CorrectLetter string `json:"correct_letter"`
	Points        int    `json:"points"`
	Awarded       int    `json:"awarded"`
	Text          string `json:"text"`
}

type ResultPayload struct {
	Earned     int     `json:"earned"`
	Possible   int     `json:"possible"`
	Percentage float64 `json:"percentage"`
	Tier       string  `json:"tier"`
	Text       string  `json:"text"`
}

type StatusPayload struct {
	Active   bool `json:"active"`
	Index    int  `json:"index"`
	Total    int  `json:"total"`
	Score    int  `json:"score"`
	Possible int  `json:"possible"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
