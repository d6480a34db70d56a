package quiz

import (
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/quiz-engine/internal/quiz/scoring"
)

// Letters lists the answer keys in display order.
var Letters = []string{"A", "B", "C", "D"}

// CurrentQuestion tells AnswerAt to use whichever question is current, for
// replies such as typed text that do not name a question.
const CurrentQuestion = -1

// Question is one parsed quiz block. It is never mutated after Parse returns it.
type Question struct {
	Number  int               `json:"number" yaml:"number"`
	Text    string            `json:"text" yaml:"text"`
	Options map[string]string `json:"options" yaml:"options"`
	Correct string            `json:"correct" yaml:"correct"`
	Points  int               `json:"points" yaml:"points"`
}

// Outcome describes how a question was resolved.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeTimeout   Outcome = "timeout"
	// OutcomeStale is returned to the losing side of an answer/timeout race.
	OutcomeStale Outcome = "stale"
)

// Feedback is produced exactly once per question by the resolver, plus
// OutcomeStale replies for events that arrive after resolution.
type Feedback struct {
	Index         int     `json:"index"`
	Outcome       Outcome `json:"outcome"`
	// Recorded is how the question was already resolved when Outcome is stale.
	Recorded      Outcome `json:"recorded,omitempty"`
	Chosen        string  `json:"chosen,omitempty"`
	CorrectLetter string  `json:"correct_letter"`
	Points        int     `json:"points"`
	Awarded       int     `json:"awarded"`
	Text          string  `json:"text"`
}

// IsCorrect reports whether the question was answered correctly.
func (f Feedback) IsCorrect() bool {
	return f.Outcome == OutcomeCorrect
}

// Prompt is the question message delivered to the user.
type Prompt struct {
	SessionID uuid.UUID     `json:"session_id"`
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Points    int           `json:"points"`
	Budget    time.Duration `json:"budget"`
	Question  Question      `json:"question"`
	Text      string        `json:"text"`
}

// Step is returned by Advance: either the next prompt or the final result.
type Step struct {
	Prompt *Prompt
	Result *scoring.Result
}

// Done reports whether the session finished on this step.
func (s Step) Done() bool {
	return s.Result != nil
}

// Status is a read-only snapshot of a session.
type Status struct {
	SessionID uuid.UUID `json:"session_id"`
	UserID    uuid.UUID `json:"user_id"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Score     int       `json:"score"`
	Possible  int       `json:"possible"`
	Resolved  bool      `json:"resolved"`
	Active    bool      `json:"active"`
	StartedAt time.Time `json:"started_at"`
	// Elsewhere is set when the session lives on another instance; only
	// SessionID, UserID and Active are known then.
	Elsewhere bool `json:"active_elsewhere,omitempty"`
}

// EventKind tags notifications pushed from the timer path.
type EventKind string

const (
	EventFeedback EventKind = "feedback"
	EventQuestion EventKind = "question"
	EventResult   EventKind = "result"
)

// Event is delivered through a Notifier when no inbound request is waiting
// for the answer, i.e. on timer expiry.
type Event struct {
	Kind     EventKind
	Feedback *Feedback
	Prompt   *Prompt
	Result   *scoring.Result
}

// CompletedQuiz is handed to a ResultSink once a session finishes.
type CompletedQuiz struct {
	SessionID   uuid.UUID
	UserID      uuid.UUID
	Source      string
	Result      scoring.Result
	Outcomes    []Outcome
	StartedAt   time.Time
	CompletedAt time.Time
}
