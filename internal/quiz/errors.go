package quiz

import "errors"

var (
	// ErrParseEmpty means the text held no recognisable question block.
	ErrParseEmpty = errors.New("no questions recognized")
	// ErrNoActiveSession means the user has no quiz in progress.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrUnrecognizedAction means the event did not name an answer letter.
	ErrUnrecognizedAction = errors.New("unrecognized action")
	// ErrQuestionPending means Advance was called before the current question
	// was resolved.
	ErrQuestionPending = errors.New("current question not resolved")
	// ErrNoQuestionSource means topic quizzes are not configured.
	ErrNoQuestionSource = errors.New("question source not configured")
)

// UserMessage returns the text shown to a user for err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrParseEmpty):
		return "Cannot recognize questions. Please check the quiz format and try again."
	case errors.Is(err, ErrNoActiveSession):
		return "Start a test first."
	case errors.Is(err, ErrUnrecognizedAction):
		return "Unrecognized command. Choose one of A, B, C or D."
	case errors.Is(err, ErrQuestionPending):
		return "Answer the current question first."
	case errors.Is(err, ErrNoQuestionSource):
		return "Generated quizzes are not available right now."
	default:
		return "Something went wrong. Please try again."
	}
}
