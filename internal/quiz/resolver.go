package quiz

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Answer resolves the current question with the user's choice. If the timer
// already resolved it, the returned feedback has OutcomeStale and nothing
// changes. Answer never advances the session.
func (e *Engine) Answer(ctx context.Context, userID uuid.UUID, choice string) (Feedback, error) {
	return e.AnswerAt(ctx, userID, CurrentQuestion, choice)
}

// AnswerAt is Answer for the question at index. Transports that know which
// question a reply belongs to (a button under a specific prompt) pass its
// index so a reply to a question the timer already moved past is stale
// instead of being scored against the next one.
func (e *Engine) AnswerAt(ctx context.Context, userID uuid.UUID, index int, choice string) (Feedback, error) {
	sess, ok := e.store.Get(userID)
	if !ok {
		return Feedback{}, ErrNoActiveSession
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.activeLocked() {
		return Feedback{}, ErrNoActiveSession
	}
	letter, ok := normalizeChoice(choice)
	if !ok {
		return Feedback{}, ErrUnrecognizedAction
	}
	if index == CurrentQuestion {
		index = sess.index
	}
	if index < 0 || index > sess.index {
		return Feedback{}, ErrUnrecognizedAction
	}

	q := sess.questions[index]
	if index < sess.index || sess.resolved {
		resolutions.WithLabelValues(string(OutcomeStale)).Inc()
		fb := Feedback{
			Index:         index,
			Outcome:       OutcomeStale,
			Recorded:      sess.outcomes[index],
			Chosen:        letter,
			CorrectLetter: q.Correct,
			Points:        q.Points,
		}
		fb.Text = feedbackText(fb)
		e.logger.Debug().
			Str("user_id", userID.String()).
			Int("question_index", index).
			Int("current_index", sess.index).
			Str("recorded", string(fb.Recorded)).
			Msg("stale answer ignored")
		return fb, nil
	}

	sess.resolved = true
	e.timers.CancelEpoch(userID, sess.epoch)

	fb := Feedback{
		Index:         sess.index,
		Outcome:       OutcomeIncorrect,
		Chosen:        letter,
		CorrectLetter: q.Correct,
		Points:        q.Points,
	}
	if strings.EqualFold(letter, q.Correct) {
		fb.Outcome = OutcomeCorrect
		fb.Awarded = q.Points
		sess.score += q.Points
		sess.correct++
	}
	fb.Text = feedbackText(fb)
	sess.outcomes = append(sess.outcomes, fb.Outcome)
	resolutions.WithLabelValues(string(fb.Outcome)).Inc()

	e.logger.Debug().
		Str("user_id", userID.String()).
		Str("session_id", sess.ID.String()).
		Int("question_index", sess.index).
		Uint64("epoch", sess.epoch).
		Str("outcome", string(fb.Outcome)).
		Msg("question answered")

	return fb, nil
}

// HandleTimeout resolves the question armed under epoch as timed out. It
// reports false and does nothing when the epoch is stale or the question was
// already answered. It never advances the session.
func (e *Engine) HandleTimeout(userID uuid.UUID, epoch uint64) (Feedback, bool) {
	sess, ok := e.store.Get(userID)
	if !ok {
		return Feedback{}, false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.activeLocked() || sess.epoch != epoch {
		return Feedback{}, false
	}
	if sess.resolved {
		resolutions.WithLabelValues(string(OutcomeStale)).Inc()
		return Feedback{}, false
	}

	sess.resolved = true
	q := sess.currentLocked()
	fb := Feedback{
		Index:         sess.index,
		Outcome:       OutcomeTimeout,
		CorrectLetter: q.Correct,
		Points:        q.Points,
	}
	fb.Text = feedbackText(fb)
	sess.outcomes = append(sess.outcomes, OutcomeTimeout)
	resolutions.WithLabelValues(string(OutcomeTimeout)).Inc()

	e.logger.Debug().
		Str("user_id", userID.String()).
		Str("session_id", sess.ID.String()).
		Int("question_index", sess.index).
		Uint64("epoch", epoch).
		Msg("question timed out")

	return fb, true
}

// normalizeChoice accepts "b", " B ", "B." and "b)".
func normalizeChoice(choice string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(choice))
	s = strings.TrimRight(s, ".)")
	if !isLetter(s) {
		return "", false
	}
	return s, true
}
