package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-engine/internal/quiz/scoring"
	"github.com/gokatarajesh/quiz-engine/internal/quiz/timer"
)

// QuestionSource produces raw quiz text for a topic.
type QuestionSource interface {
	Fetch(ctx context.Context, topic string) (string, error)
}

// ResultSink receives completed quizzes off the answer path.
type ResultSink interface {
	Record(ctx context.Context, done CompletedQuiz) error
}

// Notifier delivers events the user did not request directly, i.e. everything
// that follows a timer expiry.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, ev Event) error
}

// Scheduler arms and cancels per-user question timers.
type Scheduler interface {
	Arm(userID uuid.UUID, epoch uint64, points int, onExpire func()) time.Duration
	CancelEpoch(userID uuid.UUID, epoch uint64)
	Close()
}

var _ Scheduler = (*timer.Scheduler)(nil)

// EngineOptions configures the quiz engine.
type EngineOptions struct {
	Tiers       scoring.TierConfig
	SinkTimeout time.Duration
}

// Engine drives users through timed quizzes.
type Engine struct {
	store    *Store
	timers   Scheduler
	results  *scoring.Engine
	source   QuestionSource
	sink     ResultSink
	notifier Notifier
	logger   zerolog.Logger

	sinkTimeout time.Duration
	pending     sync.WaitGroup
}

// NewEngine wires the engine. source, sink and notifier may be nil.
func NewEngine(store *Store, timers Scheduler, source QuestionSource, sink ResultSink, notifier Notifier, opts EngineOptions, logger zerolog.Logger) *Engine {
	sinkTimeout := opts.SinkTimeout
	if sinkTimeout <= 0 {
		sinkTimeout = 5 * time.Second
	}
	return &Engine{
		store:       store,
		timers:      timers,
		results:     scoring.NewEngine(opts.Tiers),
		source:      source,
		sink:        sink,
		notifier:    notifier,
		logger:      logger.With().Str("component", "quiz_engine").Logger(),
		sinkTimeout: sinkTimeout,
	}
}

// Start parses raw and begins a quiz for userID, replacing any quiz already in
// progress. It returns the first question.
func (e *Engine) Start(ctx context.Context, userID uuid.UUID, raw string) (Prompt, error) {
	return e.start(ctx, userID, raw, "text")
}

// StartTopic fetches generated quiz text for topic and starts it.
func (e *Engine) StartTopic(ctx context.Context, userID uuid.UUID, topic string) (Prompt, error) {
	if e.source == nil {
		return Prompt{}, ErrNoQuestionSource
	}
	raw, err := e.source.Fetch(ctx, topic)
	if err != nil {
		return Prompt{}, fmt.Errorf("fetch questions for %q: %w", topic, err)
	}
	return e.start(ctx, userID, raw, "topic:"+topic)
}

func (e *Engine) start(ctx context.Context, userID uuid.UUID, raw, source string) (Prompt, error) {
	questions := Parse(raw)
	if len(questions) == 0 {
		parseFailures.Inc()
		return Prompt{}, ErrParseEmpty
	}

	sess, replaced := e.store.Create(ctx, userID, questions, source)
	sessionsStarted.WithLabelValues(strconv.FormatBool(replaced != nil)).Inc()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.activeLocked() {
		// replaced again before we armed it
		return Prompt{}, ErrNoActiveSession
	}
	prompt := e.armLocked(sess)

	log := e.logger.Info().
		Str("user_id", userID.String()).
		Str("session_id", sess.ID.String()).
		Int("questions", len(questions)).
		Str("source", source)
	if replaced != nil {
		log = log.Str("replaced_session_id", replaced.ID.String())
	}
	log.Msg("quiz started")

	return prompt, nil
}

// armLocked arms the timer for the current question and builds its prompt.
func (e *Engine) armLocked(sess *Session) Prompt {
	q := sess.currentLocked()
	userID, epoch := sess.UserID, sess.epoch
	budget := e.timers.Arm(userID, epoch, q.Points, func() { e.expire(userID, epoch) })

	return Prompt{
		SessionID: sess.ID,
		Index:     sess.index,
		Total:     len(sess.questions),
		Points:    q.Points,
		Budget:    budget,
		Question:  q,
		Text:      promptText(sess.index, len(sess.questions), q, budget),
	}
}

// Advance moves userID to the next question once the current one has been
// resolved. It arms the next timer or, after the last question, returns the
// final result and removes the session.
func (e *Engine) Advance(ctx context.Context, userID uuid.UUID) (Step, error) {
	return e.advance(ctx, userID, 0)
}

func (e *Engine) advance(ctx context.Context, userID uuid.UUID, epoch uint64) (Step, error) {
	var (
		step Step
		done *CompletedQuiz
	)
	err := e.store.Advance(ctx, userID, epoch, func(sess *Session, next *Question) {
		if next != nil {
			prompt := e.armLocked(sess)
			step.Prompt = &prompt
			return
		}
		result := e.results.Finish(sess.pointsLocked(), sess.score, sess.correct)
		step.Result = &result
		done = &CompletedQuiz{
			SessionID:   sess.ID,
			UserID:      sess.UserID,
			Source:      sess.Source,
			Result:      result,
			Outcomes:    append([]Outcome(nil), sess.outcomes...),
			StartedAt:   sess.StartedAt,
			CompletedAt: time.Now().UTC(),
		}
	})
	if err != nil {
		return Step{}, err
	}

	if done != nil {
		sessionsCompleted.Inc()
		e.logger.Info().
			Str("user_id", userID.String()).
			Str("session_id", done.SessionID.String()).
			Int("earned", done.Result.Earned).
			Int("possible", done.Result.Possible).
			Str("tier", done.Result.Tier).
			Msg("quiz completed")
		e.record(*done)
	}
	return step, nil
}

// Status returns a snapshot of userID's session.
func (e *Engine) Status(userID uuid.UUID) (Status, bool) {
	sess, ok := e.store.Get(userID)
	if !ok {
		return Status{}, false
	}
	return sess.Snapshot(), true
}

// ActiveElsewhere reports a session for userID that another instance is
// running, as seen through the session mirror.
func (e *Engine) ActiveElsewhere(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool) {
	return e.store.ActiveElsewhere(ctx, userID)
}

// IsActive reports whether userID has a question in progress.
func (e *Engine) IsActive(userID uuid.UUID) bool {
	return e.store.IsActive(userID)
}

// Cancel abandons userID's quiz without a result.
func (e *Engine) Cancel(ctx context.Context, userID uuid.UUID) bool {
	removed := e.store.Destroy(ctx, userID)
	if removed {
		e.logger.Info().Str("user_id", userID.String()).Msg("quiz cancelled")
	}
	return removed
}

// Close stops all timers and waits for pending result deliveries.
func (e *Engine) Close() {
	e.timers.Close()
	e.pending.Wait()
}

// expire is the timer callback: resolve by timeout, tell the user, move on.
func (e *Engine) expire(userID uuid.UUID, epoch uint64) {
	fb, ok := e.HandleTimeout(userID, epoch)
	if !ok {
		return
	}

	ctx := context.Background()
	e.notify(ctx, userID, Event{Kind: EventFeedback, Feedback: &fb})

	// fb was produced under epoch; a concurrent Advance may already have moved on
	step, err := e.advance(ctx, userID, epoch)
	if err != nil {
		if !errors.Is(err, ErrNoActiveSession) {
			e.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("advance after timeout failed")
		}
		return
	}
	if step.Done() {
		e.notify(ctx, userID, Event{Kind: EventResult, Result: step.Result})
		return
	}
	e.notify(ctx, userID, Event{Kind: EventQuestion, Prompt: step.Prompt})
}

func (e *Engine) notify(ctx context.Context, userID uuid.UUID, ev Event) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, userID, ev); err != nil {
		e.logger.Warn().Err(err).Str("user_id", userID.String()).Str("event", string(ev.Kind)).Msg("notify failed")
	}
}

func (e *Engine) record(done CompletedQuiz) {
	if e.sink == nil {
		return
	}
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.sinkTimeout)
		defer cancel()
		if err := e.sink.Record(ctx, done); err != nil {
			e.logger.Warn().Err(err).
				Str("user_id", done.UserID.String()).
				Str("session_id", done.SessionID.String()).
				Msg("record result failed")
		}
	}()
}
