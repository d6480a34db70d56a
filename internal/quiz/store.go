package quiz

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// epochs is shared by every session so an epoch identifies exactly one
// question of one session for the life of the process.
var epochs atomic.Uint64

func nextEpoch() uint64 {
	return epochs.Add(1)
}

// Session is one user's progress through a quiz. All mutable fields are
// guarded by mu.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Source    string
	StartedAt time.Time

	mu        sync.Mutex
	questions []Question
	index     int
	score     int
	correct   int
	epoch     uint64
	resolved  bool
	closed    bool
	outcomes  []Outcome
}

func newSession(userID uuid.UUID, questions []Question, source string) *Session {
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		Source:    source,
		StartedAt: time.Now().UTC(),
		questions: questions,
		epoch:     nextEpoch(),
		outcomes:  make([]Outcome, 0, len(questions)),
	}
}

// Snapshot returns the session state under its lock.
func (s *Session) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	return Status{
		SessionID: s.ID,
		UserID:    s.UserID,
		Index:     s.index,
		Total:     len(s.questions),
		Score:     s.score,
		Possible:  s.possibleLocked(),
		Resolved:  s.resolved,
		Active:    s.activeLocked(),
		StartedAt: s.StartedAt,
	}
}

func (s *Session) activeLocked() bool {
	return !s.closed && s.index < len(s.questions)
}

func (s *Session) currentLocked() Question {
	return s.questions[s.index]
}

func (s *Session) possibleLocked() int {
	total := 0
	for _, q := range s.questions {
		total += q.Points
	}
	return total
}

func (s *Session) pointsLocked() []int {
	points := make([]int, len(s.questions))
	for i, q := range s.questions {
		points[i] = q.Points
	}
	return points
}

// advanceLocked moves past the resolved question. It returns nil once the
// last question has been passed.
func (s *Session) advanceLocked() *Question {
	s.index++
	s.epoch = nextEpoch()
	s.resolved = false
	if s.index >= len(s.questions) {
		return nil
	}
	q := s.questions[s.index]
	return &q
}

type timerCanceler interface {
	CancelEpoch(userID uuid.UUID, epoch uint64)
}

// Mirror publishes session liveness outside the process so other instances
// can see it. Failures are logged and never affect the in-memory session.
type Mirror interface {
	MarkActive(ctx context.Context, userID, sessionID uuid.UUID) error
	Clear(ctx context.Context, userID, sessionID uuid.UUID) error
	ActiveSession(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error)
}

// Store holds at most one live session per user. Sessions for different users
// never share a lock.
type Store struct {
	sessions sync.Map // uuid.UUID -> *Session
	timers   timerCanceler
	mirror   Mirror
	logger   zerolog.Logger
}

// NewStore creates a session store. mirror may be nil.
func NewStore(timers timerCanceler, mirror Mirror, logger zerolog.Logger) *Store {
	return &Store{
		timers: timers,
		mirror: mirror,
		logger: logger.With().Str("component", "quiz_store").Logger(),
	}
}

// Create installs a fresh session for userID at index 0. A previous session for
// the same user is closed and its timer cancelled; it is returned as replaced.
func (st *Store) Create(ctx context.Context, userID uuid.UUID, questions []Question, source string) (sess, replaced *Session) {
	sess = newSession(userID, questions, source)

	if prev, loaded := st.sessions.Swap(userID, sess); loaded {
		replaced = prev.(*Session)
		replaced.mu.Lock()
		st.closeLocked(replaced)
		replaced.mu.Unlock()
	}

	if st.mirror != nil {
		if err := st.mirror.MarkActive(ctx, userID, sess.ID); err != nil {
			st.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("session mirror mark failed")
		}
	}
	return sess, replaced
}

// ActiveElsewhere reports the session id the mirror holds for userID when this
// store has no session for them, i.e. the quiz runs on another instance.
func (st *Store) ActiveElsewhere(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool) {
	if st.mirror == nil {
		return uuid.Nil, false
	}
	if _, ok := st.Get(userID); ok {
		return uuid.Nil, false
	}
	id, ok, err := st.mirror.ActiveSession(ctx, userID)
	if err != nil {
		st.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("session mirror read failed")
		return uuid.Nil, false
	}
	return id, ok
}

// Get returns the live session for userID.
func (st *Store) Get(userID uuid.UUID) (*Session, bool) {
	v, ok := st.sessions.Load(userID)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// IsActive reports whether userID has a session with questions remaining.
func (st *Store) IsActive(userID uuid.UUID) bool {
	sess, ok := st.Get(userID)
	if !ok {
		return false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.activeLocked()
}

// Advance moves userID's session past its current question, which must already
// be resolved. If epoch is non-zero the call only applies while the session is
// still on that epoch. then runs under the session lock with the new state;
// next is nil when the quiz is complete, in which case the session has already
// been removed from the store.
func (st *Store) Advance(ctx context.Context, userID uuid.UUID, epoch uint64, then func(sess *Session, next *Question)) error {
	sess, ok := st.Get(userID)
	if !ok {
		return ErrNoActiveSession
	}

	sess.mu.Lock()
	if !sess.activeLocked() || (epoch != 0 && sess.epoch != epoch) {
		sess.mu.Unlock()
		return ErrNoActiveSession
	}
	if !sess.resolved {
		sess.mu.Unlock()
		return ErrQuestionPending
	}

	next := sess.advanceLocked()
	if next == nil {
		st.closeLocked(sess)
		st.sessions.CompareAndDelete(userID, sess)
	}
	if then != nil {
		then(sess, next)
	}
	sess.mu.Unlock()

	if next == nil {
		st.clearMirror(ctx, sess)
	}
	return nil
}

// Destroy removes userID's session and cancels its timer. It reports whether a
// session was removed.
func (st *Store) Destroy(ctx context.Context, userID uuid.UUID) bool {
	sess, ok := st.Get(userID)
	if !ok {
		return false
	}

	sess.mu.Lock()
	st.closeLocked(sess)
	removed := st.sessions.CompareAndDelete(userID, sess)
	sess.mu.Unlock()

	if removed {
		st.clearMirror(ctx, sess)
	}
	return removed
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	n := 0
	st.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (st *Store) closeLocked(sess *Session) {
	if sess.closed {
		return
	}
	sess.closed = true
	if st.timers != nil {
		st.timers.CancelEpoch(sess.UserID, sess.epoch)
	}
}

func (st *Store) clearMirror(ctx context.Context, sess *Session) {
	if st.mirror == nil {
		return
	}
	if err := st.mirror.Clear(ctx, sess.UserID, sess.ID); err != nil {
		st.logger.Warn().Err(err).Str("user_id", sess.UserID.String()).Msg("session mirror clear failed")
	}
}
