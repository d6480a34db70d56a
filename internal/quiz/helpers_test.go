package quiz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-engine/internal/quiz/timer"
)

func block(number, points int, correct string) string {
	return fmt.Sprintf("%d. (%d points)\nText of question %d\nA. first\nB. second\nC. third\nD. fourth\nAnswer: %s\n",
		number, points, number, correct)
}

func quizText(blocks ...string) string {
	return strings.Join(blocks, "\n")
}

type armedTimer struct {
	epoch    uint64
	points   int
	onExpire func()
}

// fakeScheduler records armed timers so tests decide when they fire.
type fakeScheduler struct {
	mu     sync.Mutex
	armed  map[uuid.UUID]armedTimer
	arms   int
	closed bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{armed: make(map[uuid.UUID]armedTimer)}
}

func (f *fakeScheduler) Arm(userID uuid.UUID, epoch uint64, points int, onExpire func()) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed[userID] = armedTimer{epoch: epoch, points: points, onExpire: onExpire}
	f.arms++
	return timer.Budget(points)
}

func (f *fakeScheduler) CancelEpoch(userID uuid.UUID, epoch uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.armed[userID]; ok && t.epoch == epoch {
		delete(f.armed, userID)
	}
}

func (f *fakeScheduler) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeScheduler) current(userID uuid.UUID) (armedTimer, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.armed[userID]
	return t, ok
}

// fire runs the armed callback the way the real scheduler would.
func (f *fakeScheduler) fire(t *testing.T, userID uuid.UUID) {
	t.Helper()
	f.mu.Lock()
	armed, ok := f.armed[userID]
	delete(f.armed, userID)
	f.mu.Unlock()
	require.True(t, ok, "no timer armed")
	armed.onExpire()
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(_ context.Context, _ uuid.UUID, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) kinds() []EventKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]EventKind, len(n.events))
	for i, ev := range n.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

type recordingSink struct {
	mu   sync.Mutex
	done []CompletedQuiz
}

func (s *recordingSink) Record(_ context.Context, done CompletedQuiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = append(s.done, done)
	return nil
}

func (s *recordingSink) all() []CompletedQuiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CompletedQuiz(nil), s.done...)
}

type stubSource struct {
	text string
	err  error
}

func (s stubSource) Fetch(context.Context, string) (string, error) {
	return s.text, s.err
}

type testEngine struct {
	*Engine
	store    *Store
	timers   *fakeScheduler
	notifier *recordingNotifier
	sink     *recordingSink
}

func newTestEngine(t *testing.T, source QuestionSource) *testEngine {
	t.Helper()
	return newMirroredTestEngine(t, source, nil)
}

func newMirroredTestEngine(t *testing.T, source QuestionSource, mirror Mirror) *testEngine {
	t.Helper()
	timers := newFakeScheduler()
	store := NewStore(timers, mirror, zerolog.Nop())
	notifier := &recordingNotifier{}
	sink := &recordingSink{}
	engine := NewEngine(store, timers, source, sink, notifier, EngineOptions{}, zerolog.Nop())
	t.Cleanup(engine.Close)
	return &testEngine{Engine: engine, store: store, timers: timers, notifier: notifier, sink: sink}
}
