package timer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

const defaultCapacity = 32

// Budget maps a question's point value to the time allowed to answer it.
// Unknown point values get the shortest budget.
func Budget(points int) time.Duration {
	switch points {
	case 2:
		return 10 * time.Second
	case 3:
		return 20 * time.Second
	default:
		return 5 * time.Second
	}
}

// Options configures the scheduler.
type Options struct {
	// Capacity bounds how many expiry callbacks may run at once.
	Capacity int
	// Budget overrides the point-to-duration table.
	Budget func(points int) time.Duration
}

type handle struct {
	epoch uint64
	timer *time.Timer
}

// Scheduler arms one single-shot expiry per user and runs the callbacks on a
// bounded pool. Expirations that find the pool full wait for a slot and fire
// late; callers must re-check the epoch inside the callback.
type Scheduler struct {
	handles  sync.Map // uuid.UUID -> *handle
	sem      *semaphore.Weighted
	capacity int64
	budget   func(int) time.Duration
	logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// NewScheduler creates a scheduler.
func NewScheduler(opts Options, logger zerolog.Logger) *Scheduler {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	budget := opts.Budget
	if budget == nil {
		budget = Budget
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
		budget:   budget,
		logger:   logger.With().Str("component", "quiz_timer").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Arm schedules onExpire after the budget for points and returns that budget.
// Any timer already armed for userID is stopped.
func (s *Scheduler) Arm(userID uuid.UUID, epoch uint64, points int, onExpire func()) time.Duration {
	d := s.budget(points)
	if s.closed.Load() {
		return d
	}

	h := &handle{epoch: epoch}
	h.timer = time.AfterFunc(d, func() { s.fire(userID, h, onExpire) })

	if old, loaded := s.handles.Swap(userID, h); loaded {
		old.(*handle).timer.Stop()
	}
	timersArmed.Inc()
	return d
}

// Cancel stops whatever timer is armed for userID. Safe if none is.
func (s *Scheduler) Cancel(userID uuid.UUID) {
	if v, ok := s.handles.LoadAndDelete(userID); ok {
		v.(*handle).timer.Stop()
	}
}

// CancelEpoch stops the timer for userID only if it was armed for epoch.
func (s *Scheduler) CancelEpoch(userID uuid.UUID, epoch uint64) {
	v, ok := s.handles.Load(userID)
	if !ok {
		return
	}
	h := v.(*handle)
	if h.epoch != epoch {
		return
	}
	if s.handles.CompareAndDelete(userID, h) {
		h.timer.Stop()
	}
}

// Armed reports the epoch of the timer currently armed for userID.
func (s *Scheduler) Armed(userID uuid.UUID) (uint64, bool) {
	v, ok := s.handles.Load(userID)
	if !ok {
		return 0, false
	}
	return v.(*handle).epoch, true
}

// Close stops every armed timer and waits for running callbacks to return.
func (s *Scheduler) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.cancel()
	s.handles.Range(func(key, value any) bool {
		value.(*handle).timer.Stop()
		s.handles.Delete(key)
		return true
	})
	// drain: holding every slot means no callback is still running
	if err := s.sem.Acquire(context.Background(), s.capacity); err == nil {
		s.sem.Release(s.capacity)
	}
}

func (s *Scheduler) fire(userID uuid.UUID, h *handle, onExpire func()) {
	s.handles.CompareAndDelete(userID, h)
	if s.closed.Load() {
		return
	}

	timersWaiting.Inc()
	err := s.sem.Acquire(s.ctx, 1)
	timersWaiting.Dec()
	if err != nil {
		return
	}
	defer s.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			timerPanics.Inc()
			s.logger.Error().
				Interface("panic", r).
				Str("user_id", userID.String()).
				Uint64("epoch", h.epoch).
				Msg("timer callback panicked")
		}
	}()

	timersFired.Inc()
	onExpire()
}
