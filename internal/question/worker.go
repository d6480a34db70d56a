package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PrefetchWorker keeps quiz text for popular topics warm in the cache so the
// first user to pick a topic does not wait on the generator.
type PrefetchWorker struct {
	service  *Service
	topics   []string
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

func NewPrefetchWorker(service *Service, topics []string, interval, timeout time.Duration, logger zerolog.Logger) *PrefetchWorker {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PrefetchWorker{
		service:  service,
		topics:   topics,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With().Str("component", "question_prefetch").Logger(),
	}
}

// Run warms every topic once immediately and then on each tick until ctx is
// cancelled.
func (w *PrefetchWorker) Run(ctx context.Context) error {
	if len(w.topics) == 0 {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.warm(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("question prefetch stopping")
			return ctx.Err()
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

func (w *PrefetchWorker) warm(ctx context.Context) {
	for _, topic := range w.topics {
		fetchCtx, cancel := context.WithTimeout(ctx, w.timeout)
		if _, err := w.service.Fetch(fetchCtx, topic); err != nil {
			w.logger.Warn().Err(err).Str("topic", topic).Msg("prefetch failed")
		}
		cancel()
	}
}
