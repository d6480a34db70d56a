package question

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gokatarajesh/quiz-engine/internal/quiz"
)

// ErrNoProvider means every provider failed or none is configured.
var ErrNoProvider = errors.New("no question provider produced a quiz")

// TextCache defines cache behavior (implemented by Redis-backed Cache).
type TextCache interface {
	Get(ctx context.Context, topic string) (string, bool, error)
	Set(ctx context.Context, topic, text string) error
}

// Provider produces raw quiz text for a request.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// ServiceOptions configures the question service.
type ServiceOptions struct {
	QuestionCount int
}

// Service returns quiz text for a topic: cache first, then providers in order.
// Concurrent requests for one topic share a single generation.
type Service struct {
	cache     TextCache
	providers []Provider
	count     int
	group     singleflight.Group
	logger    zerolog.Logger
}

var _ quiz.QuestionSource = (*Service)(nil)

func NewService(cache TextCache, providers []Provider, opts ServiceOptions, logger zerolog.Logger) *Service {
	count := opts.QuestionCount
	if count <= 0 {
		count = 5
	}
	return &Service{
		cache:     cache,
		providers: providers,
		count:     count,
		logger:    logger.With().Str("component", "question_service").Logger(),
	}
}

// Fetch returns quiz text for topic.
func (s *Service) Fetch(ctx context.Context, topic string) (string, error) {
	key := NormalizeTopic(topic)
	if key == "" {
		return "", fmt.Errorf("empty topic")
	}

	if s.cache != nil {
		text, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("topic", key).Msg("question cache read failed")
		} else if ok {
			return text, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.generate(ctx, key)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *Service) generate(ctx context.Context, topic string) (string, error) {
	req := Request{Topic: topic, Count: s.count}

	var errs []error
	for _, p := range s.providers {
		text, err := p.Generate(ctx, req)
		if err != nil {
			s.logger.Warn().Err(err).Str("provider", p.Name()).Str("topic", topic).Msg("question provider failed")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if len(quiz.Parse(text)) == 0 {
			s.logger.Warn().Str("provider", p.Name()).Str("topic", topic).Msg("provider text has no recognizable questions")
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), quiz.ErrParseEmpty))
			continue
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, topic, text); err != nil {
				s.logger.Warn().Err(err).Str("topic", topic).Msg("question cache write failed")
			}
		}
		return text, nil
	}

	if len(errs) == 0 {
		return "", ErrNoProvider
	}
	return "", fmt.Errorf("%w: %w", ErrNoProvider, errors.Join(errs...))
}
