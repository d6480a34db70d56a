package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-engine/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/quiz-engine/internal/db/sqlc"
	"github.com/gokatarajesh/quiz-engine/internal/quiz"
)

// Entry is one completed quiz as returned to clients.
type Entry struct {
	SessionID   uuid.UUID `json:"session_id"`
	UserID      uuid.UUID `json:"user_id"`
	Source      string    `json:"source"`
	Earned      int       `json:"earned"`
	Possible    int       `json:"possible"`
	Percentage  float64   `json:"percentage"`
	Tier        string    `json:"tier"`
	CompletedAt time.Time `json:"completed_at"`
}

// BestEntry is a user's best percentage.
type BestEntry struct {
	Rank       int       `json:"rank"`
	UserID     uuid.UUID `json:"user_id"`
	Percentage float64   `json:"percentage"`
}

type resultRepo interface {
	Insert(ctx context.Context, params sqlcgen.InsertQuizResultParams) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]sqlcgen.QuizResult, error)
}

// ServiceOptions configures result history behavior.
type ServiceOptions struct {
	HistorySize    int
	HistoryTTL     time.Duration
	TopN           int
	RedisKeyPrefix string
}

// Service records completed quizzes in Postgres and keeps a recent-history
// list and best-percentage ranking in Redis. Either backend may be nil.
type Service struct {
	redis       *redis.Client
	repo        resultRepo
	logger      zerolog.Logger
	historySize int
	historyTTL  time.Duration
	topN        int
	prefix      string
}

var _ quiz.ResultSink = (*Service)(nil)

// NewService constructs a results service.
func NewService(redis *redis.Client, repo resultRepo, logger zerolog.Logger, opts ServiceOptions) *Service {
	size := opts.HistorySize
	if size <= 0 {
		size = 20
	}
	ttl := opts.HistoryTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "results"
	}
	return &Service{
		redis:       redis,
		repo:        repo,
		logger:      logger.With().Str("component", "results").Logger(),
		historySize: size,
		historyTTL:  ttl,
		topN:        topN,
		prefix:      prefix,
	}
}

// Record stores a completed quiz. Both backends are attempted; errors are
// joined.
func (s *Service) Record(ctx context.Context, done quiz.CompletedQuiz) error {
	var errs []error

	if s.repo != nil {
		if _, err := s.repo.Insert(ctx, toParams(done)); err != nil {
			errs = append(errs, fmt.Errorf("persist result: %w", err))
		}
	}

	if s.redis != nil {
		if err := s.pushHistory(ctx, fromCompleted(done)); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Recent returns a user's latest results, newest first, from Redis when it
// has them and from Postgres otherwise. source names the backend used.
func (s *Service) Recent(ctx context.Context, userID uuid.UUID, limit int) (entries []Entry, source string, err error) {
	if limit <= 0 || limit > s.historySize {
		limit = s.historySize
	}

	if s.redis != nil {
		raw, err := s.redis.LRange(ctx, s.historyKey(userID), 0, int64(limit-1)).Result()
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("redis history fetch failed")
		} else if len(raw) > 0 {
			entries = make([]Entry, 0, len(raw))
			for _, item := range raw {
				var e Entry
				if err := json.Unmarshal([]byte(item), &e); err != nil {
					s.logger.Warn().Err(err).Msg("skip malformed history entry")
					continue
				}
				entries = append(entries, e)
			}
			return entries, "redis", nil
		}
	}

	if s.repo == nil {
		return nil, "none", nil
	}
	rows, err := s.repo.ListByUser(ctx, userID, int32(limit))
	if err != nil {
		return nil, "postgres", fmt.Errorf("list results: %w", err)
	}
	entries = make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, fromRow(row))
	}
	return entries, "postgres", nil
}

// Best returns users ranked by their best percentage.
func (s *Service) Best(ctx context.Context, limit int) ([]BestEntry, error) {
	if s.redis == nil {
		return nil, nil
	}
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.bestKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch best results: %w", err)
	}

	entries := make([]BestEntry, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		userID, err := uuid.Parse(member)
		if err != nil {
			continue
		}
		entries = append(entries, BestEntry{
			Rank:       len(entries) + 1,
			UserID:     userID,
			Percentage: z.Score,
		})
	}
	return entries, nil
}

func (s *Service) pushHistory(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	key := s.historyKey(e.UserID)
	pipe := s.redis.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(s.historySize-1))
	pipe.Expire(ctx, key, s.historyTTL)
	pipe.ZAddGT(ctx, s.bestKey(), redis.Z{Score: e.Percentage, Member: e.UserID.String()})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update result history: %w", err)
	}
	return nil
}

func (s *Service) historyKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:history:%s", s.prefix, userID.String())
}

func (s *Service) bestKey() string {
	return fmt.Sprintf("%s:best", s.prefix)
}

func fromCompleted(done quiz.CompletedQuiz) Entry {
	return Entry{
		SessionID:   done.SessionID,
		UserID:      done.UserID,
		Source:      done.Source,
		Earned:      done.Result.Earned,
		Possible:    done.Result.Possible,
		Percentage:  done.Result.Percentage,
		Tier:        done.Result.Tier,
		CompletedAt: done.CompletedAt,
	}
}

func toParams(done quiz.CompletedQuiz) sqlcgen.InsertQuizResultParams {
	outcomes := make([]string, len(done.Outcomes))
	for i, o := range done.Outcomes {
		outcomes[i] = string(o)
	}
	return sqlcgen.InsertQuizResultParams{
		SessionID:   repository.PgUUID(done.SessionID),
		UserID:      repository.PgUUID(done.UserID),
		Source:      done.Source,
		Earned:      int32(done.Result.Earned),
		Possible:    int32(done.Result.Possible),
		Percentage:  done.Result.Percentage,
		Tier:        done.Result.Tier,
		Correct:     int32(done.Result.Correct),
		Questions:   int32(done.Result.Questions),
		Outcomes:    outcomes,
		StartedAt:   repository.PgTime(done.StartedAt),
		CompletedAt: repository.PgTime(done.CompletedAt),
	}
}

func fromRow(row sqlcgen.QuizResult) Entry {
	return Entry{
		SessionID:   uuid.UUID(row.SessionID.Bytes),
		UserID:      uuid.UUID(row.UserID.Bytes),
		Source:      row.Source,
		Earned:      int(row.Earned),
		Possible:    int(row.Possible),
		Percentage:  row.Percentage,
		Tier:        row.Tier,
		CompletedAt: row.CompletedAt.Time,
	}
}
