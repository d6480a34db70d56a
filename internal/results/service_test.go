package results

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-engine/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/quiz-engine/internal/db/sqlc"
	"github.com/gokatarajesh/quiz-engine/internal/quiz"
	"github.com/gokatarajesh/quiz-engine/internal/quiz/scoring"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Insert(ctx context.Context, params sqlcgen.InsertQuizResultParams) (bool, error) {
	args := m.Called(ctx, params)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]sqlcgen.QuizResult, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).([]sqlcgen.QuizResult), args.Error(1)
}

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func completed(userID uuid.UUID, earned, possible int) quiz.CompletedQuiz {
	now := time.Now().UTC().Truncate(time.Second)
	return quiz.CompletedQuiz{
		SessionID: uuid.New(),
		UserID:    userID,
		Source:    "text",
		Result: scoring.Result{
			Earned:     earned,
			Possible:   possible,
			Percentage: float64(earned) / float64(possible) * 100,
			Tier:       "Needs improvement",
			Correct:    1,
			Questions:  2,
		},
		Outcomes:    []quiz.Outcome{quiz.OutcomeCorrect, quiz.OutcomeTimeout},
		StartedAt:   now.Add(-time.Minute),
		CompletedAt: now,
	}
}

func TestRecordWritesBothBackends(t *testing.T) {
	client := newRedis(t)
	repo := new(mockRepo)
	svc := NewService(client, repo, zerolog.New(io.Discard), ServiceOptions{HistorySize: 2})
	userID := uuid.New()

	repo.On("Insert", mock.Anything, mock.MatchedBy(func(p sqlcgen.InsertQuizResultParams) bool {
		return p.UserID == repository.PgUUID(userID) &&
			p.Earned == 3 &&
			len(p.Outcomes) == 2 && p.Outcomes[1] == "timeout"
	})).Return(true, nil).Times(3)

	for _, earned := range []int{3, 3, 3} {
		require.NoError(t, svc.Record(context.Background(), completed(userID, earned, 4)))
	}
	repo.AssertExpectations(t)

	entries, source, err := svc.Recent(context.Background(), userID, 10)
	require.NoError(t, err)
	assert.Equal(t, "redis", source)
	assert.Len(t, entries, 2, "history is trimmed")
	assert.Equal(t, 75.0, entries[0].Percentage)
}

func TestRecentFallsBackToPostgres(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(nil, repo, zerolog.New(io.Discard), ServiceOptions{})
	userID := uuid.New()

	row := sqlcgen.QuizResult{
		SessionID:   repository.PgUUID(uuid.New()),
		UserID:      repository.PgUUID(userID),
		Source:      "topic:space",
		Earned:      10,
		Possible:    10,
		Percentage:  100,
		Tier:        "Needs improvement",
		CompletedAt: repository.PgTime(time.Now()),
	}
	repo.On("ListByUser", mock.Anything, userID, int32(5)).Return([]sqlcgen.QuizResult{row}, nil)

	entries, source, err := svc.Recent(context.Background(), userID, 5)
	require.NoError(t, err)
	assert.Equal(t, "postgres", source)
	require.Len(t, entries, 1)
	assert.Equal(t, "topic:space", entries[0].Source)
	assert.Equal(t, userID, entries[0].UserID)
}

func TestRecordJoinsErrors(t *testing.T) {
	client := newRedis(t)
	repo := new(mockRepo)
	repo.On("Insert", mock.Anything, mock.Anything).Return(false, errors.New("db down"))
	svc := NewService(client, repo, zerolog.New(io.Discard), ServiceOptions{})
	userID := uuid.New()

	err := svc.Record(context.Background(), completed(userID, 1, 2))
	assert.ErrorContains(t, err, "db down")

	// redis still got the entry
	entries, source, err := svc.Recent(context.Background(), userID, 0)
	require.NoError(t, err)
	assert.Equal(t, "redis", source)
	assert.Len(t, entries, 1)
}

func TestBestKeepsHighestPercentage(t *testing.T) {
	client := newRedis(t)
	svc := NewService(client, nil, zerolog.New(io.Discard), ServiceOptions{})
	alice, bob := uuid.New(), uuid.New()

	require.NoError(t, svc.Record(context.Background(), completed(alice, 4, 4)))
	require.NoError(t, svc.Record(context.Background(), completed(alice, 1, 4)))
	require.NoError(t, svc.Record(context.Background(), completed(bob, 2, 4)))

	best, err := svc.Best(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, best, 2)
	assert.Equal(t, alice, best[0].UserID)
	assert.Equal(t, 100.0, best[0].Percentage)
	assert.Equal(t, 1, best[0].Rank)
	assert.Equal(t, bob, best[1].UserID)
	assert.Equal(t, 2, best[1].Rank)
}

func TestNoBackends(t *testing.T) {
	svc := NewService(nil, nil, zerolog.New(io.Discard), ServiceOptions{})
	assert.NoError(t, svc.Record(context.Background(), completed(uuid.New(), 1, 1)))

	entries, source, err := svc.Recent(context.Background(), uuid.New(), 3)
	assert.NoError(t, err)
	assert.Equal(t, "none", source)
	assert.Empty(t, entries)

	best, err := svc.Best(context.Background(), 3)
	assert.NoError(t, err)
	assert.Empty(t, best)
}

func TestHTTPHandler(t *testing.T) {
	client := newRedis(t)
	svc := NewService(client, nil, zerolog.New(io.Discard), ServiceOptions{})
	userID := uuid.New()
	require.NoError(t, svc.Record(context.Background(), completed(userID, 3, 4)))

	r := chi.NewRouter()
	NewHTTPHandler(svc, zerolog.New(io.Discard)).Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/results/"+userID.String()+"?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Source  string  `json:"source"`
		Results []Entry `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, "redis", history.Source)
	require.Len(t, history.Results, 1)
	assert.Equal(t, 3, history.Results[0].Earned)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/results/top", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/results/bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
