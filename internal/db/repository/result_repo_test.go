package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	sqlcgen "github.com/gokatarajesh/quiz-engine/internal/db/sqlc"
)

type mockResultStore struct {
	mock.Mock
}

func (m *mockResultStore) InsertQuizResult(ctx context.Context, arg sqlcgen.InsertQuizResultParams) (sqlcgen.QuizResult, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(sqlcgen.QuizResult), args.Error(1)
}

func (m *mockResultStore) ListQuizResultsByUser(ctx context.Context, arg sqlcgen.ListQuizResultsByUserParams) ([]sqlcgen.QuizResult, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).([]sqlcgen.QuizResult), args.Error(1)
}

func (m *mockResultStore) GetUserQuizStats(ctx context.Context, userID pgtype.UUID) (sqlcgen.GetUserQuizStatsRow, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(sqlcgen.GetUserQuizStatsRow), args.Error(1)
}

func TestResultRepository_Insert(t *testing.T) {
	store := new(mockResultStore)
	repo := NewResultRepository(store)

	params := sqlcgen.InsertQuizResultParams{
		SessionID:   uuidFromByte(1),
		UserID:      uuidFromByte(2),
		Source:      "text",
		Earned:      12,
		Possible:    18,
		Percentage:  66.67,
		Tier:        "Needs improvement",
		Correct:     2,
		Questions:   3,
		Outcomes:    []string{"correct", "incorrect", "correct"},
		StartedAt:   PgTime(time.Unix(100, 0)),
		CompletedAt: PgTime(time.Unix(200, 0)),
	}
	store.On("InsertQuizResult", mock.Anything, params).Return(sqlcgen.QuizResult{SessionID: params.SessionID}, nil)

	inserted, err := repo.Insert(context.Background(), params)
	assert.NoError(t, err)
	assert.True(t, inserted)
	store.AssertExpectations(t)
}

func TestResultRepository_InsertDuplicateIsNoop(t *testing.T) {
	store := new(mockResultStore)
	repo := NewResultRepository(store)

	store.On("InsertQuizResult", mock.Anything, mock.Anything).Return(sqlcgen.QuizResult{}, pgx.ErrNoRows)

	inserted, err := repo.Insert(context.Background(), sqlcgen.InsertQuizResultParams{SessionID: uuidFromByte(3)})
	assert.NoError(t, err)
	assert.False(t, inserted)
}

func TestResultRepository_InsertError(t *testing.T) {
	store := new(mockResultStore)
	repo := NewResultRepository(store)

	boom := errors.New("connection reset")
	store.On("InsertQuizResult", mock.Anything, mock.Anything).Return(sqlcgen.QuizResult{}, boom)

	inserted, err := repo.Insert(context.Background(), sqlcgen.InsertQuizResultParams{})
	assert.ErrorIs(t, err, boom)
	assert.False(t, inserted)
}

func TestResultRepository_ListByUser(t *testing.T) {
	store := new(mockResultStore)
	repo := NewResultRepository(store)

	userID := uuid.New()
	expect := []sqlcgen.QuizResult{{Earned: 10, Possible: 10}}
	store.On("ListQuizResultsByUser", mock.Anything, sqlcgen.ListQuizResultsByUserParams{
		UserID: PgUUID(userID),
		Limit:  5,
	}).Return(expect, nil)

	got, err := repo.ListByUser(context.Background(), userID, 5)
	assert.NoError(t, err)
	assert.Equal(t, expect, got)
	store.AssertExpectations(t)
}

func TestResultRepository_Stats(t *testing.T) {
	store := new(mockResultStore)
	repo := NewResultRepository(store)

	userID := uuid.New()
	row := sqlcgen.GetUserQuizStatsRow{Quizzes: 2, Earned: 22, Possible: 28, BestPercentage: 100}
	store.On("GetUserQuizStats", mock.Anything, PgUUID(userID)).Return(row, nil)

	got, err := repo.Stats(context.Background(), userID)
	assert.NoError(t, err)
	assert.Equal(t, row, got)
}
