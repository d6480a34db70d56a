package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	sqlcgen "github.com/gokatarajesh/quiz-engine/internal/db/sqlc"
)

type resultStore interface {
	InsertQuizResult(ctx context.Context, arg sqlcgen.InsertQuizResultParams) (sqlcgen.QuizResult, error)
	ListQuizResultsByUser(ctx context.Context, arg sqlcgen.ListQuizResultsByUserParams) ([]sqlcgen.QuizResult, error)
	GetUserQuizStats(ctx context.Context, userID pgtype.UUID) (sqlcgen.GetUserQuizStatsRow, error)
}

// ResultRepository persists completed quiz results.
type ResultRepository struct {
	store resultStore
}

// NewResultRepository wraps sqlc Queries for quiz results.
func NewResultRepository(store resultStore) *ResultRepository {
	return &ResultRepository{store: store}
}

// Insert stores a result. Re-inserting the same session is a no-op and
// reports inserted=false.
func (r *ResultRepository) Insert(ctx context.Context, params sqlcgen.InsertQuizResultParams) (inserted bool, err error) {
	if _, err := r.store.InsertQuizResult(ctx, params); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListByUser returns the user's most recent results, newest first.
func (r *ResultRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int32) ([]sqlcgen.QuizResult, error) {
	return r.store.ListQuizResultsByUser(ctx, sqlcgen.ListQuizResultsByUserParams{
		UserID: PgUUID(userID),
		Limit:  limit,
	})
}

// Stats returns lifetime aggregates for a user.
func (r *ResultRepository) Stats(ctx context.Context, userID uuid.UUID) (sqlcgen.GetUserQuizStatsRow, error) {
	return r.store.GetUserQuizStats(ctx, PgUUID(userID))
}

// PgUUID converts a uuid.UUID into its pgtype form.
func PgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// PgTime converts t into a valid timestamptz.
func PgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
