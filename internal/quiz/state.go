package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultMirrorTTL = 30 * time.Minute

// clearIfOwner deletes the marker only while it still names our session, so a
// finishing session never clears the marker of the one that replaced it.
var clearIfOwner = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisMirror records which session each user is running under
// quiz:session:<user_id>. The in-memory Store stays authoritative.
type RedisMirror struct {
	redis *redis.Client
	ttl   time.Duration
}

var _ Mirror = (*RedisMirror)(nil)

// NewRedisMirror creates a liveness mirror. ttl bounds how long a marker
// outlives a crashed process.
func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	if ttl <= 0 {
		ttl = defaultMirrorTTL
	}
	return &RedisMirror{redis: client, ttl: ttl}
}

func (m *RedisMirror) key(userID uuid.UUID) string {
	return fmt.Sprintf("quiz:session:%s", userID.String())
}

// MarkActive sets the marker for userID to sessionID.
func (m *RedisMirror) MarkActive(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := m.redis.Set(ctx, m.key(userID), sessionID.String(), m.ttl).Err(); err != nil {
		return fmt.Errorf("mark session: %w", err)
	}
	return nil
}

// Clear removes the marker if it still belongs to sessionID.
func (m *RedisMirror) Clear(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := clearIfOwner.Run(ctx, m.redis, []string{m.key(userID)}, sessionID.String()).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ActiveSession returns the session id recorded for userID, if any.
func (m *RedisMirror) ActiveSession(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	raw, err := m.redis.Get(ctx, m.key(userID)).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("get session marker: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("parse session marker: %w", err)
	}
	return id, true, nil
}
