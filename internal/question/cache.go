package question

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 30 * time.Minute

// Cache keeps generated quiz text in Redis so repeated topics skip the
// generator.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ TextCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(topic string) string {
	return "quiztext:" + topic
}

// Get returns the cached text for topic. A miss is ("", false, nil).
func (c *Cache) Get(ctx context.Context, topic string) (string, bool, error) {
	text, err := c.client.Get(ctx, c.key(topic)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, err
	}
	return text, true, nil
}

func (c *Cache) Set(ctx context.Context, topic, text string) error {
	return c.client.Set(ctx, c.key(topic), text, c.ttl).Err()
}

// NormalizeTopic folds case and whitespace so equivalent topics share a key.
func NormalizeTopic(topic string) string {
	return strings.ToLower(strings.Join(strings.Fields(topic), " "))
}
