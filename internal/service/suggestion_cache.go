package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-search/internal/domain"
)

const starterCacheTTL = 10 * time.Minute

// StarterCache guarda sugerencias iniciales por modelo. Un miss se reporta
// como (nil, false, nil).
type StarterCache interface {
	Get(ctx context.Context, model string, max int) ([]domain.Suggestion, bool, error)
	Set(ctx context.Context, model string, max int, suggestions []domain.Suggestion) error
}

type redisGetSetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type redisStarterCache struct {
	client redisGetSetter
	ttl    time.Duration
	prefix string
}

func NewRedisStarterCache(client *redis.Client) StarterCache {
	if client == nil {
		return nil
	}
	return &redisStarterCache{
		client: client,
		ttl:    starterCacheTTL,
		prefix: "suggest:starter:",
	}
}

func (c *redisStarterCache) key(model string, max int) string {
	return fmt.Sprintf("%s%s:%d", c.prefix, model, max)
}

func (c *redisStarterCache) Get(ctx context.Context, model string, max int) ([]domain.Suggestion, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	raw, err := c.client.Get(ctx, c.key(model, max)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []domain.Suggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("decode cached starters: %w", err)
	}
	return out, true, nil
}

func (c *redisStarterCache) Set(ctx context.Context, model string, max int, suggestions []domain.Suggestion) error {
	body, err := json.Marshal(suggestions)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return c.client.Set(ctx, c.key(model, max), body, c.ttl).Err()
}
