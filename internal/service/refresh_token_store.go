package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshTokenUnknown indica un jti ausente, expirado o ya consumido.
var ErrRefreshTokenUnknown = errors.New("refresh token unknown")

const (
	redisOpTimeout       = 500 * time.Millisecond
	defaultRefreshWindow = 30 * 24 * time.Hour
	refreshKeyPrefix     = "chatsearch:refresh:"
)

// RefreshTokenStore asocia cada jti de refresh con su usuario. Consume es de
// un solo uso: dos rotaciones concurrentes del mismo token no pueden ganar ambas.
type RefreshTokenStore interface {
	Save(jti, userID string, ttl time.Duration) error
	Consume(jti string) (userID string, err error)
	Revoke(jti string) error
}

type refreshEntry struct {
	userID    string
	expiresAt time.Time
}

type memoryRefreshTokenStore struct {
	mu      sync.Mutex
	entries map[string]refreshEntry
	now     func() time.Time
}

func NewMemoryRefreshTokenStore() RefreshTokenStore {
	return &memoryRefreshTokenStore{
		entries: make(map[string]refreshEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *memoryRefreshTokenStore) Save(jti, userID string, ttl time.Duration) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultRefreshWindow
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = refreshEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryRefreshTokenStore) Consume(jti string) (string, error) {
	jti = strings.TrimSpace(jti)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[jti]
	if !ok {
		return "", ErrRefreshTokenUnknown
	}
	delete(s.entries, jti)
	if s.now().After(entry.expiresAt) {
		return "", ErrRefreshTokenUnknown
	}
	return entry.userID, nil
}

func (s *memoryRefreshTokenStore) Revoke(jti string) error {
	s.mu.Lock()
	delete(s.entries, strings.TrimSpace(jti))
	s.mu.Unlock()
	return nil
}

// refreshRedis es el subconjunto de *redis.Client que usa el store.
type refreshRedis interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	GetDel(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisRefreshTokenStore struct {
	client refreshRedis
	prefix string
}

// NewRedisRefreshTokenStore devuelve nil si no hay cliente; el llamador decide el fallback.
func NewRedisRefreshTokenStore(client *redis.Client) RefreshTokenStore {
	if client == nil {
		return nil
	}
	return &redisRefreshTokenStore{client: client, prefix: refreshKeyPrefix}
}

func (s *redisRefreshTokenStore) key(jti string) (string, bool) {
	jti = strings.TrimSpace(jti)
	return s.prefix + jti, jti != ""
}

func (s *redisRefreshTokenStore) Save(jti, userID string, ttl time.Duration) error {
	key, ok := s.key(jti)
	if !ok {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultRefreshWindow
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Set(ctx, key, userID, ttl).Err()
}

func (s *redisRefreshTokenStore) Consume(jti string) (string, error) {
	key, ok := s.key(jti)
	if !ok {
		return "", ErrRefreshTokenUnknown
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	userID, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrRefreshTokenUnknown
	}
	return userID, err
}

func (s *redisRefreshTokenStore) Revoke(jti string) error {
	key, ok := s.key(jti)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	return s.client.Del(ctx, key).Err()
}
