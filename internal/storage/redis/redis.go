package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	rdb "dumpster-quote/pkg/redis"

	"github.com/goccy/go-json"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// KV is the subset of pkg/redis.Client the session store needs.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

type Storage struct {
	kv KV
}

func New(kv KV) *Storage {
	return &Storage{kv: kv}
}

func (s *Storage) SaveSession(ctx context.Context, id string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.kv.Set(ctx, buildSessionKey(id), data, ttl); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// LoadSession decodes the stored session into v.
func (s *Storage) LoadSession(ctx context.Context, id string, v any) error {
	data, err := s.kv.Get(ctx, buildSessionKey(id))
	if errors.Is(err, rdb.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("get session %s: %w", id, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal failure: %w", err)
	}
	return nil
}

// CheckRateLimit counts one action against key and reports whether the
// limit inside window is exceeded.
func (s *Storage) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error) {
	key = buildRateLimitKey(key)

	count, err := s.kv.IncrWindow(ctx, key, window)
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return count > limit, nil
}

func buildSessionKey(id string) string {
	return "session:" + id
}

func buildRateLimitKey(key string) string {
	return "ratelimit:" + key
}
