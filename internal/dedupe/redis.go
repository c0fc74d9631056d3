package dedupe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares seen event keys between worker replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, prefix string, ttl time.Duration, logger *slog.Logger) (*RedisStore, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return newRedisStore(client, prefix, ttl, logger), nil
}

func newRedisStore(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, log: logger}
}

// Key namespaces an event key.
func (s *RedisStore) Key(key string) string {
	return s.prefix + ":seen:" + key
}

// IsSeen reports whether the key exists. Redis errors count as unseen so the
// event is applied again; indexing is idempotent.
func (s *RedisStore) IsSeen(ctx context.Context, key string) bool {
	n, err := s.client.Exists(ctx, s.Key(key)).Result()
	if err != nil {
		s.log.Warn("dedupe lookup failed", slog.Any("err", err))
		return false
	}
	return n > 0
}

// MarkSeen stores the key with the configured ttl.
func (s *RedisStore) MarkSeen(ctx context.Context, key string) {
	if err := s.client.Set(ctx, s.Key(key), 1, s.ttl).Err(); err != nil {
		s.log.Warn("dedupe mark failed", slog.Any("err", err))
	}
}

// Close releases the connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
