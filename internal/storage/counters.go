package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/world-forge/internal/forge"
	"github.com/jwebster45206/world-forge/pkg/entity"
)

const countersKey = "forge-counters"

// NewCounterStore builds the configured counter store. The cleanup
// function releases any resources the store holds; it is a no-op for
// the memory and redis stores.
func NewCounterStore(kind string, dbPath string, redisClient *redis.Client, logger *slog.Logger) (forge.CounterStore, func(), error) {
	switch kind {
	case "redis":
		return NewRedisCounterStore(redisClient, logger), func() {}, nil
	case "sqlite":
		store, err := NewSQLiteCounterStore(dbPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case "memory":
		return forge.NewMemoryCounterStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown counter store %q", kind)
	}
}

// RedisCounterStore keeps id counters in a Redis hash, so counts survive
// restarts and stay unique when several processes allocate concurrently.
// HINCRBY is atomic per field, which gives the no-duplicates, no-gaps
// guarantee the allocator needs.
type RedisCounterStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ forge.CounterStore = (*RedisCounterStore)(nil)

func NewRedisCounterStore(client *redis.Client, logger *slog.Logger) *RedisCounterStore {
	return &RedisCounterStore{
		client: client,
		logger: logger,
	}
}

func (s *RedisCounterStore) Next(ctx context.Context, kind entity.Kind, category string) (int, error) {
	field := forge.CounterKey(kind, category)
	count, err := s.client.HIncrBy(ctx, countersKey, field, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", field, err)
	}
	return int(count), nil
}

func (s *RedisCounterStore) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, countersKey).Err(); err != nil {
		return fmt.Errorf("failed to reset counters: %w", err)
	}
	s.logger.Info("Counters reset")
	return nil
}
