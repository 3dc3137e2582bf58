package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/world-forge/pkg/entity"
)

const entityKeyPrefix = "entity:"

// RedisStorage implements the Storage interface using Redis. Entity
// records carry their image as an embedded data URI, so payloads are
// gzip-compressed before SET and decompressed on GET.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Entity operations

func (r *RedisStorage) SaveEntity(ctx context.Context, ent *entity.GeneratedEntity) error {
	if ent == nil || ent.ID == "" {
		return fmt.Errorf("entity must have an id")
	}

	data, err := json.Marshal(ent)
	if err != nil {
		r.logger.Error("Failed to marshal entity", "id", ent.ID, "error", err)
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	compressed, err := compressPayload(data)
	if err != nil {
		return fmt.Errorf("failed to compress entity: %w", err)
	}

	key := entityKeyPrefix + ent.ID
	if err := r.client.Set(ctx, key, compressed, 0).Err(); err != nil {
		r.logger.Error("Failed to save entity", "id", ent.ID, "error", err)
		return fmt.Errorf("failed to save entity: %w", err)
	}

	return nil
}

func (r *RedisStorage) GetEntity(ctx context.Context, id string) (*entity.GeneratedEntity, error) {
	key := entityKeyPrefix + id
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load entity: %w", err)
	}

	data, err := decompressPayload(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress entity: %w", err)
	}

	var ent entity.GeneratedEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &ent, nil
}

func (r *RedisStorage) ListEntityIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	iter := r.client.Scan(ctx, 0, entityKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, iter.Val()[len(entityKeyPrefix):])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	return ids, nil
}

func (r *RedisStorage) DeleteEntity(ctx context.Context, id string) error {
	key := entityKeyPrefix + id
	deleted, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// GetRedisClient exposes the underlying client for components that share
// the connection, like the event broadcaster.
func (r *RedisStorage) GetRedisClient() *redis.Client {
	return r.client
}

func compressPayload(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressPayload(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
