package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventKeyPrefix = "webhook:event:"

// RedisEventStore implements EventStore for Redis
type RedisEventStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisEventStore creates a new Redis event store
func NewRedisEventStore(host string, port int, password string, db int, logger *zap.Logger) (*RedisEventStore, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisEventStoreFromClient(client, logger), nil
}

// NewRedisEventStoreFromClient wraps an existing client
func NewRedisEventStoreFromClient(client *redis.Client, logger *zap.Logger) *RedisEventStore {
	return &RedisEventStore{
		client: client,
		logger: logger,
	}
}

// MarkProcessed records the event id if absent and reports whether it was new
func (s *RedisEventStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, eventKeyPrefix+eventID, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark event processed: %w", err)
	}
	return ok, nil
}

// Forget removes an event id so a retried delivery is processed again
func (s *RedisEventStore) Forget(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, eventKeyPrefix+eventID).Err()
}

// Ping checks the Redis connection
func (s *RedisEventStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisEventStore) Close() error {
	return s.client.Close()
}
