package repository

import (
	"context"
	"fmt"
	"time"

	"gigboard/notification-worker-service/internal/app/notification-worker/entity"
	"gigboard/pkg/metrics"

	"github.com/redis/go-redis/v9"
)

type redisDedupStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDedupStore(client *redis.Client, ttl time.Duration) DedupStore {
	return &redisDedupStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *redisDedupStore) Acquire(ctx context.Context, eventID, recipientID string) (bool, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpSetNX)
	defer timer.ObserveDuration()

	acquired, err := s.client.SetNX(ctx, entity.GetDedupeKey(eventID, recipientID), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSetNX)
		return false, fmt.Errorf("failed to acquire dedupe key: %w", err)
	}

	return acquired, nil
}

func (s *redisDedupStore) Release(ctx context.Context, eventID, recipientID string) error {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpDel)
	defer timer.ObserveDuration()

	if err := s.client.Del(ctx, entity.GetDedupeKey(eventID, recipientID)).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to release dedupe key: %w", err)
	}

	return nil
}

func (s *redisDedupStore) Ping(ctx context.Context) error {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpPing).ObserveDuration()
	return s.client.Ping(ctx).Err()
}
