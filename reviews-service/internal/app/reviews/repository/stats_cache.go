package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gigboard/pkg/metrics"
	"gigboard/reviews-service/internal/app/reviews/entity"

	"github.com/redis/go-redis/v9"
)

const (
	globalStatsKey   = "reviews:stats:global"
	statsCachePrefix = "reviews:stats"
)

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	return &redisStatsCache{client: client, ttl: ttl}
}

func (c *redisStatsCache) GetGlobalStats(ctx context.Context) (*entity.GlobalStats, error) {
	timer := metrics.NewRedisTimer(serviceName, metrics.RedisOpGet)
	data, err := c.client.Get(ctx, globalStatsKey).Bytes()
	timer.ObserveDuration()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordCacheMiss(serviceName, statsCachePrefix)
			return nil, nil
		}
		metrics.RecordRedisError(serviceName, metrics.RedisOpGet)
		return nil, fmt.Errorf("failed to get stats from cache: %w", err)
	}

	var stats entity.GlobalStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
	}

	metrics.RecordCacheHit(serviceName, statsCachePrefix)
	return &stats, nil
}

func (c *redisStatsCache) SetGlobalStats(ctx context.Context, stats *entity.GlobalStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpSet).ObserveDuration()
	if err := c.client.Set(ctx, globalStatsKey, data, c.ttl).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpSet)
		return fmt.Errorf("failed to set stats in cache: %w", err)
	}

	return nil
}

func (c *redisStatsCache) Invalidate(ctx context.Context) error {
	defer metrics.NewRedisTimer(serviceName, metrics.RedisOpDel).ObserveDuration()
	if err := c.client.Del(ctx, globalStatsKey).Err(); err != nil {
		metrics.RecordRedisError(serviceName, metrics.RedisOpDel)
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	return nil
}
