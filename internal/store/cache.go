package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements CacheStore on Redis.
type redisStore struct {
	client *redis.Client
}

func newRedisStore(ctx context.Context, url string) (*redisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore{client: client}, nil
}

func (r *redisStore) close(context.Context) error {
	return r.client.Close()
}

func (r *redisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("cache get %s: %w", key, err)
	}
	return value, nil
}

func (r *redisStore) SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (r *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

func (r *redisStore) SetHashWithTTL(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if len(fields) == 0 {
		return nil
	}
	values := make([]any, 0, len(fields)*2)
	for field, value := range fields {
		values = append(values, field, value)
	}
	if err := r.client.HSet(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("cache hset %s: %w", key, err)
	}
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("cache expire %s: %w", key, err)
	}
	return nil
}

func (r *redisStore) GetHash(ctx context.Context, key string) (map[string]string, error) {
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("cache hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return fields, nil
}

func (r *redisStore) Stats(ctx context.Context) (CacheStats, error) {
	var stats CacheStats

	info, err := r.client.Info(ctx, "stats").Result()
	if err != nil {
		return CacheStats{}, fmt.Errorf("cache info: %w", err)
	}
	stats.Hits = infoInt(info, "keyspace_hits")
	stats.Misses = infoInt(info, "keyspace_misses")
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	memory, err := r.client.Info(ctx, "memory").Result()
	if err == nil {
		stats.UsedMemory = infoString(memory, "used_memory_human")
	}

	keys, err := r.client.DBSize(ctx).Result()
	if err != nil {
		return CacheStats{}, fmt.Errorf("cache dbsize: %w", err)
	}
	stats.Keys = keys

	return stats, nil
}

func infoString(info, field string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if value, found := strings.CutPrefix(line, field+":"); found {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func infoInt(info, field string) int64 {
	value, err := strconv.ParseInt(infoString(info, field), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
