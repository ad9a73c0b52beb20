package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "doracomply:alerts:"

// RedisDeduper shares alert claims between replicas through Redis SETNX.
type RedisDeduper struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisDeduper connects to Redis and verifies the connection.
func NewRedisDeduper(ctx context.Context, cfg RedisConfig) (*RedisDeduper, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisDeduper{client: client}, nil
}

// Claim implements Deduper.
func (d *RedisDeduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, redisKeyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim alert %s: %w", key, err)
	}
	return ok, nil
}

// Release implements Deduper.
func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release alert %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client.
func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
