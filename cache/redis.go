package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore backs the query cache with Redis. Cache failures degrade to
// misses rather than surfacing errors to callers.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and returns a cache backend using it
func NewRedisStore(addr, password string, db int, ttl time.Duration) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &redisStore{client: client, ttl: ttl}, nil
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("cache get %s: %v", key, err)
		return nil, false
	}
	return value, true
}

func (r *redisStore) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

func (r *redisStore) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache invalidate %v: %v", keys, err)
	}
}
