package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResponseCache keeps rendered read-model responses in Redis. A cache with
// no client is disabled: reads miss and writes are dropped.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponseCache connects to redisURL. An empty URL, or a Redis that does
// not answer PING, yields a disabled cache.
func NewResponseCache(redisURL string, ttl time.Duration) *ResponseCache {
	if redisURL == "" {
		log.Println("REDIS_URL not set, response cache disabled.")
		return &ResponseCache{ttl: ttl}
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Invalid REDIS_URL, response cache disabled: %v", err)
		return &ResponseCache{ttl: ttl}
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, response cache disabled: %v", err)
		_ = client.Close()
		return &ResponseCache{ttl: ttl}
	}
	log.Println("Connected to Redis.")
	return NewResponseCacheWithClient(client, ttl)
}

func NewResponseCacheWithClient(client *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{client: client, ttl: ttl}
}

func (c *ResponseCache) Enabled() bool { return c != nil && c.client != nil }

// Get decodes the cached value for key into dst and reports a hit.
func (c *ResponseCache) Get(ctx context.Context, key string, dst any) bool {
	if !c.Enabled() {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("cache decode %s: %v", key, err)
		return false
	}
	return true
}

func (c *ResponseCache) Set(ctx context.Context, key string, value any) {
	if !c.Enabled() {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("cache set %s: %v", key, err)
	}
}

func (c *ResponseCache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache invalidate %v: %v", keys, err)
	}
}

func (c *ResponseCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
