package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures [NewRedisCache].
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	// Prefix namespaces every key, e.g. "pedigree:".
	Prefix string `toml:"prefix"`

	// Timeout bounds dialing and each command. Zero means 3s.
	Timeout time.Duration `toml:"timeout"`
}

// DefaultRedisPrefix is used when RedisConfig.Prefix is empty.
const DefaultRedisPrefix = "pedigree:"

// RedisCache is a Cache backed by Redis. Transient failures are retried
// with backoff before being reported as ErrNetwork.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	backoff Backoff
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: ping redis %s: %w", ErrNetwork, cfg.Addr, err)
	}
	return NewRedisCacheFromClient(client, cfg.Prefix), nil
}

// NewRedisCacheFromClient wraps an existing client. An empty prefix means
// DefaultRedisPrefix.
func NewRedisCacheFromClient(client redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisCache{client: client, prefix: prefix, backoff: DefaultBackoff}
}

// Get returns the value for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	hit := false
	err := c.backoff.Do(ctx, func() error {
		v, err := c.client.Get(ctx, c.key(key)).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			return nil
		case err != nil:
			return Transient(err)
		}
		data, hit = v, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return data, hit, nil
}

// Set stores data under key with Redis-side expiry.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.backoff.Do(ctx, func() error {
		return Transient(c.client.Set(ctx, c.key(key), data, ttl).Err())
	})
}

// Delete removes key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.backoff.Do(ctx, func() error {
		return Transient(c.client.Del(ctx, c.key(key)).Err())
	})
}

// Clear deletes every key under the cache's prefix.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("%w: %w", ErrNetwork, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: scan: %w", ErrNetwork, err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrNetwork, err)
		}
	}
	return nil
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
