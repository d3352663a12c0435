// Package redis is the Redis-backed settings store.
package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"halomind/internal/adapters/config"
	"halomind/pkg/errors"
)

// Client stores JSON values under an optional key prefix. Values never
// expire: settings outlive restarts until explicitly cleared.
type Client struct {
	rdb    *redis.Client
	prefix string
}

// Option customizes a Client
type Option func(*Client)

// WithKeyPrefix namespaces every key, letting several deployments share one database
func WithKeyPrefix(prefix string) Option {
	return func(c *Client) { c.prefix = prefix }
}

// NewClient connects and pings; the caller owns Close
func NewClient(ctx context.Context, cfg config.RedisConfig, opts ...Option) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "redis ping %s", cfg.Addr())
	}

	c := &Client{rdb: rdb}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Client exposes the go-redis client for maintenance commands
func (c *Client) Client() *redis.Client {
	return c.rdb
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) key(k string) string {
	return c.prefix + k
}

// Set stores value JSON-encoded
func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return c.rdb.Set(ctx, c.key(key), data, 0).Err()
}

// Get decodes the value at key into dest; a missing key yields errors.ErrNotFound
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return errors.ErrNotFound
	}
	if err != nil {
		return errors.Wrapf(err, "redis get %s", key)
	}
	return json.Unmarshal(data, dest)
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	return c.rdb.Del(ctx, prefixed...).Err()
}
