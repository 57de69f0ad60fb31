package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe: when Redis is unset or unreachable
// reads behave as misses and writes are dropped. A nil *Client is valid.
type Client struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a new Redis client. An empty addr disables caching and returns nil.
func New(addr, password string, db int, logger *slog.Logger) *Client {
	if addr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts), logger: logger}
}

// Enabled reports whether a Redis server is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) []byte {
	if !c.Enabled() {
		return nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn("cache get failed", key, err)
		}
		return nil
	}
	return res
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.warn("cache set failed", key, err)
	}
}

// Delete removes keys, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.warn("cache delete failed", keys[0], err)
	}
}

// Exists reports whether key is present. Errors count as absent.
func (c *Client) Exists(ctx context.Context, key string) bool {
	if !c.Enabled() {
		return false
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.warn("cache exists failed", key, err)
		return false
	}
	return n > 0
}

// GetJSON decodes the cached value into dst and reports whether it was a hit.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	data := c.Get(ctx, key)
	if data == nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON encodes value and stores it with TTL.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.warn("cache encode failed", key, err)
		return
	}
	c.Set(ctx, key, payload, ttl)
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

func (c *Client) warn(msg, key string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.String("key", key), slog.String("error", err.Error()))
	}
}
