package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eventra/eventra/config"
)

// Client is the process-wide Redis handle. It is created once at startup
// and closed on shutdown; handlers must not build their own connections.
type Client struct {
	rdb *redis.Client
}

const eventListTTL = 30 * time.Second

func NewClient(cfg *config.Config) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0,
	})

	return &Client{rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetEventList returns the cached JSON body for an event listing query, or
// "" on a miss. Cache errors degrade to misses.
func (c *Client) GetEventList(ctx context.Context, key string) string {
	val, err := c.rdb.Get(ctx, eventListKey(key)).Result()
	if err != nil {
		return ""
	}
	return val
}

func (c *Client) SetEventList(ctx context.Context, key, body string) {
	c.rdb.Set(ctx, eventListKey(key), body, eventListTTL)
}

// InvalidateEventLists drops every cached listing page. Called after any
// event write so stale remaining counts never outlive a booking.
func (c *Client) InvalidateEventLists(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, eventListKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func eventListKey(suffix string) string {
	return fmt.Sprintf("event_list:%s", suffix)
}
