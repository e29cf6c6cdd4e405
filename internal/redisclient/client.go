package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/allocate_chest_number.lua
var allocateChestNumberScript string

// ChestNumberKey holds the last chest number handed out
const ChestNumberKey = "registration:chest_number"

type Client struct {
	rdb            *redis.Client
	allocateScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:            rdb,
		allocateScript: redis.NewScript(allocateChestNumberScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// AllocateChestNumber atomically raises the counter to at least floor and increments it.
// Two callers never receive the same value, even when both pass the same floor.
func (c *Client) AllocateChestNumber(ctx context.Context, floor int64) (int64, error) {
	result, err := c.allocateScript.Run(ctx, c.rdb, []string{ChestNumberKey}, floor).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate chest number script failed: %w", err)
	}

	n, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type %T", result)
	}
	return n, nil
}
