package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/podaac/swodlr-async-update/internal/repository"
)

var _ repository.DedupStore = (*redisDedup)(nil)

const lockKeyPrefix = "swodlr:update:seen:"

type redisDedup struct {
	client *goredis.Client
}

// NewRedisDedupStore creates a Redis-backed deduplication store using SETNX.
func NewRedisDedupStore(client *goredis.Client) repository.DedupStore {
	return &redisDedup{client: client}
}

// AcquireLock uses SETNX to atomically claim a delivery. The TTL bounds how
// long a redelivery window is remembered.
func (r *redisDedup) AcquireLock(ctx context.Context, messageID string, ttl time.Duration) (bool, error) {
	key := lockKeyPrefix + messageID
	ok, err := r.client.SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire dedup lock: %w", err)
	}
	return ok, nil
}
