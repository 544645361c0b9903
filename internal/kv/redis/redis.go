// Package redis provides the Redis key-value backend, the default
// stand-in for the hosted KV namespace the service was designed around.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KV implements news.KV on top of a Redis client.
type KV struct {
	client *redis.Client
}

// New connects to Redis at addr and verifies the connection.
func New(ctx context.Context, addr string) (*KV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &KV{client: client}, nil
}

// Get returns the stored value and whether the key exists.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := k.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return val, true, nil
}

// Put stores a value under key with no expiry; archive retention is
// enforced by the store adapter, not by TTLs.
func (k *KV) Put(ctx context.Context, key, value string) error {
	if err := k.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting an absent key is not an error.
func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying client.
func (k *KV) Close() error {
	if err := k.client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}
