// Package session provides server-side session storage for Fiber.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const operationTimeout = 3 * time.Second

// RedisStorage implements fiber.Storage on top of go-redis.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage stores sessions under keys prefixed with prefix.
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) key(id string) string {
	return s.prefix + id
}

// Get returns nil without error for unknown keys, as fiber.Storage requires.
func (s *RedisStorage) Get(id string) ([]byte, error) {
	if id == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *RedisStorage) Set(id string, value []byte, exp time.Duration) error {
	if id == "" || len(value) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	return s.client.Set(ctx, s.key(id), value, exp).Err()
}

func (s *RedisStorage) Delete(id string) error {
	if id == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	return s.client.Del(ctx, s.key(id)).Err()
}

// Reset removes every session under the prefix.
func (s *RedisStorage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Close is a no-op; the Redis client is owned by the caller.
func (s *RedisStorage) Close() error {
	return nil
}
