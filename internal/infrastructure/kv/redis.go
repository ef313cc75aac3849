package kv

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores values as plain strings and log streams as lists.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend connects to addr and verifies the connection.
func NewRedisBackend(ctx context.Context, addr string) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisBackend{client: client, prefix: "storefront:"}, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	return b.client.Set(ctx, b.prefix+key, value, 0).Err()
}

func (b *RedisBackend) Remove(ctx context.Context, key string) error {
	return b.client.Del(ctx, b.prefix+key).Err()
}

func (b *RedisBackend) Append(ctx context.Context, stream string, value []byte) error {
	return b.client.RPush(ctx, b.prefix+"log:"+stream, value).Err()
}

func (b *RedisBackend) Range(ctx context.Context, stream string) ([][]byte, error) {
	vals, err := b.client.LRange(ctx, b.prefix+"log:"+stream, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
