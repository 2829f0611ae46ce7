package storage

import (
	"context"

	"github.com/ShadowCodeSoftware/E-sante/internal/infrastructure/redis"
)

// RedisBackend stores each collection as one Redis string, without TTL
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend adapts a connected Redis client
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Read(ctx context.Context, key string) (string, bool, error) {
	return b.client.Get(ctx, key)
}

func (b *RedisBackend) Write(ctx context.Context, key, value string) error {
	return b.client.Set(ctx, key, value)
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	return b.client.Delete(ctx, key)
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
