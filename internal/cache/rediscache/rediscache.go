package rediscache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix добавляется ко всем ключам, чтобы делить Redis с другими сервисами.
const KeyPrefix = "gearcheck:"

type RedisCache struct {
	c *redis.Client
}

func New(addr string) *RedisCache {
	return NewFromClient(redis.NewClient(&redis.Options{
		Addr: addr,
	}))
}

func NewFromClient(c *redis.Client) *RedisCache {
	return &RedisCache{c: c}
}

// Client отдаёт общий клиент, чтобы лимитер не открывал второй пул.
func (r *RedisCache) Client() *redis.Client {
	return r.c
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.c.Get(ctx, KeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.c.Set(ctx, KeyPrefix+key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.c.Ping(ctx).Err(); err != nil {
		return errors.Wrap(err, "redis ping")
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.c.Close()
}
