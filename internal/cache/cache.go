package cache

import (
	"context"
	"time"
)

// BytesCache — KV-хранилище с TTL. ttl == 0 означает "без срока".
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RateLimiter — счётчик запросов в окне (используется для квоты ИИ).
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}
