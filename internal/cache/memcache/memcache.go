package memcache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize — сколько ключей держит каждая корзина TTL.
const DefaultSize = 1024

// Cache — BytesCache в памяти процесса, когда Redis не настроен.
// expirable.LRU держит один TTL на весь кэш, поэтому ключи разложены по корзинам с одинаковым ttl.
type Cache struct {
	size int

	mu      sync.Mutex
	buckets map[time.Duration]*expirable.LRU[string, []byte]
}

func New() *Cache {
	return NewWithSize(DefaultSize)
}

func NewWithSize(size int) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	return &Cache{
		size:    size,
		buckets: make(map[time.Duration]*expirable.LRU[string, []byte]),
	}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.buckets {
		if v, ok := b.Get(key); ok {
			return append([]byte(nil), v...), true, nil
		}
	}
	return nil, false, nil
}

// Set с ttl <= 0 хранит значение без срока.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for d, b := range c.buckets {
		if d != ttl {
			b.Remove(key)
		}
	}
	b, ok := c.buckets[ttl]
	if !ok {
		b = expirable.NewLRU[string, []byte](c.size, nil, ttl)
		c.buckets[ttl] = b
	}
	b.Add(key, append([]byte(nil), value...))
	return nil
}
