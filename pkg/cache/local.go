package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type localItem struct {
	value     string
	expiresAt time.Time
}

// LocalCache is an in-process LRU with per-key expiry. It stands in for Redis
// on single-instance deployments.
type LocalCache struct {
	items *lru.Cache[string, localItem]
	now   func() time.Time
}

func NewLocalCache(size int) (*LocalCache, error) {
	items, err := lru.New[string, localItem](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create local cache: %w", err)
	}
	return &LocalCache{items: items, now: time.Now}, nil
}

func (c *LocalCache) Get(_ context.Context, key string) (string, error) {
	item, ok := c.items.Get(key)
	if !ok {
		return "", ErrMiss
	}
	if !item.expiresAt.IsZero() && c.now().After(item.expiresAt) {
		c.items.Remove(key)
		return "", ErrMiss
	}
	return item.value, nil
}

// Set stores value formatted the way Redis would return it. A zero
// expiration keeps the key until it is evicted.
func (c *LocalCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	item := localItem{value: fmt.Sprint(value)}
	if expiration > 0 {
		item.expiresAt = c.now().Add(expiration)
	}
	c.items.Add(key, item)
	return nil
}

func (c *LocalCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.items.Remove(key)
	}
	return nil
}

func (c *LocalCache) Len() int {
	return c.items.Len()
}
