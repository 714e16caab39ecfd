package adapter

import (
	"context"
	"time"

	"medmonics/internal/domain"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCacheAdapter implements domain.Cache in process. It is used when no Redis address is
// configured. Entries share one lifetime; per-call expirations are ignored.
type LRUCacheAdapter struct {
	lru *expirable.LRU[string, string]
}

// NewLRUCacheAdapter creates a cache holding at most size entries for ttl each.
func NewLRUCacheAdapter(size int, ttl time.Duration) domain.Cache {
	if size <= 0 {
		size = 256
	}
	return &LRUCacheAdapter{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *LRUCacheAdapter) Get(_ context.Context, key string) (string, error) {
	val, ok := c.lru.Get(key)
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return val, nil
}

func (c *LRUCacheAdapter) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.lru.Add(key, value)
	return nil
}

func (c *LRUCacheAdapter) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *LRUCacheAdapter) Ping(context.Context) error {
	return nil
}
