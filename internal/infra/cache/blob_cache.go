// Package cache provides an in-process LRU in front of the blob store for quick save reads.
// The store stays the source of truth; the cache is write-through.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/MRamiBalles/UniverseRPG/server/internal/infra/storage"
)

// DefaultSize is used when a non-positive size is requested.
const DefaultSize = 256

// BlobCache wraps a storage.BlobStore with a bounded LRU of recently used values.
type BlobCache struct {
	store  storage.BlobStore
	lru    *lru.Cache[string, []byte]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewBlobCache creates a write-through cache holding at most size values.
func NewBlobCache(store storage.BlobStore, size int) (*BlobCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob cache: %w", err)
	}
	return &BlobCache{store: store, lru: c}, nil
}

// Get returns a cached value, reading through to the store on a miss.
func (c *BlobCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return append([]byte(nil), v...), nil
	}
	c.misses.Add(1)
	v, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err // Miss in the store too, or a store error
	}
	c.lru.Add(key, append([]byte(nil), v...))
	return v, nil
}

// Put writes to the store first and caches only on success.
func (c *BlobCache) Put(ctx context.Context, key string, value []byte) error {
	if err := c.store.Put(ctx, key, value); err != nil {
		c.lru.Remove(key)
		return err
	}
	c.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Delete removes the key from both layers.
func (c *BlobCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return c.store.Delete(ctx, key)
}

// Keys always asks the store, since the cache holds only a subset.
func (c *BlobCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	return c.store.Keys(ctx, prefix)
}

// Purge drops every cached value.
func (c *BlobCache) Purge() {
	c.lru.Purge()
}

// Stats returns hit and miss counts since creation.
func (c *BlobCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached values.
func (c *BlobCache) Len() int {
	return c.lru.Len()
}
