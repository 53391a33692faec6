package cache

import (
	"time"

	"github.com/rbelous/phishscope/internal/model"
)

// LayeredCache checks memory before disk and promotes disk hits into memory.
type LayeredCache struct {
	memory Cache
	disk   Cache

	// promoteTTL bounds how long a promoted entry lives in memory; the disk
	// entry keeps its own expiry.
	promoteTTL time.Duration
}

// NewLayeredCache builds a memory+disk cache.
func NewLayeredCache(maxEntries int, diskDir string, promoteTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory:     NewMemoryCache(maxEntries),
		disk:       NewDiskCache(diskDir),
		promoteTTL: promoteTTL,
	}
}

// Get checks memory first, then disk.
func (c *LayeredCache) Get(key string) (model.ReasoningVerdict, bool) {
	if v, found := c.memory.Get(key); found {
		return v, true
	}
	if v, found := c.disk.Get(key); found {
		c.memory.Put(key, v, c.promoteTTL)
		return v, true
	}
	return model.ReasoningVerdict{}, false
}

// Put writes to both layers.
func (c *LayeredCache) Put(key string, verdict model.ReasoningVerdict, ttl time.Duration) {
	c.memory.Put(key, verdict, ttl)
	c.disk.Put(key, verdict, ttl)
}
