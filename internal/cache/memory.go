package cache

import (
	"container/list"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/rbelous/phishscope/internal/model"
)

// MemoryCache is an in-memory verdict cache with lazy TTL expiry and an LRU
// bound on entry count. Expiry is checked on read; expired entries stay in
// place until the next write for that key or until LRU eviction claims them.
type MemoryCache struct {
	store *gocache.Cache

	mu         sync.Mutex
	order      *list.List // Front = most recently used
	index      map[string]*list.Element
	maxEntries int
	clock      func() time.Time
}

type memoryEntry struct {
	verdict   model.ReasoningVerdict
	createdAt time.Time
	expiresAt time.Time
}

// NewMemoryCache creates a memory cache holding at most maxEntries verdicts.
// The backing store runs without a janitor: expired entries are treated as
// misses rather than swept.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryCache{
		store:      gocache.New(gocache.NoExpiration, 0),
		order:      list.New(),
		index:      make(map[string]*list.Element),
		maxEntries: maxEntries,
		clock:      time.Now,
	}
}

// Get returns the cached verdict for key. An entry past its TTL is a miss.
func (c *MemoryCache) Get(key string) (model.ReasoningVerdict, bool) {
	raw, found := c.store.Get(key)
	if !found {
		return model.ReasoningVerdict{}, false
	}
	entry := raw.(memoryEntry)
	if !c.clock().Before(entry.expiresAt) {
		return model.ReasoningVerdict{}, false
	}

	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		c.order.MoveToFront(el)
	}
	c.mu.Unlock()

	v := entry.verdict
	v.FromCache = true
	return v, true
}

// Put stores a verdict with the given TTL, evicting the least recently used
// entry if the cache is full. A non-positive TTL writes an entry that is
// already expired, which reads back as a miss.
func (c *MemoryCache) Put(key string, verdict model.ReasoningVerdict, ttl time.Duration) {
	now := c.clock()

	c.mu.Lock()
	if el, ok := c.index[key]; ok {
		c.order.MoveToFront(el)
	} else {
		if c.order.Len() >= c.maxEntries {
			c.evictOldest()
		}
		c.index[key] = c.order.PushFront(key)
	}
	c.mu.Unlock()

	c.store.Set(key, memoryEntry{
		verdict:   verdict,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}, gocache.NoExpiration)
}

// Len returns the current entry count, expired entries included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// evictOldest removes the LRU entry. Caller holds c.mu.
func (c *MemoryCache) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	key := back.Value.(string)
	c.order.Remove(back)
	delete(c.index, key)
	c.store.Delete(key)
}
