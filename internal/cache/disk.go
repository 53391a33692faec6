package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rbelous/phishscope/internal/model"
)

// DiskCache persists verdicts across runs as one JSON file per key.
// Best-effort: I/O errors degrade to misses, never to request failures.
type DiskCache struct {
	dir string
}

type diskEntry struct {
	Verdict   model.ReasoningVerdict `json:"verdict"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt time.Time              `json:"expires_at"`
}

// NewDiskCache creates a disk cache rooted at dir.
func NewDiskCache(dir string) *DiskCache {
	return &DiskCache{dir: dir}
}

// Get reads a verdict from disk. Expired entries are removed and reported
// as misses.
func (c *DiskCache) Get(key string) (model.ReasoningVerdict, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return model.ReasoningVerdict{}, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = os.Remove(c.path(key))
		return model.ReasoningVerdict{}, false
	}

	if !time.Now().Before(entry.ExpiresAt) {
		_ = os.Remove(c.path(key))
		return model.ReasoningVerdict{}, false
	}

	v := entry.Verdict
	v.FromCache = true
	return v, true
}

// Put writes a verdict to disk.
func (c *DiskCache) Put(key string, verdict model.ReasoningVerdict, ttl time.Duration) {
	now := time.Now()
	entry := diskEntry{
		Verdict:   verdict,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return
	}
	_ = os.WriteFile(c.path(key), data, 0644)
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
