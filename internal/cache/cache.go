// Package cache stores reasoning verdicts keyed by a hash of the rendered
// prompt, so repeated queries for the same URL never pay for a second LLM
// call while the entry is fresh.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/rbelous/phishscope/internal/model"
)

// Cache is the verdict store. Implementations must be safe for concurrent
// use; an expired entry behaves exactly like a miss on read and is replaced
// by the next successful write rather than swept proactively.
type Cache interface {
	Get(key string) (model.ReasoningVerdict, bool)
	Put(key string, verdict model.ReasoningVerdict, ttl time.Duration)
}

// Key derives the content-addressed cache key for a rendered prompt.
// The version prefix invalidates all entries when the prompt template or
// verdict schema changes.
func Key(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return "phishscope:v1:" + hex.EncodeToString(hash[:])
}
