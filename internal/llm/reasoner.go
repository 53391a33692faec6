package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rbelous/phishscope/internal/cache"
	"github.com/rbelous/phishscope/internal/model"
	"github.com/rbelous/phishscope/internal/prompt"
)

// Reasoner wraps a provider with the full reasoning contract: verdict cache,
// single-flight de-duplication per prompt, rate limiting, bounded retries
// with exponential backoff, schema validation, and one corrective re-prompt
// for malformed responses. Reason never returns an error for expected
// failures; it returns an unavailable verdict instead.
type Reasoner struct {
	provider   Provider
	store      cache.Cache // May be nil (caching disabled)
	ttl        time.Duration
	limiter    *rate.Limiter
	group      singleflight.Group
	maxRetries int
	corrective func(string) string

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReasoner builds a reasoner over the given provider and verdict cache.
// A nil store disables caching; single-flight still applies.
func NewReasoner(provider Provider, store cache.Cache, cacheTTL time.Duration, cfg Config) *Reasoner {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), burst)
	}

	return &Reasoner{
		provider:   provider,
		store:      store,
		ttl:        cacheTTL,
		limiter:    limiter,
		maxRetries: maxRetries,
		corrective: prompt.NewBuilder().BuildCorrective,
		sleep:      sleepCtx,
	}
}

// Enabled reports whether a provider is configured.
func (r *Reasoner) Enabled() bool {
	return r != nil && r.provider != nil
}

// Reason produces a semantic verdict for the rendered prompt. Concurrent
// calls with an identical prompt share one upstream request. An empty prompt
// is a programming error and panics; every expected failure mode comes back
// as an unavailable verdict with a fail reason.
func (r *Reasoner) Reason(ctx context.Context, promptText string) model.ReasoningVerdict {
	if promptText == "" {
		panic("llm: Reason called with empty prompt")
	}
	if !r.Enabled() {
		return model.Unavailable("no provider configured")
	}

	key := cache.Key(promptText)
	if r.store != nil {
		if v, found := r.store.Get(key); found {
			return v
		}
	}

	result, _, _ := r.group.Do(key, func() (interface{}, error) {
		// A single-flight follower may arrive after the leader already
		// populated the cache; re-check before going upstream.
		if r.store != nil {
			if v, found := r.store.Get(key); found {
				return v, nil
			}
		}

		verdict := r.callOnce(ctx, promptText)
		if verdict.Available() && r.store != nil {
			r.store.Put(key, verdict, r.ttl)
		}
		return verdict, nil
	})

	return result.(model.ReasoningVerdict)
}

// callOnce runs the retry state machine for one prompt:
// Pending → Retrying(n) → Succeeded | Unavailable.
func (r *Reasoner) callOnce(ctx context.Context, promptText string) model.ReasoningVerdict {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			if err := r.sleep(ctx, backoff); err != nil {
				return model.Unavailable(fmt.Sprintf("canceled during backoff: %v", err))
			}
		}

		resp, err := r.classify(ctx, promptText)
		if err != nil {
			lastErr = err
			continue
		}

		verdict, parseErr := parseVerdict(resp.Text)
		if parseErr != nil {
			// Malformed response: one corrective re-prompt, then give up.
			// Not counted against transport retries.
			verdict, parseErr = r.retryCorrective(ctx, promptText)
			if parseErr != nil {
				return model.Unavailable(fmt.Sprintf("malformed response: %v", parseErr))
			}
		}

		verdict.Provider = r.provider.Name()
		if verdict.Model == "" {
			verdict.Model = resp.Model
		}
		return verdict
	}

	return model.Unavailable(fmt.Sprintf("transport failure after %d attempts: %v", r.maxRetries+1, lastErr))
}

// retryCorrective re-prompts once with the JSON-only instruction prepended.
func (r *Reasoner) retryCorrective(ctx context.Context, promptText string) (model.ReasoningVerdict, error) {
	resp, err := r.classify(ctx, r.corrective(promptText))
	if err != nil {
		return model.ReasoningVerdict{}, fmt.Errorf("corrective call: %w", err)
	}
	verdict, parseErr := parseVerdict(resp.Text)
	if parseErr != nil {
		return model.ReasoningVerdict{}, parseErr
	}
	verdict.Model = resp.Model
	return verdict, nil
}

func (r *Reasoner) classify(ctx context.Context, promptText string) (*ClassifyResponse, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	return r.provider.Classify(ctx, ClassifyRequest{Prompt: promptText})
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
