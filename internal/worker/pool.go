// Package worker runs batch URL evaluations over a bounded worker pool.
package worker

import (
	"context"
	"sync"

	"github.com/rbelous/phishscope/internal/model"
)

// Evaluator is the decision boundary the pool drives; the fusion engine
// satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, rawURL string) (*model.VerdictResult, error)
}

// Outcome is one batch entry's result.
type Outcome struct {
	URL    string
	Result *model.VerdictResult
	Err    error
}

// Pool evaluates URLs concurrently with a fixed number of workers.
type Pool struct {
	evaluator Evaluator
	workers   int
	limiter   *Limiter // Nil = unthrottled
}

// NewPool creates a pool. workers < 1 is clamped to 1.
func NewPool(evaluator Evaluator, workers int, limiter *Limiter) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		evaluator: evaluator,
		workers:   workers,
		limiter:   limiter,
	}
}

// Run evaluates every URL and returns outcomes in input order. A canceled
// context stops dispatching; already-dispatched URLs report the context
// error through their outcome.
func (p *Pool) Run(ctx context.Context, urls []string) []Outcome {
	outcomes := make([]Outcome, len(urls))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = p.evaluate(ctx, urls[i])
			}
		}()
	}

	for i := range urls {
		select {
		case <-ctx.Done():
		case jobs <- i:
			continue
		}
		outcomes[i] = Outcome{URL: urls[i], Err: ctx.Err()}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (p *Pool) evaluate(ctx context.Context, rawURL string) Outcome {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, rawURL); err != nil {
			return Outcome{URL: rawURL, Err: err}
		}
	}
	result, err := p.evaluator.Evaluate(ctx, rawURL)
	return Outcome{URL: rawURL, Result: result, Err: err}
}
