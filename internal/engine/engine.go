// Package engine fuses the classifier baseline and the LLM semantic verdict
// into one deterministic, auditable decision per URL.
package engine

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rbelous/phishscope/internal/cache"
	"github.com/rbelous/phishscope/internal/classifier"
	"github.com/rbelous/phishscope/internal/feature"
	"github.com/rbelous/phishscope/internal/fetch"
	"github.com/rbelous/phishscope/internal/llm"
	"github.com/rbelous/phishscope/internal/model"
	"github.com/rbelous/phishscope/internal/prompt"
)

// reasoner is the reasoning-path boundary the engine depends on.
type reasoner interface {
	Enabled() bool
	Reason(ctx context.Context, promptText string) model.ReasoningVerdict
}

// contextFetcher retrieves optional page text for the prompt.
type contextFetcher interface {
	PageText(ctx context.Context, rawURL string) (string, error)
}

// domainSearcher retrieves optional reputation snippets about the host.
type domainSearcher interface {
	DomainContext(ctx context.Context, host string) (string, error)
}

// Engine orchestrates one evaluation: extract features, score the
// classifier, attempt the reasoning path under a time budget, fuse.
type Engine struct {
	extractor *feature.Extractor
	adapter   *classifier.Adapter
	builder   *prompt.Builder
	reasoner  reasoner
	fetcher   contextFetcher // Nil = no page context
	searcher  domainSearcher // Nil = no search context
	fusion    model.FusionConfig
	verbose   bool
}

// New wires an engine from configuration. A model artifact that fails to
// load is a startup error: the process should exit rather than serve with a
// degraded baseline.
func New(cfg *model.Config) (*Engine, error) {
	var mdl classifier.Model
	if cfg.Classifier.ModelPath != "" {
		loaded, err := classifier.Load(cfg.Classifier.ModelPath)
		if err != nil {
			return nil, err
		}
		mdl = loaded
	} else {
		mdl = classifier.DefaultModel()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("configure LLM provider: %w", err)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		if cfg.Cache.DiskDir != "" {
			store = cache.NewLayeredCache(cfg.Cache.MaxEntries, cfg.Cache.DiskDir, cfg.Cache.TTL)
		} else {
			store = cache.NewMemoryCache(cfg.Cache.MaxEntries)
		}
	}

	var fetcher contextFetcher
	if cfg.Fetch.Enabled {
		fetcher = fetch.NewFetcher(cfg.Fetch)
	}
	var searcher domainSearcher
	if cfg.Fetch.SearchEnabled {
		searcher = fetch.NewSearcher(cfg.Fetch)
	}

	return &Engine{
		extractor: feature.NewExtractor(),
		adapter:   classifier.NewAdapter(mdl),
		builder:   prompt.NewBuilder(),
		reasoner:  llm.NewReasoner(provider, store, cfg.Cache.TTL, llm.ConfigFromModel(cfg.LLM)),
		fetcher:   fetcher,
		searcher:  searcher,
		fusion:    cfg.Fusion,
		verbose:   cfg.Output.Verbose,
	}, nil
}

// Evaluate classifies a single URL. It returns a VerdictResult unless the
// input is empty or neither signal could be produced.
func (e *Engine) Evaluate(ctx context.Context, rawURL string) (*model.VerdictResult, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("%w: empty URL", model.ErrInvalidInput)
	}

	rec := model.ParseURL(rawURL)
	features := e.extractor.Extract(rec)

	score, scoreErr := e.adapter.Score(features)
	if scoreErr != nil && e.verbose {
		fmt.Fprintf(os.Stderr, "Warning: classifier baseline unavailable: %v\n", scoreErr)
	}

	verdict := e.reason(ctx, rec, features, score)

	return e.fuse(rec, features, score, scoreErr, verdict)
}

// reason runs the reasoning path under the fusion time budget. The upstream
// call continues on a detached context after the budget elapses, so a late
// verdict still lands in the cache for future requests.
func (e *Engine) reason(ctx context.Context, rec model.URLRecord, features model.FeatureVector, score model.ClassifierScore) model.ReasoningVerdict {
	if e.reasoner == nil || !e.reasoner.Enabled() {
		return model.Unavailable("reasoning disabled")
	}

	budget := e.fusion.Budget
	if budget <= 0 {
		budget = 20 * time.Second
	}

	// The timer starts before context gathering so the whole reasoning
	// path, context fetches included, stays inside one budget.
	timer := time.NewTimer(budget)
	defer timer.Stop()

	pageContext, searchContext := e.gatherContext(ctx, rec, budget)
	promptText := e.builder.Build(rec, features, score, pageContext, searchContext)

	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), budget+time.Minute)
	results := make(chan model.ReasoningVerdict, 1)
	go func() {
		defer cancel()
		results <- e.reasoner.Reason(detached, promptText)
	}()

	select {
	case v := <-results:
		return v
	case <-timer.C:
		return model.Unavailable("reasoning budget exceeded")
	case <-ctx.Done():
		return model.Unavailable(fmt.Sprintf("request canceled: %v", ctx.Err()))
	}
}

// gatherContext fetches bounded page text and domain reputation snippets,
// together spending at most half the reasoning budget. Both are best-effort:
// failures degrade to an empty context.
func (e *Engine) gatherContext(ctx context.Context, rec model.URLRecord, budget time.Duration) (string, string) {
	if (e.fetcher == nil && e.searcher == nil) || !rec.Valid {
		return "", ""
	}

	fetchCtx, cancel := context.WithTimeout(ctx, budget/2)
	defer cancel()

	var pageText, searchText string
	if e.fetcher != nil {
		text, err := e.fetcher.PageText(fetchCtx, rec.Raw)
		if err != nil {
			if e.verbose {
				fmt.Fprintf(os.Stderr, "Warning: page context unavailable: %v\n", err)
			}
		} else {
			pageText = text
		}
	}
	if e.searcher != nil {
		text, err := e.searcher.DomainContext(fetchCtx, rec.Host)
		if err != nil {
			if e.verbose {
				fmt.Fprintf(os.Stderr, "Warning: search context unavailable: %v\n", err)
			}
		} else {
			searchText = text
		}
	}
	return pageText, searchText
}

// fuse applies the deterministic combination policy.
func (e *Engine) fuse(rec model.URLRecord, features model.FeatureVector, score model.ClassifierScore, scoreErr error, verdict model.ReasoningVerdict) (*model.VerdictResult, error) {
	result := &model.VerdictResult{
		URL:         rec,
		Reasoning:   verdict,
		Features:    features,
		EvaluatedAt: time.Now().UTC(),
	}

	if scoreErr != nil {
		if !verdict.Available() {
			return nil, fmt.Errorf("%w: classifier: %w; reasoning: %s",
				model.ErrNoSignalAvailable, scoreErr, verdict.FailReason)
		}
		result.Label = verdict.Label
		result.Confidence = verdict.Confidence
		result.Policy = model.PolicyLLMOnly
		return result, nil
	}

	result.Classifier = &score
	tau := e.fusion.Threshold
	if tau <= 0 {
		tau = 0.5
	}
	clsLabel := score.Label(tau)

	// An unavailable or uncertain verdict leaves the classifier deciding
	// alone; an uncertain one is still carried in the result for audit.
	if !verdict.Available() || verdict.Label == model.LabelUncertain {
		result.Label = clsLabel
		result.Confidence = thresholdDistance(score.Probability, tau)
		result.Policy = model.PolicyClassifierOnly
		return result, nil
	}

	clsConf := score.Confidence(tau)
	if verdict.Label == clsLabel {
		wc, wr := e.weights()
		result.Label = clsLabel
		result.Confidence = (wc*clsConf + wr*verdict.Confidence) / (wc + wr)
		result.Policy = model.PolicyAgreement
		return result, nil
	}

	// Disagreement: the more confident signal wins; near-ties resolve to
	// phishing to keep false negatives down.
	result.Policy = model.PolicyDisagreementResolved
	epsilon := e.fusion.Epsilon
	if epsilon <= 0 {
		epsilon = 0.05
	}

	switch {
	case math.Abs(clsConf-verdict.Confidence) <= epsilon:
		result.Label = model.LabelPhishing
		if clsLabel == model.LabelPhishing {
			result.Confidence = clsConf
		} else {
			result.Confidence = verdict.Confidence
		}
	case clsConf > verdict.Confidence:
		result.Label = clsLabel
		result.Confidence = clsConf
	default:
		result.Label = verdict.Label
		result.Confidence = verdict.Confidence
	}
	return result, nil
}

func (e *Engine) weights() (float64, float64) {
	wc, wr := e.fusion.ClassifierWeight, e.fusion.ReasonerWeight
	if wc <= 0 && wr <= 0 {
		return 0.5, 0.5
	}
	if wc <= 0 {
		wc = 0
	}
	if wr <= 0 {
		wr = 0
	}
	return wc, wr
}

// thresholdDistance normalizes a probability to how far it sits from the
// decision threshold, scaled to [0,1].
func thresholdDistance(p, tau float64) float64 {
	var d float64
	if p > tau {
		d = (p - tau) / (1 - tau)
	} else {
		d = (tau - p) / tau
	}
	if d > 1 {
		d = 1
	}
	return d
}
