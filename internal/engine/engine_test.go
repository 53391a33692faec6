package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbelous/phishscope/internal/classifier"
	"github.com/rbelous/phishscope/internal/feature"
	"github.com/rbelous/phishscope/internal/model"
	"github.com/rbelous/phishscope/internal/prompt"
)

// staticModel returns a fixed classifier score regardless of input.
type staticModel struct {
	score model.ClassifierScore
}

func (m staticModel) Score(model.FeatureVector) model.ClassifierScore { return m.score }

// fakeReasoner implements the reasoner boundary for fusion tests.
type fakeReasoner struct {
	enabled   bool
	verdict   model.ReasoningVerdict
	delay     time.Duration
	calls     int32
	gotPrompt atomic.Value // Last prompt, for tests reading a completed call
}

func (f *fakeReasoner) Enabled() bool { return f.enabled }

func (f *fakeReasoner) Reason(ctx context.Context, promptText string) model.ReasoningVerdict {
	atomic.AddInt32(&f.calls, 1)
	f.gotPrompt.Store(promptText)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return f.verdict
}

// slowFetcher blocks for a fixed time regardless of context, standing in for
// a stuck page fetch.
type slowFetcher struct{ delay time.Duration }

func (f slowFetcher) PageText(ctx context.Context, rawURL string) (string, error) {
	time.Sleep(f.delay)
	return "", errors.New("fetch too slow")
}

// staticSearcher returns fixed reputation snippets.
type staticSearcher struct{ text string }

func (s staticSearcher) DomainContext(ctx context.Context, host string) (string, error) {
	return s.text, nil
}

func newTestEngine(m classifier.Model, r reasoner) *Engine {
	return &Engine{
		extractor: feature.NewExtractor(),
		adapter:   classifier.NewAdapter(m),
		builder:   prompt.NewBuilder(),
		reasoner:  r,
		fusion:    model.DefaultConfig().Fusion,
	}
}

func available(label model.Label, confidence float64, rationale string, anomalies ...string) model.ReasoningVerdict {
	return model.ReasoningVerdict{
		Status:     model.StatusAvailable,
		Label:      label,
		Confidence: confidence,
		Rationale:  rationale,
		Anomalies:  anomalies,
	}
}

func TestEvaluate_EmptyURL(t *testing.T) {
	e := newTestEngine(classifier.DefaultModel(), &fakeReasoner{})
	if _, err := e.Evaluate(context.Background(), "   "); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestEvaluate_DegradedClassifierOnly(t *testing.T) {
	// Reasoner reachable but always unavailable: classifier decides alone.
	e := newTestEngine(classifier.DefaultModel(), &fakeReasoner{
		enabled: true,
		verdict: model.Unavailable("service down"),
	})

	result, err := e.Evaluate(context.Background(), "http://example.com")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Policy != model.PolicyClassifierOnly {
		t.Errorf("policy = %v, want classifier_only", result.Policy)
	}
	if result.Reasoning.Available() {
		t.Error("reasoning should be unavailable")
	}
	if result.Reasoning.Rationale != "" {
		t.Errorf("rationale = %q, want empty", result.Reasoning.Rationale)
	}
	if result.Classifier == nil {
		t.Fatal("classifier sub-result missing")
	}
}

func TestEvaluate_AgreementScenario(t *testing.T) {
	// End-to-end shape: classifier says 0.87 phishing, reasoner agrees at
	// 0.8 citing the homograph substitution. Equal weights average them.
	m := staticModel{score: model.ClassifierScore{
		Probability: 0.87,
		Contributions: []model.Contribution{
			{Feature: model.FeatureHasHyphenInDomain, Weight: 1.1},
			{Feature: model.FeatureNumberOfDigits, Weight: 0.5},
		},
	}}
	e := newTestEngine(m, &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelPhishing, 0.8, "digit-for-letter substitution mimics paypal", "homograph substitution", "suspicious TLD"),
	})

	result, err := e.Evaluate(context.Background(), "http://paypa1-secure-login.ru/verify")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Label != model.LabelPhishing {
		t.Errorf("label = %v", result.Label)
	}
	if result.Policy != model.PolicyAgreement {
		t.Errorf("policy = %v, want agreement", result.Policy)
	}
	if math.Abs(result.Confidence-0.835) > 0.01 {
		t.Errorf("confidence = %.3f, want ≈0.84", result.Confidence)
	}
	if len(result.Reasoning.Anomalies) != 2 {
		t.Errorf("anomalies = %v", result.Reasoning.Anomalies)
	}
}

func TestEvaluate_DisagreementClassifierWins(t *testing.T) {
	m := staticModel{score: model.ClassifierScore{Probability: 0.9}}
	e := newTestEngine(m, &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelBenign, 0.5, "looks like a known brand"),
	})

	result, err := e.Evaluate(context.Background(), "http://phishy.example/login")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Label != model.LabelPhishing {
		t.Errorf("label = %v, want phishing (classifier confidence 0.9 beats 0.5)", result.Label)
	}
	if result.Policy != model.PolicyDisagreementResolved {
		t.Errorf("policy = %v, want disagreement_resolved", result.Policy)
	}
	if result.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", result.Confidence)
	}
}

func TestEvaluate_DisagreementReasonerWins(t *testing.T) {
	m := staticModel{score: model.ClassifierScore{Probability: 0.6}} // Weak phishing call
	e := newTestEngine(m, &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelBenign, 0.95, "official domain of a known registrar"),
	})

	result, err := e.Evaluate(context.Background(), "http://example.org")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Label != model.LabelBenign {
		t.Errorf("label = %v, want benign", result.Label)
	}
	if result.Policy != model.PolicyDisagreementResolved {
		t.Errorf("policy = %v", result.Policy)
	}
}

func TestEvaluate_DisagreementTieIsConservative(t *testing.T) {
	// Classifier benign at 0.6 confidence vs reasoner phishing at 0.58:
	// within epsilon, so the conservative outcome wins.
	m := staticModel{score: model.ClassifierScore{Probability: 0.4}}
	e := newTestEngine(m, &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelPhishing, 0.58, "deceptive path tokens"),
	})

	result, err := e.Evaluate(context.Background(), "http://example.net/account")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Label != model.LabelPhishing {
		t.Errorf("label = %v, want phishing on near-tie", result.Label)
	}
	if result.Policy != model.PolicyDisagreementResolved {
		t.Errorf("policy = %v", result.Policy)
	}
}

func TestEvaluate_UncertainVerdictLeavesClassifierDeciding(t *testing.T) {
	m := staticModel{score: model.ClassifierScore{Probability: 0.2}}
	e := newTestEngine(m, &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelUncertain, 0.3, "not enough signal"),
	})

	result, err := e.Evaluate(context.Background(), "http://example.com")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Label != model.LabelBenign {
		t.Errorf("label = %v, want benign", result.Label)
	}
	if result.Policy != model.PolicyClassifierOnly {
		t.Errorf("policy = %v, want classifier_only", result.Policy)
	}
	// The uncertain verdict is still carried for audit.
	if !result.Reasoning.Available() {
		t.Error("uncertain verdict should remain in the result")
	}
}

func TestEvaluate_LLMOnlyWhenClassifierDead(t *testing.T) {
	e := newTestEngine(nil, &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelPhishing, 0.7, "credential-lure wording"),
	})

	result, err := e.Evaluate(context.Background(), "http://example.com/login")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Policy != model.PolicyLLMOnly {
		t.Errorf("policy = %v, want llm_only", result.Policy)
	}
	if result.Label != model.LabelPhishing || result.Confidence != 0.7 {
		t.Errorf("result = %v/%v", result.Label, result.Confidence)
	}
	if result.Classifier != nil {
		t.Error("classifier sub-result should be absent")
	}
}

func TestEvaluate_NoSignalAvailable(t *testing.T) {
	e := newTestEngine(nil, &fakeReasoner{
		enabled: true,
		verdict: model.Unavailable("service down"),
	})

	// Every call reports the same startup error; no retry storms.
	for i := 0; i < 3; i++ {
		_, err := e.Evaluate(context.Background(), "http://example.com")
		if !errors.Is(err, model.ErrNoSignalAvailable) {
			t.Fatalf("call %d: err = %v, want ErrNoSignalAvailable", i, err)
		}
		if !errors.Is(err, model.ErrModelUnavailable) {
			t.Fatalf("call %d: err = %v, should carry the startup cause", i, err)
		}
	}
}

func TestEvaluate_BudgetAbandonsSlowReasoner(t *testing.T) {
	slow := &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelPhishing, 0.9, "late answer"),
		delay:   500 * time.Millisecond,
	}
	e := newTestEngine(classifier.DefaultModel(), slow)
	e.fusion.Budget = 20 * time.Millisecond

	start := time.Now()
	result, err := e.Evaluate(context.Background(), "http://example.com")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("evaluation blocked for %v despite budget", elapsed)
	}
	if result.Policy != model.PolicyClassifierOnly {
		t.Errorf("policy = %v, want classifier_only after budget", result.Policy)
	}
	if result.Reasoning.Available() {
		t.Error("late verdict should not appear in this result")
	}
}

func TestEvaluate_BudgetCoversContextFetch(t *testing.T) {
	slow := &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelPhishing, 0.9, "late answer"),
		delay:   time.Second,
	}
	e := newTestEngine(classifier.DefaultModel(), slow)
	e.fetcher = slowFetcher{delay: 100 * time.Millisecond}
	e.fusion.Budget = 80 * time.Millisecond

	start := time.Now()
	result, err := e.Evaluate(context.Background(), "http://example.com")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	// The context fetch consumes the shared budget; the reasoner must not
	// get a full budget of its own on top of it.
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("reasoning path took %v, want the fetch and the call under one budget", elapsed)
	}
	if result.Policy != model.PolicyClassifierOnly {
		t.Errorf("policy = %v, want classifier_only after budget", result.Policy)
	}
}

func TestEvaluate_SearchContextReachesPrompt(t *testing.T) {
	r := &fakeReasoner{
		enabled: true,
		verdict: available(model.LabelPhishing, 0.8, "reported as phishing"),
	}
	e := newTestEngine(classifier.DefaultModel(), r)
	e.searcher = staticSearcher{text: "1. Title: example.com scam report\n   URL: https://reports.example.org/x\n"}

	if _, err := e.Evaluate(context.Background(), "http://example.com"); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	got, _ := r.gotPrompt.Load().(string)
	if !strings.Contains(got, "Search reputation context") || !strings.Contains(got, "scam report") {
		t.Errorf("search snippets missing from prompt:\n%s", got)
	}
}

func TestEvaluate_MalformedURLStillDecides(t *testing.T) {
	e := newTestEngine(classifier.DefaultModel(), &fakeReasoner{})

	result, err := e.Evaluate(context.Background(), "%%%not-a-url%%%")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if result.Label == "" || result.Policy != model.PolicyClassifierOnly {
		t.Errorf("result = %+v", result)
	}
	if result.URL.Valid {
		t.Error("record should be marked invalid")
	}
}
