package model

import "time"

// Label is the classification outcome for a URL.
type Label string

const (
	LabelBenign    Label = "benign"
	LabelPhishing  Label = "phishing"
	LabelUncertain Label = "uncertain"
)

// Contribution is a signed per-feature weight explaining a classifier score.
type Contribution struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"` // Positive pushes toward phishing
}

// ClassifierScore is the classical model's output for one URL: a phishing
// probability plus per-feature contributions sorted by |weight| descending.
type ClassifierScore struct {
	Probability   float64        `json:"probability"` // P(phishing), in [0,1]
	Contributions []Contribution `json:"contributions,omitempty"`
}

// Label thresholds the probability at tau.
func (s ClassifierScore) Label(tau float64) Label {
	if s.Probability > tau {
		return LabelPhishing
	}
	return LabelBenign
}

// Confidence is how strongly the classifier backs its own thresholded label:
// the probability mass on the predicted side.
func (s ClassifierScore) Confidence(tau float64) float64 {
	if s.Probability > tau {
		return s.Probability
	}
	return 1 - s.Probability
}

// TopContributions returns up to n strongest contributions.
func (s ClassifierScore) TopContributions(n int) []Contribution {
	if n > len(s.Contributions) {
		n = len(s.Contributions)
	}
	return s.Contributions[:n]
}

// VerdictStatus tags whether the reasoning backend produced a usable verdict.
type VerdictStatus string

const (
	StatusAvailable   VerdictStatus = "available"
	StatusUnavailable VerdictStatus = "unavailable"
)

// ReasoningVerdict is the semantic verdict from the LLM backend. Absence of
// a verdict is an explicit StatusUnavailable value, never a nil confidence.
type ReasoningVerdict struct {
	Status     VerdictStatus `json:"status"`
	Label      Label         `json:"label,omitempty"`
	Confidence float64       `json:"confidence"` // In [0,1]; meaningless when unavailable
	Rationale  string        `json:"rationale,omitempty"`
	Anomalies  []string      `json:"anomalies,omitempty"` // Cited URL anomalies
	Provider   string        `json:"provider,omitempty"`
	Model      string        `json:"model,omitempty"`
	FromCache  bool          `json:"from_cache,omitempty"`
	FailReason string        `json:"fail_reason,omitempty"` // Why unavailable (timeout, malformed, quota)
}

// Unavailable returns the explicit absent-verdict value.
func Unavailable(reason string) ReasoningVerdict {
	return ReasoningVerdict{Status: StatusUnavailable, FailReason: reason}
}

// Available reports whether the verdict carries a usable signal.
func (v ReasoningVerdict) Available() bool {
	return v.Status == StatusAvailable
}

// Policy records how the two signals were combined into the final verdict.
type Policy string

const (
	PolicyClassifierOnly       Policy = "classifier_only"
	PolicyLLMOnly              Policy = "llm_only"
	PolicyAgreement            Policy = "agreement"
	PolicyDisagreementResolved Policy = "disagreement_resolved"
)

// VerdictResult is the final fused decision, carrying both sub-results so
// downstream consumers can audit how it was derived.
type VerdictResult struct {
	URL         URLRecord        `json:"url"`
	Label       Label            `json:"label"`
	Confidence  float64          `json:"confidence"`
	Policy      Policy           `json:"policy"`
	Classifier  *ClassifierScore `json:"classifier,omitempty"` // Nil only on the llm_only path
	Reasoning   ReasoningVerdict `json:"reasoning"`
	Features    FeatureVector    `json:"features,omitempty"`
	EvaluatedAt time.Time        `json:"evaluated_at"`
}

// Explanation is the presentation-independent rendering of a VerdictResult.
type Explanation struct {
	URL         string             `json:"url"`
	Label       Label              `json:"label"`
	Confidence  float64            `json:"confidence"`
	Policy      Policy             `json:"policy"`
	TopFeatures []Contribution     `json:"top_features,omitempty"`
	Probability float64            `json:"classifier_probability"`
	Rationale   string             `json:"rationale,omitempty"`
	Anomalies   []string           `json:"anomalies,omitempty"`
	SignalsUsed []string           `json:"signals_used"`
	FeatureView map[string]float64 `json:"features,omitempty"`
	GeneratedAt time.Time          `json:"generated_at"`
}
