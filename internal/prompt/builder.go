// Package prompt renders the reasoning-service prompt. Rendering is byte
// deterministic for identical inputs: the verdict cache is keyed by a hash
// of the rendered text.
package prompt

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rbelous/phishscope/internal/model"
)

const (
	// DefaultMaxURLLen bounds how much of the raw URL enters the prompt.
	DefaultMaxURLLen = 256
	// DefaultTopFeatures is how many classifier contributions are surfaced.
	DefaultTopFeatures = 5
	// maxContextRunes bounds the optional page-context block.
	maxContextRunes = 4000
)

// Builder renders prompts for the reasoning backend.
type Builder struct {
	maxURLLen   int
	topFeatures int
}

// NewBuilder creates a builder with the default bounds.
func NewBuilder() *Builder {
	return &Builder{
		maxURLLen:   DefaultMaxURLLen,
		topFeatures: DefaultTopFeatures,
	}
}

// Build renders the analysis prompt from the URL, its features, and the
// classifier score. Identical inputs produce byte-identical output.
// pageContext and searchContext may be empty; when present they are included
// as additional evidence for the reasoner.
func (b *Builder) Build(rec model.URLRecord, features model.FeatureVector, score model.ClassifierScore, pageContext, searchContext string) string {
	var sb strings.Builder

	sb.WriteString("You are a cybersecurity assistant analyzing phishing risk from a URL.\n\n")
	sb.WriteString("Input:\n")
	fmt.Fprintf(&sb, "- URL: %s\n", sanitizeURL(rec.Raw, b.maxURLLen))
	fmt.Fprintf(&sb, "- Classifier phishing probability: %.2f (lexical URL model; weak hint only, it can false-positive on modern HTTPS phishing sites)\n", score.Probability)

	top := score.TopContributions(b.topFeatures)
	if len(top) > 0 {
		sb.WriteString("- Top classifier signals (positive pushes toward phishing):\n")
		for i, c := range top {
			fmt.Fprintf(&sb, "  %d. %s: %+.3f (value %.2f)\n", i+1, c.Feature, c.Weight, features.Get(c.Feature))
		}
	}

	if pageContext != "" {
		sb.WriteString("\nPage context (visible text retrieved from the URL, may be partial):\n")
		sb.WriteString(truncateRunes(pageContext, maxContextRunes))
		sb.WriteString("\n")
	}

	if searchContext != "" {
		sb.WriteString("\nSearch reputation context (web search snippets about the domain, may be noisy):\n")
		sb.WriteString(truncateRunes(searchContext, maxContextRunes))
		sb.WriteString("\n")
	}

	sb.WriteString(`
Your task:
1. Analyze the URL for phishing indicators (domain mimicry, homograph or digit-for-letter substitution, unusual TLDs, IP hosts, excessive subdomains, deceptive words).
2. Decide a label: "phishing", "benign", or "uncertain" if the evidence is genuinely ambiguous.
3. Self-assess your confidence from 0.0 to 1.0.
4. Cite the specific URL anomalies that drove your decision.

Respond ONLY with a valid JSON object with exactly these keys:
{"label": "phishing"|"benign"|"uncertain", "confidence": <float 0.0-1.0>, "rationale": "<under 50 words>", "anomalies": ["<anomaly>", ...]}
`)

	return sb.String()
}

// BuildCorrective renders the one-shot re-prompt used after a response fails
// schema validation.
func (b *Builder) BuildCorrective(original string) string {
	var sb strings.Builder
	sb.WriteString("Your previous reply could not be parsed as the required JSON object.\n")
	sb.WriteString("Answer the task below again. Output ONLY the JSON object: no prose, no code fences, no commentary.\n\n")
	sb.WriteString(original)
	return sb.String()
}

// sanitizeURL strips control characters and bounds length so a hostile URL
// cannot grow or reshape the prompt.
func sanitizeURL(raw string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)
	return truncateRunes(cleaned, maxLen)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…[truncated]"
}
