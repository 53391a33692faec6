// Package feature derives a fixed-size lexical feature vector from a URL.
// Extraction is pure and lookup-free: no DNS, no HTTP, no filesystem.
package feature

import (
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/rbelous/phishscope/internal/model"
)

var (
	ipv4Pattern  = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	tokenPattern = regexp.MustCompile(`[/\-_.?&=]`)
)

// Extractor computes the canonical 16-feature vector for a URL.
type Extractor struct{}

// NewExtractor creates a feature extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes the feature vector for a URL record. It never fails:
// malformed or unparsable URLs keep sentinel zeros for the features that
// depend on URL structure, while string-level features are still computed
// from the raw input. Identical input always yields an identical vector.
func (e *Extractor) Extract(rec model.URLRecord) model.FeatureVector {
	v := model.NewFeatureVector()
	raw := rec.Raw

	v.Set(model.FeatureURLLength, float64(len(raw)))
	v.Set(model.FeatureDotCount, float64(strings.Count(raw, ".")))
	v.Set(model.FeatureURLEntropy, shannonEntropy(raw))
	v.Set(model.FeatureTokenCount, float64(countTokens(raw)))

	if ipv4Pattern.MatchString(raw) {
		v.Set(model.FeatureHasIPAddress, 1)
	}
	if hasSuspiciousExtension(raw) {
		v.Set(model.FeatureSuspiciousExtension, 1)
	}

	digits := countDigits(raw)
	v.Set(model.FeatureNumberOfDigits, float64(digits))
	if len(raw) > 0 {
		v.Set(model.FeaturePctNumericChars, float64(digits)/float64(len(raw))*100)
	}

	if rec.Scheme == "https" {
		v.Set(model.FeatureHTTPSFlag, 1)
	}
	v.Set(model.FeaturePathLength, float64(len(rec.Path)))
	if rec.Query != "" {
		if params, err := url.ParseQuery(rec.Query); err == nil {
			v.Set(model.FeatureQueryParamCount, float64(len(params)))
		}
	}

	subdomain, domain, tld := splitHost(rec.Host)
	v.Set(model.FeatureDomainNameLength, float64(len(domain)))
	if strings.Contains(domain, "-") {
		v.Set(model.FeatureHasHyphenInDomain, 1)
	}

	// Dots inside multi-part suffixes don't count toward TLD length.
	v.Set(model.FeatureTLDLength, float64(len(strings.ReplaceAll(tld, ".", ""))))

	tldBase := tld
	if idx := strings.LastIndex(tld, "."); idx >= 0 {
		tldBase = tld[idx+1:]
	}
	if popularTLDs[tldBase] {
		v.Set(model.FeatureTLDPopularity, 1)
	}

	if subdomain != "" {
		v.Set(model.FeatureSubdomainCount, float64(len(strings.Split(subdomain, "."))))
	}

	return v
}

// shannonEntropy measures character-level randomness of the string.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	entropy := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// countTokens splits the URL on common delimiters and counts the non-empty
// pieces.
func countTokens(s string) int {
	n := 0
	for _, t := range tokenPattern.Split(s, -1) {
		if t != "" {
			n++
		}
	}
	return n
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func hasSuspiciousExtension(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range suspiciousExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
