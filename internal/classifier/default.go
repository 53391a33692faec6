package classifier

import "github.com/rbelous/phishscope/internal/model"

// stump builds a one-split tree: value <= threshold takes the low leaf.
func stump(feature string, threshold, low, high float64) *Tree {
	return &Tree{Root: &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      &Node{Value: low},
		Right:     &Node{Value: high},
	}}
}

// DefaultModel returns the built-in ensemble used when no model artifact is
// configured. The trees encode the strongest lexical phishing signals from
// the training runs; logits are in log-odds space over a mildly benign prior.
func DefaultModel() *Ensemble {
	return &Ensemble{
		BaseScore: -0.6,
		Trees: []*Tree{
			// Plain HTTP is the single cheapest tell.
			stump(model.FeatureHTTPSFlag, 0.5, 0.9, -0.6),
			// Hyphenated registrable domains correlate with brand mimicry.
			stump(model.FeatureHasHyphenInDomain, 0.5, -0.2, 1.1),
			stump(model.FeatureHasIPAddress, 0.5, 0, 1.6),
			// Long domains are rarely legitimate; short ones mildly benign.
			{Root: &Node{
				Feature:   model.FeatureDomainNameLength,
				Threshold: 15,
				Left: &Node{
					Feature:   model.FeatureDomainNameLength,
					Threshold: 8,
					Left:      &Node{Value: -0.3},
					Right:     &Node{Value: 0.2},
				},
				Right: &Node{Value: 0.8},
			}},
			stump(model.FeatureNumberOfDigits, 0.5, -0.1, 0.5),
			stump(model.FeatureTLDPopularity, 0.5, 0.7, -0.1),
			stump(model.FeatureSuspiciousExtension, 0.5, 0, 1.2),
			stump(model.FeatureURLEntropy, 4.4, 0, 0.4),
			stump(model.FeatureSubdomainCount, 2.5, 0, 0.6),
			stump(model.FeaturePctNumericChars, 10, 0, 0.5),
			stump(model.FeatureURLLength, 60, -0.1, 0.4),
		},
	}
}
