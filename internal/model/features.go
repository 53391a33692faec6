package model

// Feature names in training order. The classifier depends on positional
// stability: every FeatureVector carries exactly these features, in exactly
// this order.
const (
	FeatureURLLength           = "url_length"
	FeatureHasIPAddress        = "has_ip_address"
	FeatureDotCount            = "dot_count"
	FeatureHTTPSFlag           = "https_flag"
	FeatureURLEntropy          = "url_entropy"
	FeatureTokenCount          = "token_count"
	FeatureSubdomainCount      = "subdomain_count"
	FeatureQueryParamCount     = "query_param_count"
	FeatureTLDLength           = "tld_length"
	FeaturePathLength          = "path_length"
	FeatureHasHyphenInDomain   = "has_hyphen_in_domain"
	FeatureNumberOfDigits      = "number_of_digits"
	FeatureTLDPopularity       = "tld_popularity"
	FeatureSuspiciousExtension = "suspicious_file_extension"
	FeatureDomainNameLength    = "domain_name_length"
	FeaturePctNumericChars     = "percentage_numeric_chars"
)

// FeatureNames is the canonical feature ordering.
var FeatureNames = []string{
	FeatureURLLength,
	FeatureHasIPAddress,
	FeatureDotCount,
	FeatureHTTPSFlag,
	FeatureURLEntropy,
	FeatureTokenCount,
	FeatureSubdomainCount,
	FeatureQueryParamCount,
	FeatureTLDLength,
	FeaturePathLength,
	FeatureHasHyphenInDomain,
	FeatureNumberOfDigits,
	FeatureTLDPopularity,
	FeatureSuspiciousExtension,
	FeatureDomainNameLength,
	FeaturePctNumericChars,
}

// FeatureCount is the fixed vector length.
var FeatureCount = len(FeatureNames)

// featureIndex maps a feature name to its position in the vector.
var featureIndex = func() map[string]int {
	idx := make(map[string]int, len(FeatureNames))
	for i, name := range FeatureNames {
		idx[name] = i
	}
	return idx
}()

// FeatureIndex returns the vector position of a named feature, or -1.
func FeatureIndex(name string) int {
	if i, ok := featureIndex[name]; ok {
		return i
	}
	return -1
}

// FeatureVector is a fixed-size ordered vector of numeric URL features.
// Index i holds the value of FeatureNames[i].
type FeatureVector []float64

// NewFeatureVector returns a zeroed vector of the canonical length.
// Zero is the sentinel value for features that cannot be computed.
func NewFeatureVector() FeatureVector {
	return make(FeatureVector, FeatureCount)
}

// Get returns the value of a named feature (0 for unknown names).
func (v FeatureVector) Get(name string) float64 {
	i := FeatureIndex(name)
	if i < 0 || i >= len(v) {
		return 0
	}
	return v[i]
}

// Set assigns a named feature. Unknown names are ignored.
func (v FeatureVector) Set(name string, value float64) {
	if i := FeatureIndex(name); i >= 0 && i < len(v) {
		v[i] = value
	}
}

// Named returns a name→value map, for JSON output and prompts.
func (v FeatureVector) Named() map[string]float64 {
	m := make(map[string]float64, len(v))
	for i, val := range v {
		if i < len(FeatureNames) {
			m[FeatureNames[i]] = val
		}
	}
	return m
}
