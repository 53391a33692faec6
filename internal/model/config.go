package model

import "time"

// Config is the full engine configuration.
// Hierarchy (highest to lowest priority): CLI flags, PHISHSCOPE_* env vars,
// ~/.phishscope/config.yaml, defaults.
type Config struct {
	Classifier  ClassifierConfig  `yaml:"classifier" json:"classifier"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Fusion      FusionConfig      `yaml:"fusion" json:"fusion"`
	Fetch       FetchConfig       `yaml:"fetch" json:"fetch"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// ClassifierConfig controls the local tree-ensemble model.
type ClassifierConfig struct {
	ModelPath string `yaml:"model_path" json:"model_path"` // Empty = built-in default model
}

// LLMConfig controls the reasoning backend.
type LLMConfig struct {
	Provider   string  `yaml:"provider" json:"provider"` // "openai", "groq", "ollama", "" = disabled
	Model      string  `yaml:"model" json:"model"`
	APIKey     string  `yaml:"-" json:"-"` // Supplied via environment only, never persisted
	BaseURL    string  `yaml:"base_url" json:"base_url"`
	Timeout    int     `yaml:"timeout" json:"timeout"` // Per-attempt timeout, seconds
	MaxRetries int     `yaml:"max_retries" json:"max_retries"`
	MaxTokens  int     `yaml:"max_tokens" json:"max_tokens"`
	RatePerSec float64 `yaml:"rate_per_sec" json:"rate_per_sec"`
	RateBurst  int     `yaml:"rate_burst" json:"rate_burst"`
}

// CacheConfig controls the reasoning verdict cache.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	TTL        time.Duration `yaml:"ttl" json:"ttl"`
	MaxEntries int           `yaml:"max_entries" json:"max_entries"`
	DiskDir    string        `yaml:"disk_dir" json:"disk_dir"` // Empty = memory only
}

// FusionConfig controls how the two signals are combined.
type FusionConfig struct {
	Threshold        float64       `yaml:"threshold" json:"threshold"`                 // Classifier decision threshold tau
	ClassifierWeight float64       `yaml:"classifier_weight" json:"classifier_weight"` // Agreement-path weight
	ReasonerWeight   float64       `yaml:"reasoner_weight" json:"reasoner_weight"`
	Epsilon          float64       `yaml:"epsilon" json:"epsilon"` // Confidence tie margin
	Budget           time.Duration `yaml:"budget" json:"budget"`   // Overall reasoning time budget
}

// FetchConfig controls optional page-context retrieval for the prompt.
type FetchConfig struct {
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	MaxWords       int           `yaml:"max_words" json:"max_words"`
	RespectRobots  bool          `yaml:"respect_robots" json:"respect_robots"`
	HTTPProxy      string        `yaml:"http_proxy" json:"http_proxy"`   // Empty = environment
	HTTPSProxy     string        `yaml:"https_proxy" json:"https_proxy"` // Empty = environment
	SearchEnabled  bool          `yaml:"search_enabled" json:"search_enabled"`   // Domain reputation snippets
	SearchEndpoint string        `yaml:"search_endpoint" json:"search_endpoint"` // Empty = default backend
	MaxSnippets    int           `yaml:"max_snippets" json:"max_snippets"`
}

// ConcurrencyConfig controls batch evaluation.
type ConcurrencyConfig struct {
	BatchWorkers int `yaml:"batch_workers" json:"batch_workers"`
}

// OutputConfig controls CLI rendering.
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" json:"verbose"`
	Format  string `yaml:"format" json:"format"` // "text" or "json"
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			ModelPath: "",
		},
		LLM: LLMConfig{
			Provider:   "", // Disabled by default
			Model:      "",
			Timeout:    8,
			MaxRetries: 2,
			MaxTokens:  600,
			RatePerSec: 2,
			RateBurst:  4,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        24 * time.Hour,
			MaxEntries: 4096,
		},
		Fusion: FusionConfig{
			Threshold:        0.5,
			ClassifierWeight: 0.5,
			ReasonerWeight:   0.5,
			Epsilon:          0.05,
			Budget:           20 * time.Second,
		},
		Fetch: FetchConfig{
			Enabled:       false,
			Timeout:       12 * time.Second,
			UserAgent:     "Phishscope/0.1 (+https://github.com/rbelous/phishscope)",
			MaxBodyBytes:  2_000_000,
			MaxWords:      800,
			RespectRobots: true,
			SearchEnabled: false,
			MaxSnippets:   6,
		},
		Concurrency: ConcurrencyConfig{
			BatchWorkers: 4,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}
