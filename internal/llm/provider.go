// Package llm talks to the external reasoning service and turns its raw
// output into validated semantic verdicts. Every expected failure mode
// (timeout, transport error, quota, malformed response) is represented as an
// unavailable verdict, never as an error escaping to the fusion layer.
package llm

import (
	"context"

	"github.com/rbelous/phishscope/internal/model"
)

// Provider is one reasoning backend.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Classify sends the prompt and returns the raw model output.
	Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// ClassifyRequest is the input to one reasoning call.
type ClassifyRequest struct {
	// Prompt is the fully rendered prompt text.
	Prompt string

	// Model overrides the configured model when set.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// ClassifyResponse is the raw output of one reasoning call, before schema
// validation.
type ClassifyResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds reasoning backend configuration.
type Config struct {
	// Provider name: "openai", "groq", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (Groq, Ollama, proxies)
	BaseURL string

	// Timeout per attempt, seconds
	Timeout int

	// MaxRetries for transport failures (schema failures get exactly one
	// corrective re-prompt regardless)
	MaxRetries int

	// MaxTokens for response generation
	MaxTokens int

	// RatePerSec / RateBurst throttle outbound calls
	RatePerSec float64
	RateBurst  int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   "", // Disabled by default
		Timeout:    8,
		MaxRetries: 2,
		MaxTokens:  600,
		RatePerSec: 2,
		RateBurst:  4,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxRetries: mc.MaxRetries,
		MaxTokens:  mc.MaxTokens,
		RatePerSec: mc.RatePerSec,
		RateBurst:  mc.RateBurst,
	}
}
