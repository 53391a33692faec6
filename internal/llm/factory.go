package llm

import (
	"fmt"
	"strings"
)

// NewProvider creates a reasoning provider from configuration. An empty
// provider name returns (nil, nil): reasoning disabled, classifier-only
// operation.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "groq":
		// Groq speaks the OpenAI chat API on its own endpoint.
		if config.BaseURL == "" {
			config.BaseURL = GroqBaseURL
		}
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, groq, ollama)", config.Provider)
	}
}
