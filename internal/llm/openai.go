package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// GroqBaseURL is the OpenAI-compatible endpoint for Groq.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIProvider implements Provider for OpenAI-compatible chat APIs,
// including Groq via BaseURL.
type OpenAIProvider struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIProvider creates an OpenAI-compatible provider.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %q", config.Provider)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	name := strings.ToLower(config.Provider)
	if name == "" {
		name = "openai"
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   name,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured.
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	return err == nil
}

// Classify sends the prompt through the Chat Completions API.
func (p *OpenAIProvider) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResponse, error) {
	mdl := req.Model
	if mdl == "" {
		mdl = p.config.Model
	}
	if mdl == "" {
		mdl = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 600
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, openai.ChatCompletionRequest{
		Model: mdl,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens: maxTokens,
		// Low temperature: the response must stay inside the JSON schema.
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	return &ClassifyResponse{
		Text:       strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      mdl,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
