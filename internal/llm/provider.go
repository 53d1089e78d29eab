// Package llm wraps the hosted text-completion service behind a small
// provider interface and a model gateway that handles model-name fallback
// on rate limits. It also houses the structured-output extractor that
// turns free-text completions into JSON objects.
package llm

import (
	"context"
	"errors"
	"time"
)

// Common errors returned by providers and the gateway.
var (
	ErrNoAPIKey     = errors.New("llm: API key not configured")
	ErrRateLimit    = errors.New("llm: rate limit exceeded")
	ErrUnavailable  = errors.New("llm: provider unavailable")
	ErrInvalidModel = errors.New("llm: invalid model")
	ErrNoModels     = errors.New("llm: no models configured")
)

// GenerateOptions configures a single completion request.
type GenerateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// Provider is the interface a text-completion backend must implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// Generate sends a single-turn prompt to the given model and returns
	// the completion text.
	Generate(ctx context.Context, model, prompt string, opts *GenerateOptions) (string, error)

	// Models returns the list of models this provider can serve.
	Models() []string

	// Ping checks if the provider is reachable and the API key is valid.
	Ping(ctx context.Context) error
}

// ProviderConfig holds common provider configuration.
type ProviderConfig struct {
	APIKey      string        `json:"api_key,omitempty"`
	BaseURL     string        `json:"base_url,omitempty"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Timeout     time.Duration `json:"timeout"`
}

// DefaultProviderConfig returns sensible defaults for provider configuration.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
		MaxTokens:   2000,
		Timeout:     60 * time.Second,
	}
}
