package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/arthastra/arthastra/internal/config"
)

// Gateway routes completion requests to a provider with model-name fallback.
// The preferred model is tried exactly once; on a rate-limit failure the
// gateway waits a short fixed delay and moves to the next model in the chain.
// Any other failure propagates immediately — retrying a bad request against
// a different model never helps.
type Gateway struct {
	provider      Provider
	preferred     string
	fallbacks     []string
	fallbackDelay time.Duration
	opts          *GenerateOptions
}

// GatewayOption configures the gateway.
type GatewayOption func(*Gateway)

// WithFallbackModels sets the ordered model fallback chain.
func WithFallbackModels(models ...string) GatewayOption {
	return func(g *Gateway) { g.fallbacks = models }
}

// WithFallbackDelay sets the pause before switching to the next model.
func WithFallbackDelay(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.fallbackDelay = d }
}

// WithGenerateOptions sets the default generation options for all requests.
func WithGenerateOptions(opts *GenerateOptions) GatewayOption {
	return func(g *Gateway) { g.opts = opts }
}

// NewGateway creates a gateway for the given provider and preferred model.
func NewGateway(provider Provider, preferred string, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		provider:      provider,
		preferred:     preferred,
		fallbackDelay: time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Provider returns the underlying provider.
func (g *Gateway) Provider() Provider { return g.provider }

// ModelChain returns the preferred model followed by the fallbacks.
func (g *Gateway) ModelChain() []string {
	chain := []string{g.preferred}
	for _, m := range g.fallbacks {
		if m != g.preferred {
			chain = append(chain, m)
		}
	}
	return chain
}

// Complete sends the prompt through the model chain and returns the
// completion text. Each model is attempted at most once.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	chain := g.ModelChain()
	if len(chain) == 0 || chain[0] == "" {
		return "", ErrNoModels
	}

	var lastErr error
	for i, model := range chain {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.fallbackDelay):
			}
		}

		text, err := g.provider.Generate(ctx, model, prompt, g.opts)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errors.Is(err, ErrRateLimit) {
			// Auth and transport failures are not model-specific.
			return "", err
		}
		log.Printf("llm/gateway: model %s rate limited, trying next", model)
	}

	return "", fmt.Errorf("llm/gateway: all models exhausted: %w", lastErr)
}

// Ping checks the underlying provider's health.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.provider.Ping(ctx)
}

// NewGatewayFromConfig builds a gateway from the application config. Gemini
// is the production backend; "ollama" selects a local instance for offline
// development.
func NewGatewayFromConfig(cfg *config.Config) (*Gateway, error) {
	var (
		provider Provider
		err      error
	)
	switch cfg.LLM.Provider {
	case "ollama":
		provider, err = NewOllamaProvider(cfg.LLM.OllamaURL)
	default:
		provider, err = NewGeminiProvider(cfg.LLM.GeminiKey)
	}
	if err != nil {
		return nil, err
	}

	opts := &GenerateOptions{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}

	return NewGateway(provider, cfg.LLM.Model,
		WithFallbackModels(cfg.LLM.FallbackModels...),
		WithFallbackDelay(time.Duration(cfg.LLM.FallbackDelayMS)*time.Millisecond),
		WithGenerateOptions(opts),
	), nil
}
