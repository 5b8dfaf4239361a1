// Package llm builds the single model client shared by the planner, executor,
// chat agent and tools.
package llm

import (
	"context"
	"fmt"

	"github.com/rahul/finmate/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// New constructs the model client for the named provider. OpenAI-compatible
// routers (openrouter, huggingface) go through the openai client with a base URL.
func New(ctx context.Context, name string, p config.ProviderConfig) (llms.Model, error) {
	switch name {
	case "openai", "openrouter", "huggingface":
		opts := []openai.Option{
			openai.WithToken(p.APIKey),
			openai.WithModel(p.Model),
		}
		if p.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.BaseURL))
		}
		return openai.New(opts...)
	case "googleai", "gemini":
		return googleai.New(ctx,
			googleai.WithAPIKey(p.APIKey),
			googleai.WithDefaultModel(p.Model),
		)
	case "ollama":
		opts := []ollama.Option{ollama.WithModel(p.Model)}
		if p.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(p.BaseURL))
		}
		return ollama.New(opts...)
	case "":
		return nil, fmt.Errorf("no enabled provider found in config")
	default:
		return nil, fmt.Errorf("provider %s not supported", name)
	}
}

// FromConfig picks the default enabled provider and builds its client.
func FromConfig(ctx context.Context, cfg *config.Config) (llms.Model, config.ProviderConfig, error) {
	name, p := cfg.GetDefaultProvider()
	model, err := New(ctx, name, p)
	if err != nil {
		return nil, p, err
	}
	return model, p, nil
}

// CallOptions returns the per-call options implied by a provider config.
func CallOptions(p config.ProviderConfig) []llms.CallOption {
	var opts []llms.CallOption
	if p.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(p.Temperature))
	}
	return opts
}
