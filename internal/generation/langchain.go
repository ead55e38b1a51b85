package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderGoogleAI = "googleai"
	ProviderOpenAI   = "openai"

	DefaultGoogleAIModel = "gemini-2.5-flash"
	DefaultOpenAIModel   = "gpt-4o-mini"
	defaultTemperature   = 0.3
)

// LangChain adapts a langchaingo model to Generator.
type LangChain struct {
	model       llms.Model
	temperature float64
}

// NewLangChain wraps an existing langchaingo model.
func NewLangChain(model llms.Model) *LangChain {
	return &LangChain{model: model, temperature: defaultTemperature}
}

func (l *LangChain) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, l.model, prompt, llms.WithTemperature(l.temperature))
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("llm returned empty text")
	}
	return text, nil
}

// ProviderConfig selects and authenticates a model provider.
type ProviderConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewProvider constructs the configured langchaingo provider.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*LangChain, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%s api key is empty", cfg.Provider)
	}
	switch cfg.Provider {
	case ProviderGoogleAI, "":
		model := cfg.Model
		if model == "" {
			model = DefaultGoogleAIModel
		}
		llm, err := googleai.New(ctx,
			googleai.WithAPIKey(cfg.APIKey),
			googleai.WithDefaultModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("create googleai client: %w", err)
		}
		return NewLangChain(llm), nil
	case ProviderOpenAI:
		model := cfg.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		opts := []openai.Option{openai.WithToken(cfg.APIKey), openai.WithModel(model)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return NewLangChain(llm), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.Provider)
	}
}
