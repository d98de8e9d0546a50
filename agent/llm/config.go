package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	openrouterx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/openrouter"
)

const (
	ProviderNone       = "none"
	ProviderOpenRouter = "openrouter"
	ProviderEino       = "eino"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
)

// Intent refinement needs one label, so completions are capped hard.
const (
	intentMaxTokens   = 4
	intentTemperature = 0
)

type Config struct {
	Provider string        `split_words:"true" default:"none"`
	Model    string        `split_words:"true"`
	APIKey   string        `envconfig:"API_KEY" split_words:"true"`
	BaseURL  string        `envconfig:"BASE_URL" split_words:"true"`
	Timeout  time.Duration `split_words:"true" default:"6s"`
	SiteURL  string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName string        `envconfig:"SITE_NAME" split_words:"true"`
}

func (c Config) Validate() error {
	switch c.provider() {
	case ProviderNone:
		return nil
	case ProviderOpenRouter, ProviderEino, ProviderOpenAI, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("%w: unknown intent model provider %q", contractx.ErrValidation, c.Provider)
	}
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: %s api key is required", contractx.ErrValidation, c.provider())
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: %s model is required", contractx.ErrValidation, c.provider())
	}
	return nil
}

// OpenRouter maps the intent settings onto the shared OpenRouter client config.
func (c Config) OpenRouter() openrouterx.Config {
	maxTokens := intentMaxTokens
	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL == "" {
		baseURL = openrouterx.DefaultBaseURL
	}
	return openrouterx.Config{
		BaseURL:            baseURL,
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(c.Model),
		MaxCompletionToken: &maxTokens,
		Temperature:        intentTemperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
		ExcludeReasoning:   true,
	}
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderNone
	}
	return p
}

// New builds the configured intent model once at startup. ProviderNone returns nil, which
// leaves intent classification on the keyword heuristic.
func New(ctx context.Context, cfg Config) (contractx.IntentModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.provider() {
	case ProviderOpenRouter:
		return NewOpenRouterModel(cfg.OpenRouter())
	case ProviderEino:
		orc := cfg.OpenRouter()
		chat, err := orc.New(ctx)
		if err != nil {
			return nil, err
		}
		return NewEinoModel(chat), nil
	case ProviderOpenAI:
		return NewOpenAIModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderAnthropic:
		return NewAnthropicModel(cfg.APIKey, cfg.Model, cfg.BaseURL)
	case ProviderGemini:
		return NewGeminiModel(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, nil
	}
}
