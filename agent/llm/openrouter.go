package llm

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	openrouterx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/openrouter"
)

// OpenRouterModel completes through the OpenRouter chat API using the OpenAI SDK.
type OpenRouterModel struct {
	client *openaisdk.Client
	model  string
}

func NewOpenRouterModel(cfg openrouterx.Config) (*OpenRouterModel, error) {
	client := openrouterx.NewClient(cfg)
	if client == nil {
		return nil, fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	return &OpenRouterModel{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

func (m *OpenRouterModel) Name() string { return ProviderOpenRouter }

func (m *OpenRouterModel) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(m.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(system),
			openaisdk.UserMessage(user),
		},
		Temperature: openaisdk.Float(intentTemperature),
		MaxTokens:   openaisdk.Int(intentMaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", contractx.ErrSchemaViolation)
	}
	return resp.Choices[0].Message.Content, nil
}
