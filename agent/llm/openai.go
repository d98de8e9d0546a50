package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

// OpenAIModel talks to the OpenAI chat API directly.
type OpenAIModel struct {
	client *openai.Client
	model  string
}

func NewOpenAIModel(apiKey, model, baseURL string) (*OpenAIModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if u := strings.TrimRight(strings.TrimSpace(baseURL), "/"); u != "" {
		cfg.BaseURL = u
	}
	if strings.TrimSpace(model) == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIModel{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (m *OpenAIModel) Name() string { return ProviderOpenAI }

func (m *OpenAIModel) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   intentMaxTokens,
		Temperature: intentTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", contractx.ErrSchemaViolation)
	}
	return resp.Choices[0].Message.Content, nil
}
