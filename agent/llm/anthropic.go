package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

// AnthropicModel uses the Messages API. The system prompt is sent ahead of the utterance
// in the single user turn.
type AnthropicModel struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicModel(apiKey, model, baseURL string) (*AnthropicModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("Anthropic API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(apiKey))}
	if u := strings.TrimRight(strings.TrimSpace(baseURL), "/"); u != "" {
		opts = append(opts, option.WithBaseURL(u))
	}
	if strings.TrimSpace(model) == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicModel{client: anthropic.NewClient(opts...), model: model}, nil
}

func (m *AnthropicModel) Name() string { return ProviderAnthropic }

func (m *AnthropicModel) Complete(ctx context.Context, system, user string) (string, error) {
	prompt := system + "\n\nUtterance: " + user
	resp, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(m.model),
		MaxTokens: anthropic.F(int64(intentMaxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{{
			Role: anthropic.F(anthropic.MessageParamRoleUser),
			Content: anthropic.F([]anthropic.ContentBlockParamUnion{
				anthropic.TextBlockParam{
					Type: anthropic.F(anthropic.TextBlockParamTypeText),
					Text: anthropic.F(prompt),
				},
			}),
		}}),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content += block.Text
		}
	}
	return content, nil
}
