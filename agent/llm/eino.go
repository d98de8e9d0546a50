package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

// EinoModel adapts any eino chat model to the intent model contract.
type EinoModel struct {
	chat model.BaseChatModel
}

func NewEinoModel(chat model.BaseChatModel) *EinoModel {
	return &EinoModel{chat: chat}
}

func (m *EinoModel) Name() string { return ProviderEino }

func (m *EinoModel) Complete(ctx context.Context, system, user string) (string, error) {
	if m.chat == nil {
		return "", fmt.Errorf("%w: chat model is nil", contractx.ErrModelInvoke)
	}
	msg, err := m.chat.Generate(ctx,
		[]*schema.Message{schema.SystemMessage(system), schema.UserMessage(user)},
		model.WithTemperature(intentTemperature),
		model.WithMaxTokens(intentMaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: nil message", contractx.ErrSchemaViolation)
	}
	return msg.Content, nil
}
