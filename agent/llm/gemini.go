package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

const defaultGeminiModel = "gemini-2.0-flash"

type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("Gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) Name() string { return ProviderGemini }

func (m *GeminiModel) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](intentTemperature),
		MaxOutputTokens:   intentMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return resp.Text(), nil
}
