package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	openrouterx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/openrouter"
)

type capturedRequest struct {
	path string
	auth string
	body map[string]any
}

func newCapturingServer(t *testing.T, reply string, captured *capturedRequest) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		captured.path = r.URL.Path
		captured.auth = r.Header.Get("Authorization")
		if captured.auth == "" {
			captured.auth = r.Header.Get("X-Api-Key")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, reply)
	}))
	t.Cleanup(server.Close)
	return server
}

const chatCompletionReply = `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"m",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" schedule "}}]}`

func TestOpenAIModelComplete(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	server := newCapturingServer(t, chatCompletionReply, &got)

	m, err := NewOpenAIModel("sk-test", "gpt-test", server.URL)
	if err != nil {
		t.Fatalf("NewOpenAIModel() error = %v", err)
	}
	out, err := m.Complete(context.Background(), "classify", "I need a plumber")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != " schedule " {
		t.Fatalf("Complete() = %q", out)
	}
	if !strings.HasSuffix(got.path, "/chat/completions") {
		t.Fatalf("path = %q", got.path)
	}
	if got.auth != "Bearer sk-test" {
		t.Fatalf("auth = %q", got.auth)
	}
	if got.body["model"] != "gpt-test" || got.body["max_tokens"] != float64(intentMaxTokens) {
		t.Fatalf("body = %v", got.body)
	}
	if m.Name() != ProviderOpenAI {
		t.Fatalf("Name() = %q", m.Name())
	}
}

func TestOpenAIModelRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAIModel(" ", "", ""); err == nil {
		t.Fatal("NewOpenAIModel() expected error without key")
	}
}

func TestOpenRouterModelComplete(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	server := newCapturingServer(t, chatCompletionReply, &got)

	m, err := NewOpenRouterModel(openrouterx.Config{BaseURL: server.URL, APIKey: "or-key", Model: "meta/llama"})
	if err != nil {
		t.Fatalf("NewOpenRouterModel() error = %v", err)
	}
	out, err := m.Complete(context.Background(), "classify", "water everywhere")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if strings.TrimSpace(out) != "schedule" {
		t.Fatalf("Complete() = %q", out)
	}
	if got.auth != "Bearer or-key" || got.body["model"] != "meta/llama" {
		t.Fatalf("request = %+v", got)
	}
	msgs, _ := got.body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", got.body["messages"])
	}
}

func TestOpenRouterModelRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewOpenRouterModel(openrouterx.Config{Model: "m"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("NewOpenRouterModel() error = %v, want ErrValidation", err)
	}
}

func TestAnthropicModelComplete(t *testing.T) {
	t.Parallel()

	var got capturedRequest
	server := newCapturingServer(t, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
"content":[{"type":"text","text":"cancel"}],"stop_reason":"end_turn","stop_sequence":null,
"usage":{"input_tokens":10,"output_tokens":1}}`, &got)

	m, err := NewAnthropicModel("ak-test", "claude-test", server.URL)
	if err != nil {
		t.Fatalf("NewAnthropicModel() error = %v", err)
	}
	out, err := m.Complete(context.Background(), "Pick one label.", "never mind, cancel it")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "cancel" {
		t.Fatalf("Complete() = %q", out)
	}
	if !strings.HasSuffix(got.path, "/v1/messages") {
		t.Fatalf("path = %q", got.path)
	}
	if got.body["max_tokens"] != float64(intentMaxTokens) {
		t.Fatalf("max_tokens = %v", got.body["max_tokens"])
	}
	raw, _ := json.Marshal(got.body["messages"])
	if !strings.Contains(string(raw), "Pick one label.") || !strings.Contains(string(raw), "never mind, cancel it") {
		t.Fatalf("messages = %s", raw)
	}
}

type fakeChat struct {
	reply *schema.Message
	err   error
	input []*schema.Message
	opts  int
}

func (f *fakeChat) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.opts = len(opts)
	return f.reply, f.err
}

func (f *fakeChat) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func TestEinoModelComplete(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: schema.AssistantMessage("faq", nil)}
	m := NewEinoModel(chat)

	out, err := m.Complete(context.Background(), "sys", "do you charge for estimates?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "faq" {
		t.Fatalf("Complete() = %q", out)
	}
	if len(chat.input) != 2 || chat.input[0].Role != schema.System || chat.input[1].Content != "do you charge for estimates?" {
		t.Fatalf("input = %+v", chat.input)
	}
	if chat.opts != 2 {
		t.Fatalf("opts = %d, want temperature and max tokens", chat.opts)
	}
}

func TestEinoModelErrors(t *testing.T) {
	t.Parallel()

	m := NewEinoModel(&fakeChat{err: errors.New("rate limited")})
	if _, err := m.Complete(context.Background(), "s", "u"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Complete() error = %v, want ErrModelInvoke", err)
	}

	m = NewEinoModel(&fakeChat{})
	if _, err := m.Complete(context.Background(), "s", "u"); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("Complete() error = %v, want ErrSchemaViolation", err)
	}

	if _, err := NewEinoModel(nil).Complete(context.Background(), "s", "u"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Complete(nil chat) error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "none", cfg: Config{}, wantErr: false},
		{name: "explicit none", cfg: Config{Provider: "NONE"}, wantErr: false},
		{name: "unknown provider", cfg: Config{Provider: "watson", APIKey: "k", Model: "m"}, wantErr: true},
		{name: "missing key", cfg: Config{Provider: "openai", Model: "m"}, wantErr: true},
		{name: "missing model", cfg: Config{Provider: "anthropic", APIKey: "k"}, wantErr: true},
		{name: "complete", cfg: Config{Provider: "OpenRouter", APIKey: "k", Model: "m"}, wantErr: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, contractx.ErrValidation) {
				t.Fatalf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestNewWithoutProviderReturnsNil(t *testing.T) {
	t.Parallel()

	m, err := New(context.Background(), Config{Provider: ProviderNone})
	if err != nil || m != nil {
		t.Fatalf("New(none) = %v, %v", m, err)
	}
}

func TestNewBuildsConfiguredProvider(t *testing.T) {
	t.Parallel()

	m, err := New(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if m.Name() != ProviderOpenAI {
		t.Fatalf("Name() = %q", m.Name())
	}

	or := Config{APIKey: " k ", Model: " m "}.OpenRouter()
	if or.BaseURL != openrouterx.DefaultBaseURL || or.APIKey != "k" || or.Model != "m" {
		t.Fatalf("OpenRouter() = %+v", or)
	}
	if or.MaxCompletionToken == nil || *or.MaxCompletionToken != intentMaxTokens || !or.ExcludeReasoning {
		t.Fatalf("OpenRouter() token settings = %+v", or)
	}
}
