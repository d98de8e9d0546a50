package classify

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	promptx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/prompt"
	timeoutx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/timeout"
)

type Intent string

const (
	IntentEmergency  Intent = "emergency"
	IntentSchedule   Intent = "schedule"
	IntentReschedule Intent = "reschedule"
	IntentCancel     Intent = "cancel"
	IntentFAQ        Intent = "faq"
	IntentGreeting   Intent = "greeting"
	IntentOther      Intent = "other"
)

// Labels is the closed vocabulary a model answer must fall into.
var Labels = []Intent{
	IntentEmergency, IntentSchedule, IntentReschedule, IntentCancel, IntentFAQ, IntentGreeting, IntentOther,
}

const ProviderHeuristic = "heuristic"

const (
	confidenceDanger   = 0.95
	confidenceKeyword  = 0.85
	confidenceModel    = 0.8
	confidenceGreeting = 0.6
	confidenceQuestion = 0.6
	confidenceOther    = 0.3
)

type IntentResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Provider   string  `json:"provider"`
}

var (
	dangerPatterns     = []string{"burst", "flood", "sewage", "gas leak", "no water"}
	cancelWords        = map[string]bool{"cancel": true, "canceling": true, "cancelling": true, "cancelled": true, "canceled": true}
	reschedulePatterns = []string{"resched", "change my time"}
	schedulePatterns   = []string{"book", "schedule", "appointment", "available", "tomorrow"}
	faqPatterns        = []string{"hours", "pricing", "quote", "estimate", "warranty", "guarantee"}
	greetingWords      = map[string]bool{"hi": true, "hello": true, "hey": true}
)

// HeuristicIntent maps an utterance to an intent with a keyword table. Order matters:
// danger patterns win over everything else.
func HeuristicIntent(text string) IntentResult {
	lowered := strings.ToLower(strings.TrimSpace(text))
	result := func(i Intent, c float64) IntentResult {
		return IntentResult{Intent: i, Confidence: c, Provider: ProviderHeuristic}
	}

	switch {
	case lowered == "":
		return result(IntentGreeting, confidenceGreeting)
	case containsAny(lowered, dangerPatterns):
		return result(IntentEmergency, confidenceDanger)
	case containsWord(lowered, cancelWords):
		return result(IntentCancel, confidenceKeyword)
	case containsAny(lowered, reschedulePatterns):
		return result(IntentReschedule, confidenceKeyword)
	case containsAny(lowered, schedulePatterns):
		return result(IntentSchedule, confidenceKeyword)
	case containsAny(lowered, faqPatterns):
		return result(IntentFAQ, confidenceKeyword)
	case greetingWords[strings.Trim(lowered, " !.,")]:
		return result(IntentGreeting, confidenceGreeting)
	case strings.HasSuffix(lowered, "?"):
		return result(IntentFAQ, confidenceQuestion)
	default:
		return result(IntentOther, confidenceOther)
	}
}

// IntentClassifier layers an optional model over the heuristic table.
type IntentClassifier struct {
	model   contractx.IntentModel
	system  string
	timeout time.Duration
}

type IntentOption func(*IntentClassifier)

func WithIntentTimeout(d time.Duration) IntentOption {
	return func(c *IntentClassifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewIntentClassifier builds a classifier. A nil model yields a heuristic-only classifier.
func NewIntentClassifier(model contractx.IntentModel, opts ...IntentOption) *IntentClassifier {
	c := &IntentClassifier{
		model:   model,
		system:  intentSystemPrompt(),
		timeout: timeoutx.IntentModelTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Classify never fails: model errors and out-of-vocabulary answers fall back to the heuristic.
func (c *IntentClassifier) Classify(ctx context.Context, text string, threshold float64) IntentResult {
	h := HeuristicIntent(text)
	if c == nil || c.model == nil || h.Intent == IntentEmergency || h.Confidence >= threshold {
		return h
	}
	if strings.TrimSpace(text) == "" {
		return h
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.model.Complete(ctx, c.system, text)
	if err != nil {
		log.Warn().Err(err).Str("provider", c.model.Name()).Msg("intent model failed, using heuristic")
		return h
	}

	label, ok := ParseLabel(raw)
	if !ok {
		log.Debug().Str("provider", c.model.Name()).Str("answer", raw).Msg("intent model answered outside label set")
		return h
	}
	return IntentResult{Intent: label, Confidence: confidenceModel, Provider: c.model.Name()}
}

// ParseLabel takes the first word of a model answer and accepts it only if it is a known label.
func ParseLabel(raw string) (Intent, bool) {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return "", false
	}
	word := Intent(strings.Trim(fields[0], ".,:;!?\"'`*"))
	for _, l := range Labels {
		if l == word {
			return l, true
		}
	}
	return "", false
}

func intentSystemPrompt() string {
	labels := make([]string, 0, len(Labels))
	for _, l := range Labels {
		labels = append(labels, string(l))
	}
	return promptx.Render(promptx.LoadPromptSet().IntentSystem, map[string]string{
		"labels": strings.Join(labels, ", "),
	})
}

// containsWord matches whole words only, so names such as "Cancellieri" do not count.
func containsWord(text string, words map[string]bool) bool {
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}) {
		if words[w] {
			return true
		}
	}
	return false
}

func containsAny(text string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
