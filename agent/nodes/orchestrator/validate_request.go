package orchestratornode

import (
	"strings"
	"time"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/conversation"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

// GraphInput is one inbound caller turn. An empty SessionID starts a new dialogue.
type GraphInput struct {
	SessionID   string
	BusinessID  string
	CallerPhone string
	Utterance   string
	Channel     string
	LeadSource  string
	Campaign    string
	// TurnID identifies a provider delivery; a repeated id replays the stored reply.
	TurnID string
}

type GraphOutput struct {
	Reply      string
	SessionID  string
	Stage      statex.Stage
	Status     statex.Status
	NewSession bool
	Replayed   bool
	// Session is a detached snapshot of the saved state.
	Session *statex.Session
}

type GraphState struct {
	Input GraphInput
	Now   time.Time

	Session    *statex.Session
	NewSession bool
	Tenant     contractx.Tenant

	Result   conversation.Result
	Reply    string
	Replayed bool
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	in.BusinessID = strings.TrimSpace(in.BusinessID)
	if in.BusinessID == "" {
		return nil, statex.ErrMissingBusiness
	}

	in.SessionID = strings.TrimSpace(in.SessionID)
	in.CallerPhone = strings.TrimSpace(in.CallerPhone)
	in.Utterance = strings.TrimSpace(in.Utterance)
	in.Channel = strings.TrimSpace(in.Channel)
	in.LeadSource = strings.TrimSpace(in.LeadSource)
	in.Campaign = strings.TrimSpace(in.Campaign)
	in.TurnID = strings.TrimSpace(in.TurnID)

	return &GraphState{
		Input: in,
		Now:   nowFn().UTC(),
	}, nil
}
