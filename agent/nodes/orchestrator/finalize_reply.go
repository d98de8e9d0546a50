package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Session == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: state machine returned empty reply", contractx.ErrValidation)
	}
	return GraphOutput{
		Reply:      reply,
		SessionID:  in.Session.ID,
		Stage:      in.Session.Stage,
		Status:     in.Session.Status,
		NewSession: in.NewSession,
		Replayed:   in.Replayed,
		Session:    statex.Clone(in.Session),
	}, nil
}
