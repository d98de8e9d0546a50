package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/conversation"
)

func RunStateMachine(ctx context.Context, in *GraphState, manager *conversation.Manager) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	sess := in.Session
	if turnID := in.Input.TurnID; turnID != "" && turnID == sess.LastTurnID && sess.LastReply != "" {
		log.Debug().
			Str("session_id", sess.ID).
			Str("turn_id", turnID).
			Msg("redelivered turn, replaying reply")
		in.Reply = sess.LastReply
		in.Replayed = true
		return in, nil
	}

	res, err := manager.HandleInput(ctx, sess, in.Tenant, in.Input.Utterance)
	if err != nil {
		return nil, fmt.Errorf("handle input: %w", err)
	}
	res.Outcome.NewSession = in.NewSession

	if in.Input.TurnID != "" {
		sess.LastTurnID = in.Input.TurnID
		sess.LastReply = res.Reply
	}

	in.Result = res
	in.Reply = res.Reply
	return in, nil
}
