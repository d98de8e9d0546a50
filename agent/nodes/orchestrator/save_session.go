package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
	timeoutx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/timeout"
)

// SaveSession persists the mutated session. The write is detached from request
// cancellation so a turn that started always lands.
func SaveSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}
	if in.Replayed {
		return in, nil
	}

	if err := in.Session.Validate(); err != nil {
		return nil, fmt.Errorf("state validation failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeoutx.StoreTimeout)
	defer cancel()

	if err := store.Save(ctx, in.Session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return in, nil
}
