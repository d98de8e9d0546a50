package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

func ObserveOutcome(ctx context.Context, in *GraphState, observer contractx.Observer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if observer == nil || in.Replayed {
		return in, nil
	}

	observer.Observe(context.WithoutCancel(ctx), in.Result.Outcome)
	return in, nil
}
