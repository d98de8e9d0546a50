package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/classify"
	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
	timeoutx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/timeout"
)

// LoadOrCreateSession resumes the caller's session. A missing or unreadable record, or one
// owned by another business, starts a fresh dialogue instead of failing the turn.
func LoadOrCreateSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if sess := loadSession(ctx, store, in.Input); sess != nil {
		in.Session = sess
		return in, nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeoutx.StoreTimeout)
	defer cancel()

	leadSource := classify.NormalizeLeadSource(in.Input.LeadSource, in.Input.Campaign)
	sess, err := store.Create(ctx, in.Input.CallerPhone, in.Input.BusinessID, leadSource)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	sess.Channel = in.Input.Channel

	in.Session = sess
	in.NewSession = true
	return in, nil
}

func loadSession(ctx context.Context, store statex.Store, in GraphInput) *statex.Session {
	if in.SessionID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutx.StoreTimeout)
	defer cancel()

	sess, err := store.Get(ctx, in.SessionID)
	switch {
	case errors.Is(err, statex.ErrStateNotFound):
		log.Info().Str("session_id", in.SessionID).Msg("session not found, starting new dialogue")
		return nil
	case err != nil:
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("session load failed, starting new dialogue")
		return nil
	case sess.BusinessID != in.BusinessID:
		log.Warn().
			Str("session_id", in.SessionID).
			Str("business_id", in.BusinessID).
			Str("session_business_id", sess.BusinessID).
			Msg("session belongs to another business, starting new dialogue")
		return nil
	}
	if sess.Channel == "" {
		sess.Channel = in.Channel
	}
	return sess
}
