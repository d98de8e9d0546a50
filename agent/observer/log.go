package observer

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

// Log writes one structured line per turn.
type Log struct {
	logger *zerolog.Logger
}

func NewLog(logger *zerolog.Logger) *Log {
	if logger == nil {
		logger = &log.Logger
	}
	return &Log{logger: logger}
}

func (l *Log) Observe(_ context.Context, out contractx.TurnOutcome) {
	ev := l.logger.Info()
	if out.NoInput || out.Reprompted {
		ev = l.logger.Debug()
	}
	ev = ev.
		Str("session_id", out.SessionID).
		Str("business_id", out.BusinessID).
		Str("from_stage", string(out.FromStage)).
		Str("stage", string(out.ToStage)).
		Str("status", string(out.Status)).
		Bool("emergency", out.IsEmergency).
		Dur("duration", out.Duration)
	if out.Intent != "" {
		ev = ev.Str("intent", out.Intent).Str("intent_provider", out.IntentProvider)
	}
	if out.Slot != nil {
		ev = ev.Time("slot_start", out.Slot.Start).Str("slot_source", out.SlotSource)
	}
	ev.Msg("turn processed")
}
