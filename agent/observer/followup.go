package observer

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
	timeoutx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/timeout"
)

const DefaultFollowupDelay = 15 * time.Minute

// Queue is a delayed delivery queue such as QStash.
type Queue interface {
	Publish(ctx context.Context, destination string, body []byte, delay time.Duration) (string, error)
}

// FollowupTask is the payload delivered back to the follow-up webhook.
type FollowupTask struct {
	SessionID   string `json:"session_id"`
	BusinessID  string `json:"business_id"`
	CallerPhone string `json:"caller_phone"`
	Emergency   bool   `json:"emergency"`
}

// Followup queues a callback for dialogues that ended without a booking.
type Followup struct {
	queue       Queue
	destination string
	delay       time.Duration
}

func NewFollowup(queue Queue, destination string, delay time.Duration) *Followup {
	if delay <= 0 {
		delay = DefaultFollowupDelay
	}
	return &Followup{queue: queue, destination: destination, delay: delay}
}

func (f *Followup) Observe(ctx context.Context, out contractx.TurnOutcome) {
	if out.ToStage != statex.StagePendingFollowup || out.FromStage == out.ToStage {
		return
	}
	if out.CallerPhone == "" {
		log.Info().Str("session_id", out.SessionID).Msg("follow-up skipped, caller phone unknown")
		return
	}

	body, err := sonic.ConfigStd.Marshal(FollowupTask{
		SessionID:   out.SessionID,
		BusinessID:  out.BusinessID,
		CallerPhone: out.CallerPhone,
		Emergency:   out.IsEmergency,
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", out.SessionID).Msg("encode follow-up task failed")
		return
	}

	// Emergencies get called back right away.
	delay := f.delay
	if out.IsEmergency {
		delay = 0
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutx.ObserverTimeout)
	defer cancel()

	id, err := f.queue.Publish(ctx, f.destination, body, delay)
	if err != nil {
		log.Warn().Err(err).
			Str("session_id", out.SessionID).
			Str("business_id", out.BusinessID).
			Msg("queue follow-up failed")
		return
	}
	log.Info().
		Str("session_id", out.SessionID).
		Str("business_id", out.BusinessID).
		Str("message_id", id).
		Dur("delay", delay).
		Msg("follow-up queued")
}
