package observer

import (
	"context"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	timeoutx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/timeout"
)

// StreamPublisher is the slice of jetstream.JetStream the publisher needs.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATS publishes every outcome to JetStream under <prefix>.<business_id>.<stage>.
type NATS struct {
	js     StreamPublisher
	prefix string
}

func NewNATS(js StreamPublisher, subjectPrefix string) *NATS {
	prefix := strings.TrimRight(strings.TrimSpace(subjectPrefix), ".")
	if prefix == "" {
		prefix = "plumbing.turns"
	}
	return &NATS{js: js, prefix: prefix}
}

func (n *NATS) Subject(out contractx.TurnOutcome) string {
	return n.prefix + "." + subjectToken(out.BusinessID) + "." + strings.ToLower(string(out.ToStage))
}

func (n *NATS) Observe(ctx context.Context, out contractx.TurnOutcome) {
	payload, err := sonic.ConfigStd.Marshal(out)
	if err != nil {
		log.Warn().Err(err).Str("session_id", out.SessionID).Msg("encode turn outcome failed")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeoutx.ObserverTimeout)
	defer cancel()

	// The dedupe id lets JetStream drop a republished outcome for the same turn.
	msgID := out.SessionID + ":" + out.At.UTC().Format("20060102T150405.000000000")
	if _, err := n.js.Publish(ctx, n.Subject(out), payload, jetstream.WithMsgID(msgID)); err != nil {
		log.Warn().Err(err).
			Str("session_id", out.SessionID).
			Str("business_id", out.BusinessID).
			Msg("publish turn outcome failed")
	}
}

// subjectToken keeps tenant ids from introducing extra subject levels or wildcards.
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
}
