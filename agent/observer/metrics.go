package observer

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

// Metrics turns outcomes into Prometheus series. Business ids are label values, so keep the
// tenant count bounded.
type Metrics struct {
	TurnsTotal         *prometheus.CounterVec
	TurnDuration       *prometheus.HistogramVec
	NoInputTotal       *prometheus.CounterVec
	SessionsStarted    *prometheus.CounterVec
	OutcomesTotal      *prometheus.CounterVec
	EmergenciesTotal   *prometheus.CounterVec
	SlotProposalsTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_turns_total",
				Help: "Processed caller turns by stage reached",
			},
			[]string{"business_id", "stage"},
		),
		TurnDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "booking_turn_duration_seconds",
				Help:    "State machine time per turn",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"business_id"},
		),
		NoInputTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_no_input_total",
				Help: "Turns with an empty utterance",
			},
			[]string{"business_id"},
		),
		SessionsStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_sessions_started_total",
				Help: "Dialogues started",
			},
			[]string{"business_id"},
		),
		OutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_outcomes_total",
				Help: "Dialogues that reached a terminal stage",
			},
			[]string{"business_id", "status", "emergency"},
		),
		EmergenciesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_emergencies_total",
				Help: "Dialogues flagged as emergencies",
			},
			[]string{"business_id"},
		),
		SlotProposalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_slot_proposals_total",
				Help: "Slots offered by source",
			},
			[]string{"business_id", "source"},
		),
	}
}

func (m *Metrics) Observe(_ context.Context, out contractx.TurnOutcome) {
	biz := out.BusinessID
	m.TurnsTotal.WithLabelValues(biz, string(out.ToStage)).Inc()
	m.TurnDuration.WithLabelValues(biz).Observe(out.Duration.Seconds())

	if out.NewSession {
		m.SessionsStarted.WithLabelValues(biz).Inc()
	}
	if out.NoInput {
		m.NoInputTotal.WithLabelValues(biz).Inc()
	}
	if out.SlotSource != "" {
		m.SlotProposalsTotal.WithLabelValues(biz, out.SlotSource).Inc()
	}

	// Count each dialogue once, on the turn it ends.
	if out.Terminal() && out.FromStage != out.ToStage {
		emergency := "false"
		if out.IsEmergency {
			emergency = "true"
			m.EmergenciesTotal.WithLabelValues(biz).Inc()
		}
		m.OutcomesTotal.WithLabelValues(biz, string(out.Status), emergency).Inc()
	}
}
