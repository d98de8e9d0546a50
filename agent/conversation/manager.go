package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/classify"
	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/schedule"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

const (
	DefaultMaxNoInput        = 3
	DefaultMaxSlotRejections = 3
)

var ErrNilSession = errors.New("conversation: nil session")

// Result is the outcome of one turn.
type Result struct {
	Reply   string
	Session *statex.Session
	Outcome contractx.TurnOutcome
}

// Manager runs the booking dialogue. It holds no per-session state and is safe for concurrent use.
type Manager struct {
	customers    contractx.CustomerRepository
	appointments contractx.AppointmentRepository
	calendar     contractx.Calendar
	intentModel  contractx.IntentModel

	intents    *classify.IntentClassifier
	emergency  classify.EmergencyDetector
	negotiator *schedule.Negotiator

	now               func() time.Time
	maxNoInput        int
	maxSlotRejections int
}

type Option func(*Manager)

func WithCustomers(repo contractx.CustomerRepository) Option {
	return func(m *Manager) { m.customers = repo }
}

func WithAppointments(repo contractx.AppointmentRepository) Option {
	return func(m *Manager) { m.appointments = repo }
}

func WithCalendar(cal contractx.Calendar) Option {
	return func(m *Manager) { m.calendar = cal }
}

func WithIntentModel(model contractx.IntentModel) Option {
	return func(m *Manager) { m.intentModel = model }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func WithMaxNoInput(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxNoInput = n
		}
	}
}

func WithEmergencyKeywords(keywords ...string) Option {
	return func(m *Manager) { m.emergency = classify.NewEmergencyDetector(keywords...) }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		emergency:         classify.NewEmergencyDetector(),
		now:               time.Now,
		maxNoInput:        DefaultMaxNoInput,
		maxSlotRejections: DefaultMaxSlotRejections,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.intents = classify.NewIntentClassifier(m.intentModel)
	m.negotiator = schedule.NewNegotiator(m.calendar, schedule.WithClock(m.now))
	return m
}

// turn carries the per-call scratch state shared by the stage handlers.
type turn struct {
	ctx    context.Context
	sess   *statex.Session
	tenant contractx.Tenant
	text   string

	noInput    bool
	reprompted bool
	slotSource string
}

// HandleInput applies one caller utterance to the session and returns the reply.
// The session is mutated in place; identity fields are never written.
func (m *Manager) HandleInput(ctx context.Context, sess *statex.Session, tenant contractx.Tenant, utterance string) (Result, error) {
	if sess == nil {
		return Result{}, ErrNilSession
	}
	started := m.now()
	from := sess.Stage

	t := &turn{
		ctx:    ctx,
		sess:   sess,
		tenant: tenant,
		text:   strings.TrimSpace(utterance),
	}
	if !from.Terminal() {
		sess.AppendTranscript(t.text)
	}

	reply, err := m.dispatch(t)
	if err != nil {
		return Result{}, err
	}
	// Silence and unclear answers count together until the caller says something usable.
	if !t.noInput && !t.reprompted && !sess.Stage.Terminal() {
		sess.NoInputCount = 0
	}
	sess.Touch(m.now())

	var slot *statex.TimeSlot
	if sess.ProposedSlot != nil {
		copied := *sess.ProposedSlot
		slot = &copied
	}

	return Result{
		Reply:   reply,
		Session: sess,
		Outcome: contractx.TurnOutcome{
			SessionID:      sess.ID,
			BusinessID:     sess.BusinessID,
			CallerPhone:    sess.CallerPhone,
			Channel:        sess.Channel,
			FromStage:      from,
			ToStage:        sess.Stage,
			Status:         sess.Status,
			Intent:         sess.Intent,
			IntentProvider: sess.IntentProvider,
			IsEmergency:    sess.IsEmergency,
			NoInput:        t.noInput,
			Reprompted:     t.reprompted,
			SlotSource:     t.slotSource,
			Slot:           slot,
			Duration:       m.now().Sub(started),
			At:             started,
		},
	}, nil
}

// Prompt returns the question for the session's current stage without touching it.
func (m *Manager) Prompt(sess *statex.Session, tenant contractx.Tenant) string {
	return stagePrompt(sess, tenant)
}

func (m *Manager) dispatch(t *turn) (string, error) {
	if t.sess.Stage.Terminal() {
		return closingReply(t.sess, t.tenant), nil
	}
	if t.sess.Stage == statex.StageGreeting {
		return m.handleGreeting(t)
	}

	if t.text == "" {
		return m.handleNoInput(t)
	}

	if t.sess.Stage != statex.StageAskProblem && classify.HeuristicIntent(t.text).Intent == classify.IntentCancel {
		return m.cancel(t)
	}

	switch t.sess.Stage {
	case statex.StageAskName:
		return m.handleAskName(t)
	case statex.StageAskAddress:
		return m.handleAskAddress(t)
	case statex.StageConfirmAddress:
		return m.handleConfirmAddress(t)
	case statex.StageAskProblem:
		return m.handleAskProblem(t)
	case statex.StageAskSchedule:
		return m.handleAskSchedule(t)
	case statex.StageConfirmSlot:
		return m.handleConfirmSlot(t)
	default:
		return "", statex.ErrUnknownStage
	}
}

// handleNoInput re-issues the stage prompt, ending the call as a follow-up lead once the
// caller has been silent too many times in a row.
func (m *Manager) handleNoInput(t *turn) (string, error) {
	t.noInput = true

	if t.sess.Stage == statex.StageAskAddress && t.sess.StoredAddress != "" {
		if err := t.sess.Advance(statex.StageConfirmAddress); err != nil {
			return "", err
		}
		return offerAddressReply(t.sess), nil
	}

	t.sess.NoInputCount++
	if t.sess.NoInputCount >= m.maxNoInput {
		if err := t.sess.Advance(statex.StagePendingFollowup); err != nil {
			return "", err
		}
		return noInputExhaustedReply(t.tenant), nil
	}
	t.reprompted = true
	return repromptReply(t.sess, t.tenant), nil
}

// reprompt counts an unparseable answer the same way as silence.
func (m *Manager) reprompt(t *turn) (string, error) {
	t.sess.NoInputCount++
	if t.sess.NoInputCount >= m.maxNoInput {
		if err := t.sess.Advance(statex.StagePendingFollowup); err != nil {
			return "", err
		}
		return noInputExhaustedReply(t.tenant), nil
	}
	t.reprompted = true
	return repromptReply(t.sess, t.tenant), nil
}

func (m *Manager) cancel(t *turn) (string, error) {
	t.sess.Intent = string(classify.IntentCancel)
	t.sess.IntentProvider = classify.ProviderHeuristic
	if err := t.sess.Advance(statex.StageCompleted); err != nil {
		return "", err
	}
	return cancelledReply(t.tenant), nil
}
