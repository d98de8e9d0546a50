package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Session is the persisted source of truth for one caller's booking dialogue.
// It is reloaded and saved on every turn, so every field must survive a JSON round trip.
type Session struct {
	// Identity
	ID          string `json:"id"`
	BusinessID  string `json:"business_id"`
	CallerPhone string `json:"caller_phone"`
	Channel     string `json:"channel,omitempty"`
	LeadSource  string `json:"lead_source,omitempty"`

	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`

	// Caller details
	CallerName     string `json:"caller_name,omitempty"`
	Address        string `json:"address,omitempty"`
	StoredAddress  string `json:"stored_address,omitempty"`
	KnownCustomer  bool   `json:"known_customer,omitempty"`
	CustomerLookup bool   `json:"customer_lookup,omitempty"`

	// Problem + classification
	ProblemDescription           string   `json:"problem_description,omitempty"`
	ServiceType                  string   `json:"service_type,omitempty"`
	DurationMinutes              int      `json:"duration_minutes,omitempty"`
	QuoteLow                     *float64 `json:"quote_low,omitempty"`
	QuoteHigh                    *float64 `json:"quote_high,omitempty"`
	IsEmergency                  bool     `json:"is_emergency"`
	EmergencyConfidence          float64  `json:"emergency_confidence"`
	EmergencyReasons             []string `json:"emergency_reasons,omitempty"`
	EmergencyConfirmationPending bool     `json:"emergency_confirmation_pending"`

	Intent           string  `json:"intent,omitempty"`
	IntentConfidence float64 `json:"intent_confidence"`
	IntentProvider   string  `json:"intent_provider,omitempty"`

	// Scheduling
	ProposedSlot    *TimeSlot  `json:"proposed_slot,omitempty"`
	RejectedSlots   []TimeSlot `json:"rejected_slots,omitempty"`
	AppointmentID   string     `json:"appointment_id,omitempty"`
	CalendarEventID string     `json:"calendar_event_id,omitempty"`

	NoInputCount int      `json:"no_input_count"`
	Transcript   []string `json:"transcript,omitempty"`

	// Redelivery guard: a turn carrying LastTurnID gets LastReply back without mutation.
	LastTurnID string `json:"last_turn_id,omitempty"`
	LastReply  string `json:"last_reply,omitempty"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// TimeSlot is a candidate or confirmed appointment range.
type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (t TimeSlot) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Overlaps reports whether the half-open ranges [Start, End) intersect.
func (t TimeSlot) Overlaps(o TimeSlot) bool {
	return t.Start.Before(o.End) && o.Start.Before(t.End)
}

func (t TimeSlot) IsZero() bool {
	return t.Start.IsZero() && t.End.IsZero()
}

type Stage string

const (
	StageGreeting        Stage = "GREETING"
	StageAskName         Stage = "ASK_NAME"
	StageAskAddress      Stage = "ASK_ADDRESS"
	StageConfirmAddress  Stage = "CONFIRM_ADDRESS"
	StageAskProblem      Stage = "ASK_PROBLEM"
	StageAskSchedule     Stage = "ASK_SCHEDULE"
	StageConfirmSlot     Stage = "CONFIRM_SLOT"
	StageScheduled       Stage = "SCHEDULED"
	StagePendingFollowup Stage = "PENDING_FOLLOWUP"
	StageCompleted       Stage = "COMPLETED"
)

type Status string

const (
	StatusInProgress      Status = "IN_PROGRESS"
	StatusScheduled       Status = "SCHEDULED"
	StatusPendingFollowup Status = "PENDING_FOLLOWUP"
	StatusCompleted       Status = "COMPLETED"
)

// stageRank orders stages along the dialogue. CONFIRM_ADDRESS shares a rank with
// ASK_ADDRESS so the correction edge between them is the only backward move.
var stageRank = map[Stage]int{
	StageGreeting:        0,
	StageAskName:         1,
	StageAskAddress:      2,
	StageConfirmAddress:  2,
	StageAskProblem:      3,
	StageAskSchedule:     4,
	StageConfirmSlot:     5,
	StageScheduled:       6,
	StagePendingFollowup: 6,
	StageCompleted:       6,
}

// transitions lists every edge of the stage DAG (self loops are implicit).
var transitions = map[Stage][]Stage{
	StageGreeting:       {StageAskName, StageCompleted, StagePendingFollowup},
	StageAskName:        {StageAskAddress, StageConfirmAddress, StageCompleted, StagePendingFollowup},
	StageAskAddress:     {StageConfirmAddress, StageAskProblem, StageCompleted, StagePendingFollowup},
	StageConfirmAddress: {StageAskAddress, StageAskProblem, StageCompleted, StagePendingFollowup},
	StageAskProblem:     {StageAskSchedule, StageCompleted, StagePendingFollowup},
	StageAskSchedule:    {StageConfirmSlot, StagePendingFollowup, StageCompleted},
	StageConfirmSlot:    {StageScheduled, StagePendingFollowup, StageCompleted},
}

func (s Stage) Valid() bool {
	_, ok := stageRank[s]
	return ok
}

func (s Stage) Terminal() bool {
	return s == StageScheduled || s == StagePendingFollowup || s == StageCompleted
}

// AtLeast reports whether s is at or beyond other in the dialogue order.
func (s Stage) AtLeast(other Stage) bool {
	return stageRank[s] >= stageRank[other]
}

// CanTransition reports whether from -> to is an edge of the stage graph.
func CanTransition(from, to Stage) bool {
	if from == to {
		return from.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

/* -------------------------- Session helpers ------------------------- */

var (
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrUnknownStage      = errors.New("unknown stage")
	ErrSlotBeforeConfirm = errors.New("proposed slot set before CONFIRM_SLOT")
	ErrMissingBusiness   = errors.New("business id is empty")
)

func NewSession(id, businessID, callerPhone, leadSource string, now time.Time) *Session {
	return &Session{
		ID:             id,
		BusinessID:     businessID,
		CallerPhone:    strings.TrimSpace(callerPhone),
		LeadSource:     leadSource,
		Stage:          StageGreeting,
		Status:         StatusInProgress,
		CreatedAt:      now.UTC(),
		LastActivityAt: now.UTC(),
	}
}

func (s *Session) Touch(now time.Time) {
	s.LastActivityAt = now.UTC()
}

// Advance moves the session to the next stage, rejecting edges outside the DAG.
// Leaving the slot-bearing stages clears ProposedSlot unless the booking completed.
func (s *Session) Advance(to Stage) error {
	if s == nil {
		return errors.New("nil session")
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownStage, to)
	}
	if !CanTransition(s.Stage, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Stage, to)
	}
	s.Stage = to
	if !to.AtLeast(StageConfirmSlot) {
		s.ProposedSlot = nil
	}
	switch to {
	case StageScheduled:
		s.Status = StatusScheduled
	case StagePendingFollowup:
		s.Status = StatusPendingFollowup
		s.ProposedSlot = nil
	case StageCompleted:
		s.Status = StatusCompleted
		s.ProposedSlot = nil
	}
	return nil
}

// End closes the dialogue. A session that already reached a terminal stage keeps its outcome.
func (s *Session) End(now time.Time) {
	if !s.Stage.Terminal() {
		s.Stage = StageCompleted
		s.Status = StatusCompleted
		s.ProposedSlot = nil
	}
	s.Touch(now)
}

// MarkEmergency raises the emergency flag. Confidence only grows and reasons only accumulate.
func (s *Session) MarkEmergency(confidence float64, reasons ...string) {
	s.IsEmergency = true
	if confidence > s.EmergencyConfidence {
		s.EmergencyConfidence = clamp01(confidence)
	}
	s.AddEmergencyReasons(reasons...)
}

// ClearEmergency is the only path that lowers IsEmergency and requires an explicit caller correction.
func (s *Session) ClearEmergency(reason string) {
	if !s.IsEmergency {
		return
	}
	s.IsEmergency = false
	s.EmergencyConfidence = 0
	s.EmergencyConfirmationPending = false
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "caller_correction"
	}
	s.AddEmergencyReasons(reason)
}

func (s *Session) AddEmergencyReasons(reasons ...string) {
	for _, r := range reasons {
		r = strings.TrimSpace(r)
		if r == "" || s.HasEmergencyReason(r) {
			continue
		}
		s.EmergencyReasons = append(s.EmergencyReasons, r)
	}
}

func (s *Session) HasEmergencyReason(reason string) bool {
	for _, r := range s.EmergencyReasons {
		if r == reason {
			return true
		}
	}
	return false
}

func (s *Session) AppendTranscript(utterance string) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return
	}
	s.Transcript = append(s.Transcript, utterance)
}

// Validate checks the structural invariants of a loaded or about-to-be-saved session.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	if strings.TrimSpace(s.BusinessID) == "" {
		return ErrMissingBusiness
	}
	if !s.Stage.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, s.Stage)
	}
	if s.ProposedSlot != nil && !s.Stage.AtLeast(StageConfirmSlot) {
		return fmt.Errorf("%w: stage=%s", ErrSlotBeforeConfirm, s.Stage)
	}
	if s.EmergencyConfidence < 0 || s.EmergencyConfidence > 1 {
		return fmt.Errorf("emergency confidence out of range: %v", s.EmergencyConfidence)
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
