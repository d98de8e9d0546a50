package contract

import (
	"strings"
	"time"

	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

type SlotQuery struct {
	DurationMinutes int       `json:"duration_minutes"`
	CalendarID      string    `json:"calendar_id"`
	BusinessID      string    `json:"business_id"`
	IsEmergency     bool      `json:"is_emergency"`
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
}

type Availability struct {
	Candidates []statex.TimeSlot `json:"candidates,omitempty"`
	Busy       []statex.TimeSlot `json:"busy,omitempty"`
}

type EventRequest struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Slot        statex.TimeSlot `json:"slot"`
	CalendarID  string          `json:"calendar_id"`
	BusinessID  string          `json:"business_id"`
}

type Customer struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email,omitempty"`
	Address    string    `json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Appointment struct {
	ID              string    `json:"id"`
	BusinessID      string    `json:"business_id"`
	CustomerID      string    `json:"customer_id"`
	SessionID       string    `json:"session_id"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	ServiceType     string    `json:"service_type"`
	Description     string    `json:"description"`
	IsEmergency     bool      `json:"is_emergency"`
	LeadSource      string    `json:"lead_source,omitempty"`
	EstimatedLow    *float64  `json:"estimated_low,omitempty"`
	EstimatedHigh   *float64  `json:"estimated_high,omitempty"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// Tenant is the per-business configuration read (never written) during a turn.
type Tenant struct {
	ID                    string  `json:"id" mapstructure:"id"`
	Name                  string  `json:"name" mapstructure:"name"`
	CalendarID            string  `json:"calendar_id" mapstructure:"calendar_id"`
	Timezone              string  `json:"timezone" mapstructure:"timezone"`
	EmergencyKeywords     string  `json:"emergency_keywords" mapstructure:"emergency_keywords"`
	ServiceDurationConfig string  `json:"service_duration_config" mapstructure:"service_duration_config"`
	TravelBufferMinutes   int     `json:"travel_buffer_minutes" mapstructure:"travel_buffer_minutes"`
	ReserveMornings       bool    `json:"reserve_mornings_for_emergencies" mapstructure:"reserve_mornings_for_emergencies"`
	IntentThreshold       float64 `json:"intent_threshold" mapstructure:"intent_threshold"`
	OpenHour              int     `json:"open_hour" mapstructure:"open_hour"`
	CloseHour             int     `json:"close_hour" mapstructure:"close_hour"`
}

const (
	DefaultIntentThreshold = 0.65
	DefaultOpenHour        = 8
	DefaultCloseHour       = 17
)

// DefaultTenant is used for businesses the directory does not know.
func DefaultTenant(businessID string) Tenant {
	return Tenant{
		ID:              businessID,
		Name:            "our team",
		IntentThreshold: DefaultIntentThreshold,
		OpenHour:        DefaultOpenHour,
		CloseHour:       DefaultCloseHour,
	}
}

// Location resolves the tenant timezone, defaulting to UTC.
func (t Tenant) Location() *time.Location {
	if tz := strings.TrimSpace(t.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Hours returns open and close hours with defaults applied.
func (t Tenant) Hours() (int, int) {
	open, closing := t.OpenHour, t.CloseHour
	if open <= 0 || open > 23 {
		open = DefaultOpenHour
	}
	if closing <= open || closing > 24 {
		closing = DefaultCloseHour
	}
	return open, closing
}

func (t Tenant) Threshold() float64 {
	if t.IntentThreshold <= 0 || t.IntentThreshold > 1 {
		return DefaultIntentThreshold
	}
	return t.IntentThreshold
}

func (t Tenant) DisplayName() string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return "our team"
}

// TurnOutcome is the structured result of one turn, consumed by observers.
type TurnOutcome struct {
	SessionID      string           `json:"session_id"`
	BusinessID     string           `json:"business_id"`
	CallerPhone    string           `json:"caller_phone"`
	Channel        string           `json:"channel,omitempty"`
	FromStage      statex.Stage     `json:"from_stage"`
	ToStage        statex.Stage     `json:"to_stage"`
	Status         statex.Status    `json:"status"`
	Intent         string           `json:"intent,omitempty"`
	IntentProvider string           `json:"intent_provider,omitempty"`
	IsEmergency    bool             `json:"is_emergency"`
	NoInput        bool             `json:"no_input"`
	Reprompted     bool             `json:"reprompted"`
	SlotSource     string           `json:"slot_source,omitempty"`
	Slot           *statex.TimeSlot `json:"slot,omitempty"`
	NewSession     bool             `json:"new_session"`
	Duration       time.Duration    `json:"duration"`
	At             time.Time        `json:"at"`
}

func (o TurnOutcome) Terminal() bool {
	return o.ToStage.Terminal()
}

const (
	SlotSourceCalendar  = "calendar"
	SlotSourceGenerated = "generated"
	SlotSourceFallback  = "fallback"
)
