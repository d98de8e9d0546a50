package contract

import "context"

// Calendar is the scheduling provider. FindSlots may return candidate slots, busy ranges or both.
type Calendar interface {
	FindSlots(ctx context.Context, q SlotQuery) (Availability, error)
	CreateEvent(ctx context.Context, ev EventRequest) (string, error)
}

type CustomerRepository interface {
	// GetByPhone returns ErrNotFound when the caller is unknown to the business.
	GetByPhone(ctx context.Context, phone, businessID string) (*Customer, error)
	Upsert(ctx context.Context, c Customer) (*Customer, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a Appointment) (*Appointment, error)
}

type TenantDirectory interface {
	// Tenant returns ErrUnknownTenant for ids it does not know.
	Tenant(ctx context.Context, businessID string) (Tenant, error)
}

// IntentModel is a single-shot text completion used to refine low-confidence intents.
type IntentModel interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Observer receives one outcome per processed turn. Implementations must not block the turn.
type Observer interface {
	Observe(ctx context.Context, out TurnOutcome)
}

type Notifier interface {
	SendSMS(ctx context.Context, to, body string) error
}
