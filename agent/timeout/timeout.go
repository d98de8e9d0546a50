// Package timeout holds the bounded waits applied to collaborator calls during a turn.
package timeout

import "time"

const (
	// CalendarTimeout bounds availability lookups; on expiry the negotiator uses a fallback slot.
	CalendarTimeout = 5 * time.Second

	// BookingTimeout bounds event creation and appointment persistence on confirmation.
	BookingTimeout = 8 * time.Second

	// IntentModelTimeout bounds the model-assisted intent call before the heuristic wins.
	IntentModelTimeout = 6 * time.Second

	// LookupTimeout bounds customer and tenant lookups.
	LookupTimeout = 3 * time.Second

	// StoreTimeout bounds a single session load or save.
	StoreTimeout = 5 * time.Second

	// ObserverTimeout bounds outcome publishing after the reply is ready.
	ObserverTimeout = 3 * time.Second
)
