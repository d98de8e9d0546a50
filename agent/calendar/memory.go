package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

var ErrSlotTaken = errors.New("calendar slot already booked")

const defaultCalendarID = "primary"

type event struct {
	id      string
	summary string
	slot    statex.TimeSlot
}

// Memory is a process-local calendar. It reports existing events as busy ranges and leaves
// candidate generation to the caller.
type Memory struct {
	mu     sync.RWMutex
	events map[string][]event
}

func NewMemory() *Memory {
	return &Memory{events: make(map[string][]event)}
}

func (m *Memory) FindSlots(ctx context.Context, q contractx.SlotQuery) (contractx.Availability, error) {
	if err := ctx.Err(); err != nil {
		return contractx.Availability{}, fmt.Errorf("%w: %v", contractx.ErrCalendarUnavailable, err)
	}
	window := statex.TimeSlot{Start: q.From, End: q.To}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var busy []statex.TimeSlot
	for _, ev := range m.events[calendarKey(q.BusinessID, q.CalendarID)] {
		if window.IsZero() || q.To.IsZero() || ev.slot.Overlaps(window) {
			busy = append(busy, ev.slot)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return contractx.Availability{Busy: busy}, nil
}

// CreateEvent books the slot, refusing double bookings on the same calendar.
func (m *Memory) CreateEvent(ctx context.Context, req contractx.EventRequest) (string, error) {
	if !req.Slot.End.After(req.Slot.Start) {
		return "", fmt.Errorf("%w: event needs a start before its end", contractx.ErrValidation)
	}
	key := calendarKey(req.BusinessID, req.CalendarID)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ev := range m.events[key] {
		if ev.slot.Overlaps(req.Slot) {
			return "", fmt.Errorf("%w: overlaps %s", ErrSlotTaken, ev.id)
		}
	}
	id := uuid.NewString()
	m.events[key] = append(m.events[key], event{id: id, summary: req.Summary, slot: req.Slot})
	return id, nil
}

// Block marks a range busy without a booking, e.g. for seeding or tests.
func (m *Memory) Block(businessID, calendarID string, slot statex.TimeSlot) {
	key := calendarKey(businessID, calendarID)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[key] = append(m.events[key], event{id: uuid.NewString(), summary: "blocked", slot: slot})
}

func calendarKey(businessID, calendarID string) string {
	calendarID = strings.TrimSpace(calendarID)
	if calendarID == "" {
		calendarID = defaultCalendarID
	}
	return strings.TrimSpace(businessID) + "/" + calendarID
}
