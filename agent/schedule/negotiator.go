package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
	timeoutx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/timeout"
)

const (
	defaultHorizonDays = 7
	defaultDuration    = 60 * time.Minute
	slotStep           = 60 * time.Minute
	noonHour           = 12
	fallbackHour       = 9
	fallbackLateHour   = 13
)

// Proposal is the slot offered to the caller and where it came from.
type Proposal struct {
	Slot   statex.TimeSlot
	Source string
}

// Negotiator picks the slot to offer. It never fails: calendar trouble yields a synthetic slot.
type Negotiator struct {
	calendar    contractx.Calendar
	now         func() time.Time
	timeout     time.Duration
	horizonDays int
}

type Option func(*Negotiator)

func WithClock(now func() time.Time) Option {
	return func(n *Negotiator) {
		if now != nil {
			n.now = now
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(n *Negotiator) {
		if d > 0 {
			n.timeout = d
		}
	}
}

func WithHorizonDays(days int) Option {
	return func(n *Negotiator) {
		if days > 0 {
			n.horizonDays = days
		}
	}
}

func NewNegotiator(calendar contractx.Calendar, opts ...Option) *Negotiator {
	n := &Negotiator{
		calendar:    calendar,
		now:         time.Now,
		timeout:     timeoutx.CalendarTimeout,
		horizonDays: defaultHorizonDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// ProposeSlot returns the earliest acceptable slot for the session's job.
func (n *Negotiator) ProposeSlot(ctx context.Context, sess *statex.Session, tenant contractx.Tenant) Proposal {
	loc := tenant.Location()
	now := n.now().In(loc)
	duration := jobDuration(sess)

	if n.calendar == nil {
		return n.fallback(now, sess, tenant)
	}

	query := contractx.SlotQuery{
		DurationMinutes: int(duration / time.Minute),
		CalendarID:      tenant.CalendarID,
		BusinessID:      sess.BusinessID,
		IsEmergency:     sess.IsEmergency,
		From:            now,
		To:              now.AddDate(0, 0, n.horizonDays),
	}

	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	avail, err := n.calendar.FindSlots(callCtx, query)
	if err != nil {
		log.Warn().Err(err).
			Str("session_id", sess.ID).
			Str("business_id", sess.BusinessID).
			Msg("calendar lookup failed, proposing fallback slot")
		return n.fallback(now, sess, tenant)
	}

	buffer := time.Duration(max(tenant.TravelBufferMinutes, 0)) * time.Minute
	busy := widen(avail.Busy, buffer)

	policy := slotPolicy{
		now:             now,
		loc:             loc,
		busy:            busy,
		rejected:        sess.RejectedSlots,
		emergency:       sess.IsEmergency,
		reserveMornings: tenant.ReserveMornings,
	}
	if slot, ok := policy.first(normalize(avail.Candidates, duration)); ok {
		return Proposal{Slot: slot, Source: contractx.SlotSourceCalendar}
	}

	open, closing := tenant.Hours()
	if slot, ok := policy.first(gapWalk(now, n.horizonDays, open, closing, duration, busy)); ok {
		return Proposal{Slot: slot, Source: contractx.SlotSourceGenerated}
	}

	log.Warn().
		Str("session_id", sess.ID).
		Str("business_id", sess.BusinessID).
		Int("busy", len(busy)).
		Msg("no open slot in horizon, proposing fallback slot after busy ranges")
	p := n.fallback(now, sess, tenant)
	p.Slot = clearOf(p.Slot, busy, fallbackStartHour(sess, tenant), closing)
	return p
}

type slotPolicy struct {
	now             time.Time
	loc             *time.Location
	busy            []statex.TimeSlot
	rejected        []statex.TimeSlot
	emergency       bool
	reserveMornings bool
}

func (p slotPolicy) first(candidates []statex.TimeSlot) (statex.TimeSlot, bool) {
	for _, c := range candidates {
		if p.accepts(c) {
			return c, true
		}
	}
	return statex.TimeSlot{}, false
}

func (p slotPolicy) accepts(slot statex.TimeSlot) bool {
	start := slot.Start.In(p.loc)
	if start.Before(p.now) {
		return false
	}
	// Routine jobs start tomorrow at the earliest; emergencies may take today.
	if !p.emergency && sameDay(start, p.now) {
		return false
	}
	if p.reserveMornings && !p.emergency && start.Hour() < noonHour {
		return false
	}
	for _, r := range p.rejected {
		if r.Start.Equal(slot.Start) {
			return false
		}
	}
	for _, b := range p.busy {
		if slot.Overlaps(b) {
			return false
		}
	}
	return true
}

// fallback builds a slot on the next business day, one further business day per rejected slot.
func (n *Negotiator) fallback(now time.Time, sess *statex.Session, tenant contractx.Tenant) Proposal {
	hour := fallbackStartHour(sess, tenant)
	day := nextBusinessDay(now)
	for range sess.RejectedSlots {
		day = nextBusinessDay(day)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, now.Location())
	return Proposal{
		Slot:   statex.TimeSlot{Start: start, End: start.Add(jobDuration(sess))},
		Source: contractx.SlotSourceFallback,
	}
}

func fallbackStartHour(sess *statex.Session, tenant contractx.Tenant) int {
	if tenant.ReserveMornings && !sess.IsEmergency {
		return fallbackLateHour
	}
	return fallbackHour
}

// clearOf pushes a synthetic slot past every busy range, keeping it on a business day at or
// after dayHour. A slot that would run past closing moves to the next business day; the first
// slot of a day is kept even when the job is longer than the day.
func clearOf(slot statex.TimeSlot, busy []statex.TimeSlot, dayHour, closeHour int) statex.TimeSlot {
	duration := slot.End.Sub(slot.Start)
	at := func(t time.Time, hour int) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
	}

	for {
		start := slot.Start
		dayStart := at(start, dayHour)
		switch {
		case !isBusinessDay(start):
			start = at(nextBusinessDay(start), dayHour)
		case start.Before(dayStart):
			start = dayStart
		case start.After(dayStart) && start.Add(duration).After(at(start, closeHour)):
			start = at(nextBusinessDay(start), dayHour)
		default:
			for _, b := range busy {
				if slot.Overlaps(b) {
					start = b.End
					break
				}
			}
		}
		if start.Equal(slot.Start) {
			return slot
		}
		slot = statex.TimeSlot{Start: start, End: start.Add(duration)}
	}
}

// gapWalk generates candidates inside business hours around sorted busy ranges.
func gapWalk(now time.Time, days, openHour, closeHour int, duration time.Duration, busy []statex.TimeSlot) []statex.TimeSlot {
	sorted := append([]statex.TimeSlot(nil), busy...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	var out []statex.TimeSlot
	for d := 0; d < days; d++ {
		day := now.AddDate(0, 0, d)
		if !isBusinessDay(day) {
			continue
		}
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), openHour, 0, 0, 0, now.Location())
		dayEnd := time.Date(day.Year(), day.Month(), day.Day(), closeHour, 0, 0, 0, now.Location())

		current := dayStart
		if now.After(current) {
			current = now.Truncate(slotStep).Add(slotStep)
		}

		for _, b := range sorted {
			if !b.End.After(current) || !b.Start.Before(dayEnd) {
				continue
			}
			out = appendSlots(out, current, minTime(b.Start, dayEnd), duration)
			if b.End.After(current) {
				current = b.End
			}
		}
		out = appendSlots(out, current, dayEnd, duration)
	}
	return out
}

func appendSlots(out []statex.TimeSlot, from, until time.Time, duration time.Duration) []statex.TimeSlot {
	for t := from; !t.Add(duration).After(until); t = t.Add(slotStep) {
		out = append(out, statex.TimeSlot{Start: t, End: t.Add(duration)})
	}
	return out
}

// normalize sizes calendar candidates to the job duration and orders them by start.
func normalize(candidates []statex.TimeSlot, duration time.Duration) []statex.TimeSlot {
	out := make([]statex.TimeSlot, 0, len(candidates))
	for _, c := range candidates {
		if c.Start.IsZero() {
			continue
		}
		out = append(out, statex.TimeSlot{Start: c.Start, End: c.Start.Add(duration)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

func widen(busy []statex.TimeSlot, buffer time.Duration) []statex.TimeSlot {
	out := make([]statex.TimeSlot, 0, len(busy))
	for _, b := range busy {
		out = append(out, statex.TimeSlot{Start: b.Start.Add(-buffer), End: b.End.Add(buffer)})
	}
	return out
}

func jobDuration(sess *statex.Session) time.Duration {
	if sess.DurationMinutes <= 0 {
		return defaultDuration
	}
	return time.Duration(sess.DurationMinutes) * time.Minute
}

func nextBusinessDay(t time.Time) time.Time {
	next := t.AddDate(0, 0, 1)
	for !isBusinessDay(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
