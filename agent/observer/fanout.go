package observer

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

// Fanout delivers each outcome to every observer in order. A panicking observer is logged
// and skipped.
type Fanout []contractx.Observer

func (f Fanout) Observe(ctx context.Context, out contractx.TurnOutcome) {
	for _, o := range f {
		if o == nil {
			continue
		}
		observeSafely(ctx, o, out)
	}
}

func observeSafely(ctx context.Context, o contractx.Observer, out contractx.TurnOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("session_id", out.SessionID).Msg("observer panicked")
		}
	}()
	o.Observe(ctx, out)
}

// Async hands outcomes to a background worker so network observers never hold up a turn.
// Outcomes are dropped with a warning when the buffer is full.
type Async struct {
	next  contractx.Observer
	queue chan contractx.TurnOutcome
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(next contractx.Observer, buffer int) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	a := &Async{
		next:  next,
		queue: make(chan contractx.TurnOutcome, buffer),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Observe(_ context.Context, out contractx.TurnOutcome) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		log.Warn().Str("session_id", out.SessionID).Msg("observer closed, dropping outcome")
		return
	}
	select {
	case a.queue <- out:
	default:
		log.Warn().Str("session_id", out.SessionID).Msg("observer queue full, dropping outcome")
	}
}

func (a *Async) run() {
	defer close(a.done)
	for out := range a.queue {
		observeSafely(context.Background(), a.next, out)
	}
}

// Close drains queued outcomes and stops the worker. Later outcomes are dropped.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
