package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/conversation"
	nodex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/nodes/orchestrator"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

type (
	Request  = nodex.GraphInput
	Response = nodex.GraphOutput
)

// Orchestrator runs one caller turn end to end: load, classify and advance, save, observe.
type Orchestrator struct {
	store    statex.Store
	manager  *conversation.Manager
	tenants  contractx.TenantDirectory
	observer contractx.Observer

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

type Option func(*Orchestrator)

func WithTenants(tenants contractx.TenantDirectory) Option {
	return func(o *Orchestrator) { o.tenants = tenants }
}

func WithObserver(observer contractx.Observer) Option {
	return func(o *Orchestrator) { o.observer = observer }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(store statex.Store, manager *conversation.Manager, opts ...Option) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if manager == nil {
		return nil, errors.New("conversation manager is required")
	}

	o := &Orchestrator{
		store:   store,
		manager: manager,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	graphRunner, err := o.compileHandleInputGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

func (o *Orchestrator) HandleInput(ctx context.Context, req Request) (Response, error) {
	return o.graphRunner.Invoke(ctx, req)
}

// EndSession closes a dialogue out of band, e.g. when the provider reports a hangup.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID string) error {
	return o.store.End(context.WithoutCancel(ctx), sessionID)
}
