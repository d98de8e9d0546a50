package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/agents/orchestrator"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/calendar"
	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/conversation"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/llm"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/observer"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/repository"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/transport"
	configx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/config"
	natsx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/natsx"
	postgresx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/postgres"
	qstashx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/qstash"
	redisx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/redisx"
)

type AppConfig struct {
	TenantsFile    string        `split_words:"true"`
	ObserverBuffer int           `split_words:"true" default:"1024"`
	FollowupDelay  time.Duration `split_words:"true" default:"15m"`
}

// app is the fully wired service. closers run in reverse order on shutdown.
type app struct {
	orch      *orchestrator.Orchestrator
	store     statex.Store
	tenants   contractx.TenantDirectory
	registry  *prometheus.Registry
	followups *qstashx.Client
	index     transport.SessionIndex

	sweepInterval time.Duration
	closers       []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, httpCfg transport.Config) (*app, error) {
	appCfg, err := configx.New[AppConfig]("APP")
	if err != nil {
		return nil, err
	}
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	// Session store
	storeCfg, err := configx.New[statex.StoreConfig]("SESSION")
	if err != nil {
		return nil, err
	}
	redisCfg, err := configx.New[redisx.Config]("REDIS")
	if err != nil {
		return nil, err
	}
	upstashCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	if err != nil {
		return nil, err
	}
	store, closeStore, err := statex.OpenStore(ctx, *storeCfg, *redisCfg, *upstashCfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.sweepInterval = storeCfg.SweepInterval
	a.closers = append(a.closers, closeStore)

	a.index = transport.NewMemoryIndex(storeCfg.TTL)
	if redisCfg.Enabled() {
		if client, err := redisx.Connect(ctx, *redisCfg); err == nil {
			a.index = transport.NewRedisIndex(client, storeCfg.KeyPrefix+":index", storeCfg.TTL)
			a.closers = append(a.closers, func() { _ = client.Close() })
		} else {
			log.Warn().Err(err).Msg("redis session index unavailable, using local index")
		}
	}

	// Business records
	var (
		customers    contractx.CustomerRepository    = repository.NewMemoryCustomers()
		appointments contractx.AppointmentRepository = repository.NewMemoryAppointments()
		tenants      contractx.TenantDirectory       = repository.NewStaticTenants()
	)
	pgCfg, err := configx.New[postgresx.Config]("POSTGRES")
	if err != nil {
		return nil, err
	}
	if pgCfg.Enabled() {
		db, err := postgresx.Open(ctx, *pgCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		if err := repository.Migrate(ctx, db); err != nil {
			return nil, err
		}
		customers = repository.NewPostgresCustomers(db)
		appointments = repository.NewPostgresAppointments(db)
		tenants = repository.NewPostgresTenants(db)
		log.Info().Msg("business records backed by postgres")
	}
	if appCfg.TenantsFile != "" {
		fileTenants, err := repository.LoadTenantFile(appCfg.TenantsFile)
		if err != nil {
			return nil, err
		}
		tenants = fileTenants
	}
	a.tenants = tenants

	// Intent model
	llmCfg, err := configx.New[llm.Config]("INTENT_MODEL")
	if err != nil {
		return nil, err
	}
	intentModel, err := llm.New(ctx, *llmCfg)
	if err != nil {
		return nil, err
	}
	if intentModel != nil {
		log.Info().Str("provider", intentModel.Name()).Msg("intent model enabled")
	}

	manager := conversation.NewManager(
		conversation.WithCustomers(customers),
		conversation.WithAppointments(appointments),
		conversation.WithCalendar(calendar.NewMemory()),
		conversation.WithIntentModel(intentModel),
	)

	// Observers
	observers := observer.Fanout{
		observer.NewLog(nil),
		observer.NewMetrics(a.registry),
	}
	var remote observer.Fanout

	natsCfg, err := configx.New[natsx.Config]("NATS")
	if err != nil {
		return nil, err
	}
	if natsCfg.Enabled() {
		nc, err := natsx.Connect(ctx, *natsCfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, nc.Close)
		remote = append(remote, observer.NewNATS(nc.JetStream(), nc.SubjectPrefix()))
	}

	qstashCfg, err := configx.New[qstashx.Config]("QSTASH")
	if err != nil {
		return nil, err
	}
	if qstashCfg.Enabled() {
		a.followups, err = qstashx.NewClient(*qstashCfg)
		if err != nil {
			return nil, err
		}
		if dest := httpCfg.FollowupURL(); dest != "" {
			remote = append(remote, observer.NewFollowup(a.followups, dest, appCfg.FollowupDelay))
		} else {
			log.Warn().Msg("PUBLIC_URL not set, follow-ups will not be queued")
		}
	}

	if len(remote) > 0 {
		async := observer.NewAsync(remote, appCfg.ObserverBuffer)
		a.closers = append(a.closers, func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := async.Close(drainCtx); err != nil {
				log.Warn().Err(err).Msg("observer queue not drained")
			}
		})
		observers = append(observers, async)
	}

	a.orch, err = orchestrator.New(store, manager,
		orchestrator.WithTenants(tenants),
		orchestrator.WithObserver(observers),
	)
	if err != nil {
		return nil, err
	}

	ok = true
	return a, nil
}
