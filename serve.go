package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/notify"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/transport"
	configx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP turn API and telephony webhooks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	httpCfg, err := configx.New[transport.Config]("HTTP")
	if err != nil {
		return err
	}
	notifyCfg, err := configx.New[notify.Config]("TWILIO")
	if err != nil {
		return err
	}

	a, err := buildApp(ctx, *httpCfg)
	if err != nil {
		return err
	}
	defer a.close()

	opts := []transport.Option{
		transport.WithSessionIndex(a.index),
		transport.WithSessions(a.store),
		transport.WithTenants(a.tenants),
		transport.WithGatherer(a.registry),
	}
	if a.followups != nil {
		opts = append(opts, transport.WithFollowups(a.followups, notify.New(*notifyCfg)))
	}
	server := &http.Server{
		Addr:         httpCfg.Addr,
		Handler:      transport.New(a.orch, *httpCfg, opts...).Router(),
		ReadTimeout:  httpCfg.ReadTimeout,
		WriteTimeout: httpCfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if local, ok := a.store.(*statex.LocalStore); ok {
		g.Go(func() error {
			return local.Run(gctx, a.sweepInterval)
		})
	}

	return g.Wait()
}
