package natsx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

type Config struct {
	URL           string        `envconfig:"URL"`
	Token         string        `split_words:"true"`
	Stream        string        `split_words:"true" default:"PLUMBING_TURNS"`
	SubjectPrefix string        `split_words:"true" default:"plumbing.turns"`
	MaxAge        time.Duration `split_words:"true" default:"720h"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// Client holds the NATS connection and its JetStream context.
type Client struct {
	conn *nats.Conn
	js   jetstream.JetStream
	cfg  Config
}

func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("natsx: url is empty")
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("natsx: connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("natsx: jetstream: %w", err)
	}

	c := &Client{conn: nc, js: js, cfg: cfg}
	if err := c.EnsureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

// EnsureStream creates the turn stream when it does not exist yet.
func (c *Client) EnsureStream(ctx context.Context) error {
	if _, err := c.js.Stream(ctx, c.cfg.Stream); err == nil {
		return nil
	}

	_, err := c.js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        c.cfg.Stream,
		Subjects:    []string{c.cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      c.cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Per-turn booking dialogue outcomes",
	})
	if err != nil {
		return fmt.Errorf("natsx: create stream %s: %w", c.cfg.Stream, err)
	}
	return nil
}

func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

func (c *Client) SubjectPrefix() string {
	return c.cfg.SubjectPrefix
}

func (c *Client) Close() {
	if c != nil && c.conn != nil {
		c.conn.Close()
	}
}
