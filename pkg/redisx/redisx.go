package redisx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	URL         string        `envconfig:"URL" split_words:"true"`
	PingTimeout time.Duration `split_words:"true" default:"3s"`
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// Connect parses a redis:// or rediss:// URL and pings the server before returning the client.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil, errors.New("redis url is required")
	}

	opts, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
