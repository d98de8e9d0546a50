package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	redisx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/pkg/redisx"
)

const (
	BackendAuto    = "auto"
	BackendLocal   = "local"
	BackendRedis   = "redis"
	BackendUpstash = "upstash"
)

type StoreConfig struct {
	Backend       string        `split_words:"true" default:"auto"`
	TTL           time.Duration `envconfig:"TTL" default:"24h"`
	KeyPrefix     string        `split_words:"true" default:"plumbing:session"`
	SweepInterval time.Duration `split_words:"true" default:"1m"`
}

// OpenStore picks the session backend once at startup. In auto mode Redis wins when
// configured and reachable, then Upstash REST, then the local map. The returned closer
// releases any network client.
func OpenStore(
	ctx context.Context,
	cfg StoreConfig,
	redisCfg redisx.Config,
	upstashCfg UpstashRedisConfig,
	opts ...StoreOption,
) (Store, func(), error) {
	opts = append([]StoreOption{WithTTL(cfg.TTL), WithKeyPrefix(cfg.KeyPrefix)}, opts...)
	noop := func() {}

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendAuto
	}

	switch backend {
	case BackendLocal:
		return NewLocalStore(opts...), noop, nil

	case BackendRedis:
		client, err := redisx.Connect(ctx, redisCfg)
		if err != nil {
			return nil, noop, err
		}
		st, err := NewRedisStore(client, opts...)
		if err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return st, func() { _ = client.Close() }, nil

	case BackendUpstash:
		st, err := NewUpstashRedisStore(upstashCfg, opts...)
		if err != nil {
			return nil, noop, err
		}
		return st, noop, nil

	case BackendAuto:
		if redisCfg.Enabled() {
			client, err := redisx.Connect(ctx, redisCfg)
			if err == nil {
				var st *RedisStore
				st, err = NewRedisStore(client, opts...)
				if err == nil {
					log.Info().Str("backend", BackendRedis).Msg("session store selected")
					return st, func() { _ = client.Close() }, nil
				}
				_ = client.Close()
			}
			log.Warn().Err(err).Msg("redis session store unavailable, trying next backend")
		}
		if upstashCfg.Enabled() {
			st, err := NewUpstashRedisStore(upstashCfg, opts...)
			if err == nil {
				log.Info().Str("backend", BackendUpstash).Msg("session store selected")
				return st, noop, nil
			}
			log.Warn().Err(err).Msg("upstash session store unavailable, falling back to local")
		}
		log.Info().Str("backend", BackendLocal).Msg("session store selected")
		return NewLocalStore(opts...), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
