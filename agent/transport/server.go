package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/agents/orchestrator"
	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
	promptx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/prompt"
	statex "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/state"
)

const maxBodyBytes = 64 << 10

type Config struct {
	Addr           string        `default:":8080"`
	PublicURL      string        `envconfig:"PUBLIC_URL"`
	RateLimit      int           `split_words:"true" default:"120"`
	RateWindow     time.Duration `split_words:"true" default:"1m"`
	AllowedOrigins []string      `split_words:"true" default:"*"`
	ReadTimeout    time.Duration `split_words:"true" default:"15s"`
	WriteTimeout   time.Duration `split_words:"true" default:"30s"`
}

// FollowupURL is the public address QStash delivers follow-up tasks to.
func (c Config) FollowupURL() string {
	base := strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	if base == "" {
		return ""
	}
	return base + followupPath
}

// TurnHandler runs caller turns.
type TurnHandler interface {
	HandleInput(ctx context.Context, req orchestrator.Request) (orchestrator.Response, error)
	EndSession(ctx context.Context, sessionID string) error
}

// SignatureVerifier authenticates queued deliveries.
type SignatureVerifier interface {
	Verify(signature string, body []byte, destination string) error
}

type SessionReader interface {
	Get(ctx context.Context, id string) (*statex.Session, error)
}

type Server struct {
	cfg      Config
	turns    TurnHandler
	index    SessionIndex
	sessions SessionReader
	tenants  contractx.TenantDirectory
	notifier contractx.Notifier
	verifier SignatureVerifier
	gatherer prometheus.Gatherer
	prompts  promptx.PromptSet
}

type Option func(*Server)

func WithSessionIndex(index SessionIndex) Option {
	return func(s *Server) {
		if index != nil {
			s.index = index
		}
	}
}

func WithSessions(sessions SessionReader) Option {
	return func(s *Server) { s.sessions = sessions }
}

func WithTenants(tenants contractx.TenantDirectory) Option {
	return func(s *Server) { s.tenants = tenants }
}

// WithFollowups mounts the signed follow-up webhook.
func WithFollowups(verifier SignatureVerifier, notifier contractx.Notifier) Option {
	return func(s *Server) {
		s.verifier = verifier
		s.notifier = notifier
	}
}

func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		if g != nil {
			s.gatherer = g
		}
	}
}

func New(turns TurnHandler, cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		turns:    turns,
		index:    NewMemoryIndex(0),
		gatherer: prometheus.DefaultGatherer,
		prompts:  promptx.LoadPromptSet(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/businesses/{businessID}", func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Post("/turns", s.handleTurn)
	})

	r.Route("/twilio/{businessID}", func(r chi.Router) {
		r.Use(s.rateLimit())
		r.Post("/sms", s.handleSMS)
		r.Post("/voice", s.handleVoice)
		r.Post("/status", s.handleCallStatus)
	})

	if s.verifier != nil && s.notifier != nil {
		r.Post(followupPath, s.handleFollowup)
	}

	return r
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	limit := s.cfg.RateLimit
	if limit <= 0 {
		limit = 120
	}
	window := s.cfg.RateWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if biz := chi.URLParam(r, "businessID"); biz != "" {
				return "business:" + biz, nil
			}
			return "ip:" + r.RemoteAddr, nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, statex.ErrMissingBusiness), errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
