package state

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

var (
	ErrStateNotFound   = errors.New("session state not found")
	ErrNilSessionState = errors.New("session state is nil")
	ErrInvalidSession  = errors.New("session id is empty")
	ErrCorruptState    = errors.New("session payload is corrupt")
)

const (
	defaultStoreKeyPrefix = "plumbing:session"
	defaultStoreTTL       = 24 * time.Hour
	maxResponseSizeBytes  = 2 << 20
)

// Store is the persistence contract used by the orchestrator.
// Get never surfaces decode failures: a corrupt record reads as ErrStateNotFound.
// Save is an unconditional overwrite; concurrent turns on one session are last-write-wins.
type Store interface {
	Create(ctx context.Context, callerPhone, businessID, leadSource string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	End(ctx context.Context, id string) error
}

// StoreOption customizes any Store backend.
type StoreOption func(*storeOptions)

type storeOptions struct {
	keyPrefix  string
	ttl        time.Duration
	httpClient *http.Client
	now        func() time.Time
	newID      func() string
}

func defaultStoreOptions() storeOptions {
	return storeOptions{
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
		now:       time.Now,
		newID:     newSessionID,
	}
}

func applyStoreOptions(opts []StoreOption) storeOptions {
	o := defaultStoreOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		trimmed := strings.TrimRight(strings.TrimSpace(prefix), ":")
		if trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
	}
}

func WithHTTPClient(client *http.Client) StoreOption {
	return func(o *storeOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func WithIDGenerator(fn func() string) StoreOption {
	return func(o *storeOptions) {
		if fn != nil {
			o.newID = fn
		}
	}
}

func (o storeOptions) key(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return o.keyPrefix + ":" + sessionID, nil
}

func (o storeOptions) newSession(callerPhone, businessID, leadSource string) (*Session, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, ErrMissingBusiness
	}
	return NewSession(o.newID(), strings.TrimSpace(businessID), callerPhone, leadSource, o.now()), nil
}

func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

/* ------------------------------- codec ------------------------------- */

func encodeSession(s *Session) ([]byte, error) {
	if s == nil {
		return nil, ErrNilSessionState
	}
	payload, err := sonic.ConfigStd.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session state: %w", err)
	}
	return payload, nil
}

func decodeSession(payload []byte) (*Session, error) {
	var s Session
	if err := sonic.ConfigStd.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &s, nil
}

// prepareSave checks a session before it is written and refreshes its activity time.
func prepareSave(s *Session, now time.Time) error {
	if s == nil {
		return ErrNilSessionState
	}
	if strings.TrimSpace(s.ID) == "" {
		return ErrInvalidSession
	}
	if s.LastActivityAt.IsZero() {
		s.LastActivityAt = now.UTC()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.LastActivityAt
	}
	return s.Validate()
}

// Clone returns a deep copy through the storage codec.
func Clone(s *Session) *Session {
	if s == nil {
		return nil
	}
	payload, err := encodeSession(s)
	if err != nil {
		return nil
	}
	var out Session
	if err := sonic.ConfigStd.Unmarshal(payload, &out); err != nil {
		return nil
	}
	return &out
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
