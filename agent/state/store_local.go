package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalStore keeps sessions in process memory. Only valid for single-process deployments.
// Records are stored encoded so callers never share pointers with the store.
type LocalStore struct {
	mu      sync.RWMutex
	entries map[string]localEntry
	opts    storeOptions
}

type localEntry struct {
	payload  []byte
	lastSeen time.Time
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(opts ...StoreOption) *LocalStore {
	return &LocalStore{
		entries: make(map[string]localEntry),
		opts:    applyStoreOptions(opts),
	}
}

func (s *LocalStore) Create(ctx context.Context, callerPhone, businessID, leadSource string) (*Session, error) {
	sess, err := s.opts.newSession(callerPhone, businessID, leadSource)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *LocalStore) Get(_ context.Context, id string) (*Session, error) {
	if _, err := s.opts.key(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok || s.expired(entry) {
		return nil, ErrStateNotFound
	}

	sess, err := decodeSession(entry.payload)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("discarding unreadable local session")
		return nil, ErrStateNotFound
	}
	return sess, nil
}

func (s *LocalStore) Save(_ context.Context, sess *Session) error {
	now := s.opts.now()
	if err := prepareSave(sess, now); err != nil {
		return err
	}
	payload, err := encodeSession(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[sess.ID] = localEntry{payload: payload, lastSeen: now}
	s.mu.Unlock()
	return nil
}

func (s *LocalStore) End(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if errors.Is(err, ErrStateNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	sess.End(s.opts.now())
	return s.Save(ctx, sess)
}

// Len returns the number of live sessions.
func (s *LocalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, entry := range s.entries {
		if !s.expired(entry) {
			n++
		}
	}
	return n
}

// Sweep evicts sessions idle for longer than the TTL and returns how many were removed.
func (s *LocalStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (s *LocalStore) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug().Int("evicted", n).Msg("swept idle sessions")
			}
		}
	}
}

func (s *LocalStore) expired(entry localEntry) bool {
	if s.opts.ttl <= 0 {
		return false
	}
	return s.opts.now().Sub(entry.lastSeen) > s.opts.ttl
}
