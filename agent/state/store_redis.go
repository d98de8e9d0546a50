package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisCommander is the subset of the go-redis client the store needs.
type RedisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore persists Session records in Redis with a sliding TTL.
type RedisStore struct {
	client RedisCommander
	opts   storeOptions
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client RedisCommander, opts ...StoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	o := applyStoreOptions(opts)
	if o.ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	return &RedisStore{client: client, opts: o}, nil
}

func (s *RedisStore) Create(ctx context.Context, callerPhone, businessID, leadSource string) (*Session, error) {
	sess, err := s.opts.newSession(callerPhone, businessID, leadSource)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	key, err := s.opts.key(id)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	if len(raw) == 0 {
		return nil, ErrStateNotFound
	}

	sess, err := decodeSession(raw)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("discarding unreadable redis session")
		return nil, ErrStateNotFound
	}
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if err := prepareSave(sess, s.opts.now()); err != nil {
		return err
	}
	key, err := s.opts.key(sess.ID)
	if err != nil {
		return err
	}
	payload, err := encodeSession(sess)
	if err != nil {
		return err
	}

	var expiration time.Duration
	if s.opts.ttl > 0 {
		expiration = time.Duration(ttlSeconds(s.opts.ttl)) * time.Second
	}
	if err := s.client.Set(ctx, key, payload, expiration).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) End(ctx context.Context, id string) error {
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
