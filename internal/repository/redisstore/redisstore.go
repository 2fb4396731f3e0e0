// Package redisstore keeps sessions in Redis so several machines (or a CI
// runner and a laptop) can share one admin login per profile.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/repository"
)

// Client is the subset of *redis.Client the store needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DefaultPrefix namespaces session keys.
const DefaultPrefix = "folio-admin:session:"

// Store is a Redis-backed SessionStore for one profile.
type Store struct {
	client Client
	prefix string
	key    string
	ttl    time.Duration
	now    func() time.Time
}

var _ repository.SessionStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(p string) Option {
	return func(s *Store) { s.prefix = p }
}

// WithTTL bounds the key lifetime when the session has no known expiry.
func WithTTL(d time.Duration) Option { return func(s *Store) { s.ttl = d } }

// New returns a store keeping profile's session under prefix+profile.
func New(c Client, profile string, opts ...Option) *Store {
	s := &Store{client: c, prefix: DefaultPrefix, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.key = s.prefix + profile
	return s
}

// Key returns the Redis key in use.
func (s *Store) Key() string { return s.key }

// Load returns nil, nil when the key does not exist.
func (s *Store) Load(ctx context.Context) (*model.StoredSession, error) {
	b, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ss model.StoredSession
	if err := json.Unmarshal(b, &ss); err != nil {
		return nil, err
	}
	return &ss, nil
}

// Save writes the session. The key expires with the token when its expiry
// is known; an already expired session is deleted instead.
func (s *Store) Save(ctx context.Context, ss model.StoredSession) error {
	ttl := s.ttl
	if !ss.ExpiresAt.IsZero() {
		ttl = ss.ExpiresAt.Sub(s.now())
		if ttl <= 0 {
			return s.Clear(ctx)
		}
		if s.ttl > 0 && s.ttl < ttl {
			ttl = s.ttl
		}
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, b, ttl).Err()
}

// Clear deletes the key.
func (s *Store) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
