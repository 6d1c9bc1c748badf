// Package tokenstore is the server-side source of truth for token liveness.
// It keeps at most one live token per identity in Redis; overwriting on login
// is what enforces the single-active-session policy.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "token:"
	// opTimeout bounds every round trip to the cache so a hung connection
	// degrades into ErrTimeout instead of blocking the request.
	opTimeout = 3 * time.Second
)

var (
	// ErrUnavailable means the backing cache could not be reached. It is a
	// distinct, retryable error class: callers must never treat it as
	// "token absent", which would turn an outage into a mass revocation.
	ErrUnavailable = errors.New("revocation store unavailable")
	// ErrTimeout means the cache did not answer within the bounded deadline.
	ErrTimeout = errors.New("revocation store timeout")
)

// Store maps identity to the currently valid token with a per-entry TTL.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func key(identity string) string { return keyPrefix + identity }

// Put upserts the token for identity, replacing any previous entry, with an
// absolute expiry of now+ttl.
func (s *Store) Put(ctx context.Context, identity, token string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := s.rdb.Set(ctx, key(identity), token, ttl).Err(); err != nil {
		return wrap(err)
	}
	return nil
}

// Get returns the stored token for identity. found is false when no entry
// exists (never set, deleted, or TTL-expired).
func (s *Store) Get(ctx context.Context, identity string) (token string, found bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	val, err := s.rdb.Get(ctx, key(identity)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap(err)
	}
	return val, true, nil
}

// Delete removes the entry for identity and reports whether one existed.
// Deleting an absent entry is not an error.
func (s *Store) Delete(ctx context.Context, identity string) (removed bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.rdb.Del(ctx, key(identity)).Result()
	if err != nil {
		return false, wrap(err)
	}
	return n > 0, nil
}

func wrap(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
