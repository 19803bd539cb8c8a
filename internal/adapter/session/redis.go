// Package session implements the session store on Redis. Tokens are
// opaque; each key holds the session JSON and expires with the TTL so
// logged-out and stale sessions vanish without a sweeper.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/essay-evaluator/internal/domain"
)

const keyPrefix = "session:"

// Store implements domain.SessionStore.
type Store struct {
	client *redis.Client
}

// New constructs a Store over an existing Redis client.
func New(client *redis.Client) *Store { return &Store{client: client} }

// Put stores the session until its expiry.
func (s *Store) Put(ctx domain.Context, sess domain.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", domain.ErrInvalidArgument)
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("op=session.put: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+sess.Token, b, ttl).Err(); err != nil {
		return fmt.Errorf("op=session.put: %w", err)
	}
	return nil
}

// Get loads a session by token.
func (s *Store) Get(ctx domain.Context, token string) (domain.Session, error) {
	b, err := s.client.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, fmt.Errorf("%w: session", domain.ErrNotFound)
		}
		return domain.Session{}, fmt.Errorf("op=session.get: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("op=session.get: %w", err)
	}
	return sess, nil
}

// Delete removes a session token; missing tokens are not an error.
func (s *Store) Delete(ctx domain.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("op=session.delete: %w", err)
	}
	return nil
}

// Ping reports Redis reachability for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
