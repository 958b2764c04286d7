// Package redis stores the pantry service's server-side state: session
// records keyed by their opaque token, and the latest statistics snapshot.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
	"github.com/redis/go-redis/v9"
)

// DefaultSessionPrefix namespaces session keys when no prefix is given.
const DefaultSessionPrefix = "session:"

// ErrNotFound reports that no live session record exists for a token.
var ErrNotFound = errors.New("session not found")

// SessionStore keeps server-side session records in Redis. Each record is
// written with a TTL derived from the session's ExpiresAt, so Redis expires
// sessions on its own clock; Get additionally checks the embedded expiry
// and removes records Redis has not reaped yet, so a drifted Redis clock
// can only shorten a session, never extend one.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionStore creates a session store over the given client. An empty
// prefix selects DefaultSessionPrefix; distinct prefixes on a shared client
// never see each other's records.
func NewSessionStore(client redis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

// Save writes the session record with a TTL running to its ExpiresAt.
// Sessions without an ID or already past expiry are rejected rather than
// stored, so a record in Redis is always addressable and still live at
// write time.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.key(sess.ID), data, ttl).Err()
}

// Get returns the live session stored under id, or ErrNotFound. A record
// whose embedded expiry has passed counts as absent and is deleted on the
// way out.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return domainauth.Session{}, ErrNotFound
	case err != nil:
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	if !sess.ExpiresAt.After(s.now()) {
		if err := s.Delete(ctx, id); err != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", err)
		}
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

// Delete removes the record under id. Absent records, and the empty id, are
// a no-op so logout stays idempotent.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}
