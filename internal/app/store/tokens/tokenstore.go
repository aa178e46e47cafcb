// Package tokenstore manages session tokens in Redis.
//
// Tokens are opaque UUIDv4 strings stored under auth_<token> with a
// fixed TTL. Expiry is enforced by Redis itself, so there is no reaper;
// lookups never extend the lifetime (sessions are fixed-length, not
// sliding).
package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when a token does not resolve to a user,
// whether it never existed, was revoked, or expired.
var ErrNotFound = errors.New("token not found")

const keyPrefix = "auth_"

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a token store. ttl is the fixed session lifetime.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Issue generates a fresh random token for the user and stores the
// mapping with the configured TTL.
func (s *Store) Issue(ctx context.Context, userID primitive.ObjectID) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, keyPrefix+token, userID.Hex(), s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user id a live token maps to. The TTL is not
// extended.
func (s *Store) Resolve(ctx context.Context, token string) (primitive.ObjectID, error) {
	val, err := s.rdb.Get(ctx, keyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return primitive.NilObjectID, ErrNotFound
		}
		return primitive.NilObjectID, err
	}

	id, err := primitive.ObjectIDFromHex(val)
	if err != nil {
		// A corrupt value is indistinguishable from no session.
		return primitive.NilObjectID, ErrNotFound
	}
	return id, nil
}

// Revoke deletes the token. Revoking a token that is already gone is
// not an error.
func (s *Store) Revoke(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, keyPrefix+token).Err()
}

// Ping reports whether the backing Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
