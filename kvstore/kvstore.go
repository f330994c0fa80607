// Package kvstore wraps the shared Redis instance behind the small
// operational surface the gateway needs: string get/set with TTL, atomic
// counters, key expiry, glob scans, and JSON values layered on top of the
// string primitives.
//
// Transport failures surface as [ErrCacheUnavailable]. Read-path callers
// treat that the same as a miss and fall through to the source of truth;
// only the rate limiter's counter path treats it as fatal.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss is returned when a key does not exist or its value
	// cannot be decoded into the requested shape.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable wraps transport or timeout failures talking to Redis.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// IsMiss reports whether err should be treated as a cache miss. Transport
// failures count: read paths fall through to the source of truth instead of
// surfacing cache trouble to the request.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrCacheUnavailable)
}

// Store is the process-wide key-value cache client. It is constructed once
// at startup, shared by reference, and closed at shutdown.
type Store struct {
	rdb redis.UniversalClient
}

// New wraps an already-configured Redis client.
func New(rdb redis.UniversalClient) *Store {
	return &Store{rdb: rdb}
}

// Get returns the string value at key. A missing key yields ErrCacheMiss.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return value, nil
}

// Set stores value at key. A zero ttl stores the key without expiration.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Del removes the given keys and returns how many existed.
func (s *Store) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	removed, err := s.rdb.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return removed, nil
}

// Incr atomically increments the integer at key and returns the new value.
// The atomicity guarantee comes from Redis itself; no in-process locking
// is involved.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	value, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return value, nil
}

// Expire sets a TTL on an existing key. Returns false when the key is absent.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.rdb.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return ok, nil
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return n == 1, nil
}

// Keys returns all keys matching the glob-style pattern.
//
// KEYS walks the whole keyspace and is an operational primitive for
// invalidation and diagnostics, not a hot-path lookup.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return keys, nil
}

// ClearPattern deletes every key matching the glob-style pattern and
// returns how many were removed.
func (s *Store) ClearPattern(ctx context.Context, pattern string) (int64, error) {
	keys, err := s.Keys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return s.Del(ctx, keys...)
}

// GetJSON reads the value at key and unmarshals it into dest. A key that
// is absent, expired, or holds a value that no longer decodes behaves as
// a cache miss, never as a fatal error.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return ErrCacheMiss
	}
	return nil
}

// SetJSON marshals value and stores it at key with the given TTL.
func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, string(raw), ttl)
}

// Ping verifies the connection to Redis.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}
