// Package sessioncache is a thin key convention over the shared store for
// per-user session records and lookup caches (by id, by email), plus the
// cache-aside helpers the read-heavy services use. Invalidation is
// synchronous: mutation paths delete the affected keys before reporting
// success to their caller.
package sessioncache

import (
	"context"
	"time"

	"github.com/LuisLuna810/coolify-managment-back/internal/model"
	"github.com/LuisLuna810/coolify-managment-back/kvstore"
)

const (
	sessionKeyPrefix  = "session:user:"
	userByIDPrefix    = "user:id:"
	userByEmailPrefix = "user:email:"

	defaultUserTTL    = 10 * time.Minute
	defaultSessionTTL = 30 * 24 * time.Hour
)

// Record is the per-user session entry written at login and deleted at
// logout or explicit invalidation.
type Record struct {
	UserID    string     `json:"userId"`
	Token     string     `json:"token"`
	LoginTime time.Time  `json:"loginTime"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	Username  string     `json:"username"`
}

// Cache wraps the store with the gateway's key conventions.
type Cache struct {
	store      *kvstore.Store
	userTTL    time.Duration
	sessionTTL time.Duration
}

// New creates a Cache with the given TTLs; zero values use the defaults.
func New(store *kvstore.Store, userTTL, sessionTTL time.Duration) *Cache {
	if userTTL <= 0 {
		userTTL = defaultUserTTL
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &Cache{store: store, userTTL: userTTL, sessionTTL: sessionTTL}
}

// StoreSession writes the session record for rec.UserID, replacing any
// previous one. Login refreshes the record; the TTL bounds abandoned sessions.
func (c *Cache) StoreSession(ctx context.Context, rec Record) error {
	return c.store.SetJSON(ctx, sessionKeyPrefix+rec.UserID, rec, c.sessionTTL)
}

// Session reads the cached session record, or nil on a miss.
func (c *Cache) Session(ctx context.Context, userID string) (*Record, error) {
	var rec Record
	if err := c.store.GetJSON(ctx, sessionKeyPrefix+userID, &rec); err != nil {
		if kvstore.IsMiss(err) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// DeleteSession removes the session record. Deleting an absent session is
// not an error.
func (c *Cache) DeleteSession(ctx context.Context, userID string) error {
	_, err := c.store.Del(ctx, sessionKeyPrefix+userID)
	return err
}

// SetUser caches a user row under both its id and email keys.
func (c *Cache) SetUser(ctx context.Context, u *model.User) error {
	if err := c.store.SetJSON(ctx, userByIDPrefix+u.ID, u, c.userTTL); err != nil {
		return err
	}
	return c.store.SetJSON(ctx, userByEmailPrefix+u.Email, u, c.userTTL)
}

// UserByID reads the cached user row, or nil on a miss.
func (c *Cache) UserByID(ctx context.Context, id string) (*model.User, error) {
	return c.readUser(ctx, userByIDPrefix+id)
}

// UserByEmail reads the cached user row, or nil on a miss.
func (c *Cache) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return c.readUser(ctx, userByEmailPrefix+email)
}

func (c *Cache) readUser(ctx context.Context, key string) (*model.User, error) {
	var u model.User
	if err := c.store.GetJSON(ctx, key, &u); err != nil {
		if kvstore.IsMiss(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// InvalidateUser removes every derived shape for the user: the session
// record and both lookup keys.
func (c *Cache) InvalidateUser(ctx context.Context, id, email string) error {
	_, err := c.store.Del(ctx,
		sessionKeyPrefix+id,
		userByIDPrefix+id,
		userByEmailPrefix+email,
	)
	return err
}

// Get is the cache-aside read helper for arbitrary derived shapes (lists,
// status snapshots). A miss leaves dest untouched and returns false.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if err := c.store.GetJSON(ctx, key, dest); err != nil {
		if kvstore.IsMiss(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Set populates a derived shape with its own TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.store.SetJSON(ctx, key, value, ttl)
}

// Invalidate removes specific derived keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	_, err := c.store.Del(ctx, keys...)
	return err
}

// InvalidatePattern removes every derived key matching the glob pattern,
// e.g. "projects:*" after a sync.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) error {
	_, err := c.store.ClearPattern(ctx, pattern)
	return err
}
