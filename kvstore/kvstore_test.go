package kvstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := New(rdb)
	t.Cleanup(func() { _ = store.Close() })

	return store, mr
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected %q, got %q", "v", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "absent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestExpiredKeyBehavesAsMiss(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", "v", 10*time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(11 * time.Second)

	_, err := store.Get(ctx, "k")
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after TTL, got %v", err)
	}
}

func TestDelReturnsRemovedCount(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "a", "1", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.Set(ctx, "b", "2", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	removed, err := store.Del(ctx, "a", "b", "missing")
	if err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
}

func TestIncrConcurrentNoLostUpdates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := store.Incr(ctx, "counter"); err != nil {
				t.Errorf("incr failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "counter")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "100" {
		t.Fatalf("expected final count 100, got %s", got)
	}
}

func TestExpireMissingKey(t *testing.T) {
	store, _ := newTestStore(t)

	ok, err := store.Expire(context.Background(), "absent", time.Minute)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if ok {
		t.Fatal("expected expire on missing key to report false")
	}
}

func TestClearPattern(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"projects:all", "projects:user:u1", "users:list"} {
		if err := store.Set(ctx, key, "x", 0); err != nil {
			t.Fatalf("set failed: %v", err)
		}
	}

	removed, err := store.ClearPattern(ctx, "projects:*")
	if err != nil {
		t.Fatalf("clear pattern failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	// The untouched key survives, the cleared ones read back as misses.
	if _, err := store.Get(ctx, "users:list"); err != nil {
		t.Fatalf("unrelated key lost: %v", err)
	}
	if _, err := store.Get(ctx, "projects:all"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after invalidation, got %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	if err := store.SetJSON(ctx, "j", payload{Name: "app", Count: 3}, time.Minute); err != nil {
		t.Fatalf("set json failed: %v", err)
	}

	var got payload
	if err := store.GetJSON(ctx, "j", &got); err != nil {
		t.Fatalf("get json failed: %v", err)
	}
	if got.Name != "app" || got.Count != 3 {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestCorruptJSONBehavesAsMiss(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "j", "{not json", 0); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	var dest map[string]any
	if err := store.GetJSON(ctx, "j", &dest); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss on corrupt value, got %v", err)
	}
}

func TestTransportFailureWrapsCacheUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	if _, err := store.Get(context.Background(), "k"); !errors.Is(err, ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable, got %v", err)
	}
	if _, err := store.Incr(context.Background(), "k"); !errors.Is(err, ErrCacheUnavailable) {
		t.Fatalf("expected ErrCacheUnavailable, got %v", err)
	}
}
