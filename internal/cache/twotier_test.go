package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hyperifyio/contentdistiller/internal/circuitbreaker"
)

// fakeRemote is an in-memory RemoteAdapter stand-in that can simulate
// outages (every call failing) to exercise the circuit breaker fallback.
type fakeRemote struct {
	mu      sync.Mutex
	data    map[string]string
	failing bool
}

func newFakeRemote() *fakeRemote { return &fakeRemote{data: map[string]string{}} }

func (f *fakeRemote) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", errors.New("remote down")
	}
	v, ok := f.data[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeRemote) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errors.New("remote down")
	}
	f.data[key] = value
	return nil
}

func (f *fakeRemote) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeRemote) FlushAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = map[string]string{}
	return nil
}

func TestTwoTierCache_SetThenGet_RemoteHit(t *testing.T) {
	remote := newFakeRemote()
	c, err := NewTwoTierCache[string](Options{Remote: remote, LRUSize: 8})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()
	c.Set(ctx, "k1", "v1", Entry[string]{})
	got, ok := c.Get(ctx, "k1")
	if !ok || got.Value != "v1" {
		t.Fatalf("expected hit with v1, got %+v ok=%v", got, ok)
	}
}

func TestTwoTierCache_FallsBackToLRUWhenRemoteDown(t *testing.T) {
	remote := newFakeRemote()
	c, err := NewTwoTierCache[string](Options{Remote: remote, LRUSize: 8})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()
	c.Set(ctx, "k1", "v1", Entry[string]{})

	remote.mu.Lock()
	remote.failing = true
	remote.mu.Unlock()

	got, ok := c.Get(ctx, "k1")
	if !ok || got.Value != "v1" {
		t.Fatalf("expected lru fallback hit with v1, got %+v ok=%v", got, ok)
	}
}

func TestTwoTierCache_CircuitOpensAfterRepeatedRemoteFailures(t *testing.T) {
	remote := newFakeRemote()
	remote.failing = true
	breaker := circuitbreaker.New(circuitbreaker.Config{Name: "test-cache", FailureThreshold: 2, ResetTimeout: time.Hour})
	c, err := NewTwoTierCache[string](Options{Remote: remote, Breaker: breaker, LRUSize: 8})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		c.Get(ctx, "missing")
	}
	if breaker.State() != circuitbreaker.Open {
		t.Fatalf("expected breaker open after repeated failures, got %v", breaker.State())
	}
	// A subsequent Get must not block on the (still failing) remote; it
	// should fall straight through to an LRU miss.
	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatal("expected miss")
	}
}

func TestTwoTierCache_LRUOnlyWhenNoRemoteConfigured(t *testing.T) {
	c, err := NewTwoTierCache[int](Options{LRUSize: 4})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()
	c.Set(ctx, "a", 42, Entry[int]{})
	got, ok := c.Get(ctx, "a")
	if !ok || got.Value != 42 {
		t.Fatalf("expected lru-only hit, got %+v ok=%v", got, ok)
	}
}
