package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestCache_GetRespectsTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string, int](0, WithClock(clock.Now))
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "sol", 150, time.Minute)
	if v, ok := c.Get(ctx, "sol"); !ok || v != 150 {
		t.Fatalf("Get() = %v, %v", v, ok)
	}

	clock.Advance(time.Minute)
	if _, ok := c.Get(ctx, "sol"); ok {
		t.Error("expected entry to expire at ttl")
	}
}

func TestCache_PeekServesStale(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	c := New[string, string](0, WithClock(clock.Now), WithStaleRetention(time.Hour))
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "pools", "listing", 10*time.Minute)
	clock.Advance(15 * time.Minute)

	v, storedAt, fresh, ok := c.Peek(ctx, "pools")
	if !ok || v != "listing" {
		t.Fatalf("Peek() = %q, ok=%v", v, ok)
	}
	if fresh {
		t.Error("expected stale entry")
	}
	if !storedAt.Equal(time.Unix(1_700_000_000, 0)) {
		t.Errorf("storedAt = %v", storedAt)
	}

	c.evictExpired()
	if c.Len() != 1 {
		t.Error("stale entry within retention must survive cleanup")
	}

	clock.Advance(2 * time.Hour)
	c.evictExpired()
	if c.Len() != 0 {
		t.Error("entry past retention must be evicted")
	}
}

func TestCache_CloseIdempotent(t *testing.T) {
	c := New[int, int](time.Millisecond)
	c.Close()
	c.Close()
}
