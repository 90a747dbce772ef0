package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, limit int64, window time.Duration) (*FixedWindow, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewFixedWindow(client, "rl:test:", limit, window), mr
}

func TestFixedWindowAdmitsWithinBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.Admit(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("hit %d: unexpected error: %v", i+1, err)
		}
	}

	if err := limiter.Admit(ctx, "10.0.0.1"); !errors.Is(err, ErrLimited) {
		t.Fatalf("hit 4: want ErrLimited, got %v", err)
	}
}

func TestFixedWindowResetsAfterWindow(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if err := limiter.Admit(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("first hit: unexpected error: %v", err)
	}
	if err := limiter.Admit(ctx, "10.0.0.1"); !errors.Is(err, ErrLimited) {
		t.Fatalf("second hit: want ErrLimited, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	if err := limiter.Admit(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("after window: unexpected error: %v", err)
	}
}

func TestFixedWindowKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	if err := limiter.Admit(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("key a: unexpected error: %v", err)
	}
	if err := limiter.Admit(ctx, "10.0.0.2"); err != nil {
		t.Fatalf("key b: unexpected error: %v", err)
	}
	if err := limiter.Admit(ctx, "10.0.0.1"); !errors.Is(err, ErrLimited) {
		t.Fatalf("key a again: want ErrLimited, got %v", err)
	}
}

func TestFixedWindowAlwaysArmsTTL(t *testing.T) {
	limiter, mr := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = limiter.Admit(ctx, "10.0.0.1")
	}

	// a counter without a TTL would throttle the key forever
	if ttl := mr.TTL("rl:test:10.0.0.1"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("counter ttl: got %v, want within (0, %v]", ttl, time.Minute)
	}
}

func TestFixedWindowFailsClosedWhenStoreIsDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, 10, time.Minute)
	mr.Close()

	err := limiter.Admit(context.Background(), "10.0.0.1")
	if err == nil {
		t.Fatal("want error when the counter store is unreachable, got nil")
	}
	if errors.Is(err, ErrLimited) {
		t.Fatalf("store outage must not masquerade as ErrLimited: %v", err)
	}
}
