package flowsession

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, ttl), mr
}

func TestStorePutGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	want := Session{
		ID:        "sess-1",
		SubjectID: 42,
		TokenID:   "tok-1",
		State:     StateAwaitingToken,
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("put: unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: unexpected error: %v", err)
	}
	if *got != want {
		t.Fatalf("get: got %+v, want %+v", *got, want)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestStoreSessionExpires(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	sess := Session{ID: "sess-ttl", SubjectID: 7, State: StateAwaitingCode}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("put: unexpected error: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	if _, err := store.Get(ctx, "sess-ttl"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after ttl, got %v", err)
	}
}

func TestStoreTransitionKeepsSessionAlive(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	sess := Session{ID: "sess-2", SubjectID: 7, State: StateAwaitingToken}
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("put: unexpected error: %v", err)
	}

	mr.FastForward(30 * time.Second)

	sess.State = StateAwaitingCode
	if err := store.Put(ctx, sess); err != nil {
		t.Fatalf("transition: unexpected error: %v", err)
	}

	mr.FastForward(45 * time.Second)

	got, err := store.Get(ctx, "sess-2")
	if err != nil {
		t.Fatalf("get after transition: unexpected error: %v", err)
	}
	if got.State != StateAwaitingCode {
		t.Fatalf("state: got %q, want %q", got.State, StateAwaitingCode)
	}
}

func TestStoreDelete(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	if err := store.Put(ctx, Session{ID: "sess-3", SubjectID: 1, State: StateAwaitingToken}); err != nil {
		t.Fatalf("put: unexpected error: %v", err)
	}
	if err := store.Delete(ctx, "sess-3"); err != nil {
		t.Fatalf("delete: unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "sess-3"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}

	// deleting again is a no-op
	if err := store.Delete(ctx, "sess-3"); err != nil {
		t.Fatalf("second delete: unexpected error: %v", err)
	}
}
