package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/musicflowhq/musicflow/internal/identity/entity"
	"github.com/musicflowhq/musicflow/internal/pkg/goerror"
	"github.com/musicflowhq/musicflow/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCache(client, instrument.NewNoop()), mr
}

func TestDeliveryTokenRedeemOnce(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	rec := entity.DeliveryToken{
		SubjectID: 42,
		SessionID: "sess-1",
		IssuedAt:  time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := c.IssueDeliveryToken(ctx, "deadbeef", rec, 2*time.Minute); err != nil {
		t.Fatalf("issue: unexpected error: %v", err)
	}

	got, err := c.RedeemDeliveryToken(ctx, "deadbeef")
	if err != nil {
		t.Fatalf("redeem: unexpected error: %v", err)
	}
	if *got != rec {
		t.Fatalf("redeem: got %+v, want %+v", *got, rec)
	}

	// second redeem must lose
	if _, err := c.RedeemDeliveryToken(ctx, "deadbeef"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("second redeem: want ErrNotFound, got %v", err)
	}
}

func TestDeliveryTokenUnknownHash(t *testing.T) {
	c, _ := newTestCache(t)

	if _, err := c.RedeemDeliveryToken(context.Background(), "never-issued"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeliveryTokenExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	rec := entity.DeliveryToken{SubjectID: 42, SessionID: "sess-1"}
	if err := c.IssueDeliveryToken(ctx, "cafe", rec, 2*time.Minute); err != nil {
		t.Fatalf("issue: unexpected error: %v", err)
	}

	mr.FastForward(2*time.Minute + time.Second)

	if _, err := c.RedeemDeliveryToken(ctx, "cafe"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("want ErrNotFound after ttl, got %v", err)
	}
}

func TestDeliveryTokenRevoke(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	rec := entity.DeliveryToken{SubjectID: 42, SessionID: "sess-1"}
	if err := c.IssueDeliveryToken(ctx, "feed", rec, 2*time.Minute); err != nil {
		t.Fatalf("issue: unexpected error: %v", err)
	}
	if err := c.RevokeDeliveryToken(ctx, "feed"); err != nil {
		t.Fatalf("revoke: unexpected error: %v", err)
	}
	if _, err := c.RedeemDeliveryToken(ctx, "feed"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("want ErrNotFound after revoke, got %v", err)
	}
}

func TestVerificationCodeConsumeOnce(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.SaveVerificationCode(ctx, 42, "hash-1", 2*time.Minute); err != nil {
		t.Fatalf("save: unexpected error: %v", err)
	}

	got, err := c.ConsumeVerificationCode(ctx, 42)
	if err != nil {
		t.Fatalf("consume: unexpected error: %v", err)
	}
	if got != "hash-1" {
		t.Fatalf("consume: got %q, want %q", got, "hash-1")
	}

	// the code is spent whether or not the caller liked it
	if _, err := c.ConsumeVerificationCode(ctx, 42); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("second consume: want ErrNotFound, got %v", err)
	}
}

func TestVerificationCodeOverwrite(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.SaveVerificationCode(ctx, 42, "hash-old", 2*time.Minute); err != nil {
		t.Fatalf("save old: unexpected error: %v", err)
	}
	if err := c.SaveVerificationCode(ctx, 42, "hash-new", 2*time.Minute); err != nil {
		t.Fatalf("save new: unexpected error: %v", err)
	}

	got, err := c.ConsumeVerificationCode(ctx, 42)
	if err != nil {
		t.Fatalf("consume: unexpected error: %v", err)
	}
	if got != "hash-new" {
		t.Fatalf("only the latest code may live: got %q", got)
	}
}

func TestVerificationCodeExpires(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.SaveVerificationCode(ctx, 42, "hash-1", 2*time.Minute); err != nil {
		t.Fatalf("save: unexpected error: %v", err)
	}

	mr.FastForward(2*time.Minute + time.Second)

	if _, err := c.ConsumeVerificationCode(ctx, 42); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("want ErrNotFound after ttl, got %v", err)
	}
}

func TestVerificationCodeSubjectsAreIsolated(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.SaveVerificationCode(ctx, 1, "hash-a", 2*time.Minute); err != nil {
		t.Fatalf("save a: unexpected error: %v", err)
	}
	if err := c.SaveVerificationCode(ctx, 2, "hash-b", 2*time.Minute); err != nil {
		t.Fatalf("save b: unexpected error: %v", err)
	}

	got, err := c.ConsumeVerificationCode(ctx, 1)
	if err != nil {
		t.Fatalf("consume a: unexpected error: %v", err)
	}
	if got != "hash-a" {
		t.Fatalf("consume a: got %q, want %q", got, "hash-a")
	}

	// subject 2's code is untouched
	got, err = c.ConsumeVerificationCode(ctx, 2)
	if err != nil {
		t.Fatalf("consume b: unexpected error: %v", err)
	}
	if got != "hash-b" {
		t.Fatalf("consume b: got %q, want %q", got, "hash-b")
	}
}
