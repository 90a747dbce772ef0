package instrument

import (
	"context"
	"testing"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := SetCorrelationID(context.Background(), "cid-123")

	if got := GetCorrelationID(ctx); got != "cid-123" {
		t.Fatalf("correlation id: got %q, want %q", got, "cid-123")
	}
}

func TestCorrelationIDAbsent(t *testing.T) {
	if got := GetCorrelationID(context.Background()); got != "" {
		t.Fatalf("correlation id: got %q, want empty", got)
	}
}

func TestCorrelationIDChildContextOverrides(t *testing.T) {
	parent := SetCorrelationID(context.Background(), "cid-parent")
	child := SetCorrelationID(parent, "cid-child")

	if got := GetCorrelationID(child); got != "cid-child" {
		t.Fatalf("child correlation id: got %q, want %q", got, "cid-child")
	}
	if got := GetCorrelationID(parent); got != "cid-parent" {
		t.Fatalf("parent correlation id: got %q, want %q", got, "cid-parent")
	}
}
