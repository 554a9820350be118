package telemetry_test

import (
	"context"
	"testing"

	"github.com/kinechobot/kinecho/internal/telemetry"
)

func TestTurnID_RoundTrip(t *testing.T) {
	ctx := telemetry.WithTurnID(context.Background(), "turn-123")
	got, ok := telemetry.TurnIDFromContext(ctx)
	if !ok || got != "turn-123" {
		t.Fatalf("got %q ok=%v, want turn-123 true", got, ok)
	}
}

func TestTurnID_MissingOrEmpty(t *testing.T) {
	if _, ok := telemetry.TurnIDFromContext(context.Background()); ok {
		t.Fatal("expected ok=false for missing turn ID")
	}
	ctx := telemetry.WithTurnID(context.Background(), "")
	if _, ok := telemetry.TurnIDFromContext(ctx); ok {
		t.Fatal("expected ok=false for empty turn ID")
	}
}

func TestConversationID_RoundTrip(t *testing.T) {
	ctx := telemetry.WithConversationID(context.Background(), "console")
	got, ok := telemetry.ConversationIDFromContext(ctx)
	if !ok || got != "console" {
		t.Fatalf("got %q ok=%v, want console true", got, ok)
	}
}

func TestIDs_NilContext(t *testing.T) {
	//nolint:staticcheck // exercising the nil-context guard deliberately
	ctx := telemetry.WithTurnID(nil, "t1")
	if got, ok := telemetry.TurnIDFromContext(ctx); !ok || got != "t1" {
		t.Fatalf("got %q ok=%v, want t1 true", got, ok)
	}
	if _, ok := telemetry.TurnIDFromContext(nil); ok {
		t.Fatal("expected ok=false for nil context")
	}
}
