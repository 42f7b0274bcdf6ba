package requestctx

import (
	"context"
	"testing"
)

func TestUserIDFromContextRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-42")
	if got := UserIDFromContext(ctx); got != "user-42" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-42")
	}
}

func TestUserIDFromContextEmpty(t *testing.T) {
	if got := UserIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(WithUserID(context.Background(), "u"), "rid-1")
	if got := RequestIDFromContext(ctx); got != "rid-1" {
		t.Fatalf("RequestIDFromContext = %q, want %q", got, "rid-1")
	}
	if got := UserIDFromContext(ctx); got != "u" {
		t.Fatalf("user id lost: %q", got)
	}
}
