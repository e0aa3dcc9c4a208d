package observability_test

import (
	"context"
	"testing"

	"github.com/aurelia-care/aurelia/internal/observability"
)

func TestLoggerFromContextWithoutRequestID(t *testing.T) {
	log := observability.LoggerFromContext(context.Background())
	if log != observability.Logger() {
		t.Fatalf("expected the base logger when no request_id is set")
	}
}

func TestLoggerFromContextWithRequestID(t *testing.T) {
	ctx := observability.WithRequestID(context.Background(), "req-123")

	log := observability.LoggerFromContext(ctx)
	if log == observability.Logger() {
		t.Fatalf("expected a derived logger carrying the request_id")
	}
	if !log.Enabled(ctx, 0) { // info level
		t.Fatalf("derived logger must keep the configured level")
	}
}
