package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerEmitsServiceAndContextFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithSessionID(ctx, "sess-456")
	logg.Info(ctx, "cart.updated")

	out := buf.String()
	for _, want := range []string{`"service":"api"`, `"request_id":"req-123"`, `"session_id":"sess-456"`, "cart.updated"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s: %s", want, out)
		}
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	t.Parallel()

	if got := ParseLevel("no-such-level"); got != zerolog.InfoLevel {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("unexpected level: %v", got)
	}
}

func TestErrorIncludesStack(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logg := New(Options{ServiceName: "sale-worker", Output: &buf})
	logg.Error(context.Background(), "sale.failed", context.DeadlineExceeded)

	if !strings.Contains(buf.String(), `"stack"`) {
		t.Fatalf("expected stack field in error log: %s", buf.String())
	}
}
