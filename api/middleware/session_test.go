package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestSessionGeneratesAndEchoesID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := Session(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if seen == "" {
		t.Fatal("expected a generated session id in context")
	}
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated session id is not a uuid: %v", err)
	}
	if got := w.Header().Get(sessionIDHeader); got != seen {
		t.Fatalf("header echo mismatch: %q vs %q", got, seen)
	}
}

func TestSessionKeepsClientID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := Session(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(sessionIDHeader, "sess-keep")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "sess-keep" {
		t.Fatalf("expected client session id to survive, got %q", seen)
	}
	if got := w.Header().Get(sessionIDHeader); got != "sess-keep" {
		t.Fatalf("header echo mismatch: %q", got)
	}
}

func TestSessionIDFromContextMissing(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := SessionIDFromContext(req.Context()); got != "" {
		t.Fatalf("expected empty session id, got %q", got)
	}
}
