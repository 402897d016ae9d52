package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubBackend struct {
	lastCommand string
	lastArgs    map[string]any
}

func (b *stubBackend) Dispatch(_ context.Context, command string, args map[string]any) (map[string]any, error) {
	b.lastCommand = command
	b.lastArgs = args
	return map[string]any{"success": true}, nil
}

func TestNewHandlerRequiresBackend(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error for nil backend")
	}
}

func TestNewHandlerBuilds(t *testing.T) {
	h, err := NewHandler(Config{Stateless: true, EnablePrompts: true}, &stubBackend{})
	if err != nil {
		t.Fatalf("handler build failed: %v", err)
	}
	if h == nil {
		t.Fatal("nil handler")
	}
}

// ---------------------------------------------------------------------------
// API key middleware
// ---------------------------------------------------------------------------

func authProbe() (http.Handler, *bool) {
	reached := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return inner, &reached
}

func TestAPIKeyMiddlewareRejectsMissingKey(t *testing.T) {
	inner, reached := authProbe()
	h := apiKeyMiddleware("secret", inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/mcp", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if *reached {
		t.Error("inner handler reached without a key")
	}
}

func TestAPIKeyMiddlewareAcceptsHeaderAndBearer(t *testing.T) {
	for _, set := range []func(*http.Request){
		func(r *http.Request) { r.Header.Set("X-API-Key", "secret") },
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer secret") },
	} {
		inner, reached := authProbe()
		h := apiKeyMiddleware("secret", inner)

		req := httptest.NewRequest("POST", "/mcp", nil)
		set(req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK || !*reached {
			t.Errorf("valid key rejected: status %d", rec.Code)
		}
	}
}

func TestAPIKeyMiddlewareRejectsWrongKey(t *testing.T) {
	inner, _ := authProbe()
	h := apiKeyMiddleware("secret", inner)

	req := httptest.NewRequest("POST", "/mcp", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyMiddlewarePassesOptionsPreflight(t *testing.T) {
	inner, reached := authProbe()
	h := apiKeyMiddleware("secret", inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/mcp", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("preflight blocked: %d", rec.Code)
	}
	if *reached {
		t.Error("preflight should not reach the inner handler")
	}
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

func TestRateLimiterBurstThenDeny(t *testing.T) {
	rl := newRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.allow("client") {
			t.Fatalf("request %d within burst denied", i)
		}
	}
	if rl.allow("client") {
		t.Error("request beyond burst allowed")
	}

	// Separate clients have separate buckets.
	if !rl.allow("other") {
		t.Error("fresh client denied")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := rateLimitMiddleware(newRateLimiter(1, 1), inner)

	req := httptest.NewRequest("POST", "/mcp", nil)
	req.RemoteAddr = "10.0.0.1:5555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request denied: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Error("missing Retry-After header")
	}
}

// ---------------------------------------------------------------------------
// Client addressing
// ---------------------------------------------------------------------------

func TestClientAddr(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.5:4242"
	if got := clientAddr(req); got != "192.168.1.5" {
		t.Errorf("expected host only, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientAddr(req); got != "203.0.113.9" {
		t.Errorf("expected first forwarded hop, got %q", got)
	}

	bare := httptest.NewRequest("GET", "/", nil)
	bare.RemoteAddr = ""
	if got := clientAddr(bare); got != "unknown" {
		t.Errorf("expected unknown for empty remote, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func TestToolArgHelpers(t *testing.T) {
	args := map[string]any{"name": "Blur1", "frame": float64(42)}

	if got := getString(args, "name", ""); got != "Blur1" {
		t.Errorf("getString: %q", got)
	}
	if got := getString(args, "missing", "d"); got != "d" {
		t.Errorf("getString default: %q", got)
	}
	if got := getInt(args, "frame", 0); got != 42 {
		t.Errorf("getInt: %d", got)
	}
	if got := getInt(nil, "frame", 7); got != 7 {
		t.Errorf("getInt nil map: %d", got)
	}
}
