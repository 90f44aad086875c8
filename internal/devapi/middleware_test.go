package devapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDHeader(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestIDFromContext(r.Context()) == "" {
			t.Fatalf("request id missing from context")
		}
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("X-Request-Id header not set")
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/web/groups/list", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("local origin not allowed: %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/web/groups/list", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin must not be echoed")
	}
}

func TestRateLimitKicksIn(t *testing.T) {
	h := RateLimit(okHandler(), 3, 1)

	var last int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.10:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unrelated client throttled: %d", rec.Code)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a := New("round-trip-secret", "test")

	token, expiresAt, err := a.generateToken("42", "alice", "admin", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiry in the past: %s", expiresAt)
	}

	claims, err := a.parseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "42" || claims.Username != "alice" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other := New("different-secret", "test")
	if _, err := other.parseToken(token); err == nil {
		t.Fatalf("token verified against the wrong secret")
	}

	expired, _, err := a.generateToken("42", "alice", "admin", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.parseToken(expired); err == nil {
		t.Fatalf("expired token accepted")
	}
}
