package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests denied")
	}
	if rl.Allow("a") {
		t.Error("third request allowed")
	}
	if !rl.Allow("b") {
		t.Error("other client denied")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Errorf("RetryAfter = %d, want 61", got)
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("request after window denied")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	h := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec.Code
	}

	if code := send(""); code != http.StatusOK {
		t.Fatalf("first = %d", code)
	}
	if code := send(""); code != http.StatusTooManyRequests {
		t.Errorf("second = %d", code)
	}
	if code := send("10.0.0.1, 10.0.0.2"); code != http.StatusOK {
		t.Errorf("forwarded client = %d", code)
	}
}
