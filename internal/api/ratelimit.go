package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a fixed-window request counter per client address. It
// guards the control endpoints against a runaway client hammering the
// simulation lock.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int           // max requests per window
	span    time.Duration // window length
	now     func() time.Time
}

type window struct {
	count int
	start time.Time
}

// NewRateLimiter allows limit requests per client in each span.
func NewRateLimiter(limit int, span time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		span:    span,
		now:     time.Now,
	}
}

// Allow records a request from client and reports whether it is within the limit.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.windows) > 1024 {
		rl.sweep(now)
	}

	w, ok := rl.windows[client]
	if !ok || now.Sub(w.start) >= rl.span {
		rl.windows[client] = &window{count: 1, start: now}
		return true
	}
	if w.count < rl.limit {
		w.count++
		return true
	}
	return false
}

// RetryAfter returns whole seconds until client's window resets.
func (rl *RateLimiter) RetryAfter(client string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[client]
	if !ok {
		return 0
	}
	remaining := rl.span - rl.now().Sub(w.start)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// sweep drops expired windows. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for client, w := range rl.windows {
		if now.Sub(w.start) >= rl.span {
			delete(rl.windows, client)
		}
	}
}

// clientAddr returns the first X-Forwarded-For hop, or the remote host.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware wraps a handler with rate limiting. Returns 429 if exceeded.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client := clientAddr(r)
		if !rl.Allow(client) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(client)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
