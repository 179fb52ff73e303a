// backend/handlers/middleware.go
package handlers

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-IP limiter. Counts live in process, so
// the limit is advisory: replicas each enforce their own window.
type RateLimiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	window    time.Duration
	max       int
	now       func() time.Time
	lastPrune time.Time
}

type window struct {
	start time.Time
	count int
}

func NewRateLimiter(windowDur time.Duration, max int) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		window:  windowDur,
		max:     max,
		now:     time.Now,
	}
}

// Allow counts one request from ip against the current window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.prune(now)
	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.windows[ip] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= rl.max
}

// prune drops expired windows at most once per window length so idle
// clients do not accumulate for the process lifetime. Caller holds mu.
func (rl *RateLimiter) prune(now time.Time) {
	if now.Sub(rl.lastPrune) < rl.window {
		return
	}
	for ip, w := range rl.windows {
		if now.Sub(w.start) >= rl.window {
			delete(rl.windows, ip)
		}
	}
	rl.lastPrune = now
}

// Middleware rejects over-limit requests with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			respondWithError(w, http.StatusTooManyRequests, "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}
