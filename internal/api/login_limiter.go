package api

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Per-IP limits for the unauthenticated endpoints. Login guards password
// guessing; decline guards token guessing. The janitor sweeps stale windows.
const (
	loginRateLimitMax      = 10
	loginRateLimitWindow   = 15 * time.Minute
	declineRateLimitMax    = 30
	declineRateLimitWindow = time.Minute
	limiterCleanupInterval = 5 * time.Minute
)

// loginAttempts tracks one client IP's request count in the current window.
type loginAttempts struct {
	count       int
	windowStart time.Time
}

// loginRateLimiter is a fixed-window per-IP rate limiter. All mutations run
// under mu; the sync.Map lets cleanup range and delete without copying the
// whole table.
type loginRateLimiter struct {
	mu      sync.Mutex
	entries sync.Map // ip -> *loginAttempts
	max     int
	window  time.Duration
}

func newLoginRateLimiter(max int, window time.Duration) *loginRateLimiter {
	return &loginRateLimiter{max: max, window: window}
}

// allow reports whether a request from ip may proceed. When denied, the
// second return value is the number of seconds until the window resets,
// suitable for a Retry-After header.
func (rl *loginRateLimiter) allow(ip string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.entries.Load(ip)
	if !ok {
		rl.entries.Store(ip, &loginAttempts{count: 1, windowStart: now})
		return true, 0
	}

	a := v.(*loginAttempts)
	if now.Sub(a.windowStart) >= rl.window {
		a.count = 1
		a.windowStart = now
		return true, 0
	}

	if a.count < rl.max {
		a.count++
		return true, 0
	}

	retryAfter := int(math.Ceil((rl.window - now.Sub(a.windowStart)).Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	return false, retryAfter
}

// cleanup removes entries whose window has fully elapsed.
func (rl *loginRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.entries.Range(func(key, value interface{}) bool {
		a := value.(*loginAttempts)
		if now.Sub(a.windowStart) >= rl.window {
			rl.entries.Delete(key)
		}
		return true
	})
}

// ipRateLimit wraps next with a per-IP fixed-window limit. onReject, when
// non-nil, is invoked once per rejected request.
func ipRateLimit(rl *loginRateLimiter, onReject func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, retryAfter := rl.allow(clientIP(r))
			if !allowed {
				if onReject != nil {
					onReject()
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
