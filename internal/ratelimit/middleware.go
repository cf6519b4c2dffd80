package ratelimit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ultracrew/ultracrew/internal/auth"
)

// Middleware returns an HTTP middleware that enforces the invitation send
// rate using the provided InviteLimiter. It expects an authenticated user in
// the request context (set by auth.SessionAuthMiddleware); requests without
// one pass through untouched.
//
// Rate-limit headers are set on the response whenever a limit applies:
//
//	X-RateLimit-Limit: maximum requests allowed in the window
//	X-RateLimit-Remaining: tokens remaining in the current window
//	X-RateLimit-Reset: Unix timestamp when the bucket is fully replenished
//
// When the limit is exceeded the middleware responds with HTTP 429 and a JSON
// error body.
func Middleware(limiter *InviteLimiter, onReject ...func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := auth.UserFromContext(r.Context())
			if u == nil {
				// No user in context; skip rate limiting.
				next.ServeHTTP(w, r)
				return
			}

			allowed, limit, remaining, resetAt, err := limiter.Check(r.Context(), u.ID)
			if err != nil {
				slog.Error("failed to check invitation rate limit", "user_id", u.ID, "error", err)
				writeLimitError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
				return
			}

			if limit > 0 {
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
				w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))
			}

			if !allowed {
				for _, fn := range onReject {
					fn()
				}
				writeLimitError(w, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeLimitError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
