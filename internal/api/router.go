package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ultracrew/ultracrew/internal/activity"
	"github.com/ultracrew/ultracrew/internal/auth"
	"github.com/ultracrew/ultracrew/internal/invitation"
	"github.com/ultracrew/ultracrew/internal/metrics"
	"github.com/ultracrew/ultracrew/internal/ratelimit"
	"github.com/ultracrew/ultracrew/internal/relationship"
	"github.com/ultracrew/ultracrew/internal/user"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	DBPool         *pgxpool.Pool
	UserStore      *user.Store
	Sessions       auth.SessionLookup
	Relationships  *relationship.Service
	Invitations    *invitation.Service
	ActivityStore  *activity.Store
	Recorder       *activity.Recorder
	InviteLimiter  *ratelimit.InviteLimiter
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	r.Use(metricsMiddleware(m))

	// Handlers.
	authH := newAuthHandler(deps.UserStore, m)
	users := newUsersHandler(deps.UserStore, deps.Recorder)
	rels := newRelationshipsHandler(deps.Relationships, deps.Recorder, m)
	avail := newAvailabilityHandler(deps.Relationships)
	invs := newInvitationsHandler(deps.Invitations, deps.Recorder, m)
	feed := newActivityHandler(deps.ActivityStore)

	// Per-IP limiters for the unauthenticated surfaces, swept by one janitor.
	loginLimiter := newLoginRateLimiter(loginRateLimitMax, loginRateLimitWindow)
	declineLimiter := newLoginRateLimiter(declineRateLimitMax, declineRateLimitWindow)
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			loginLimiter.cleanup()
			declineLimiter.cleanup()
		}
	}()

	// Health check.
	r.Get("/health", healthHandler(deps.DBPool))

	// Well-known manifest.
	r.Get("/.well-known/ultracrew.json", WellKnownHandler)

	// Prometheus metrics plus a JSON summary.
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/metrics/summary", m.SummaryHandler())

	// Public (unauthenticated) routes.
	r.Post("/api/v1/auth/signup", authH.Signup)
	r.With(ipRateLimit(loginLimiter, func() { m.IncRateLimitRejection("login") })).
		Post("/api/v1/auth/login", authH.Login)
	r.Post("/api/v1/invitations/accept/{token}", invs.Accept)
	r.With(ipRateLimit(declineLimiter, func() { m.IncRateLimitRejection("decline") })).
		Post("/api/v1/invitations/decline/{token}", invs.Decline)

	// Session-authed routes.
	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(auth.SessionAuthMiddleware(deps.Sessions))

		ar.Post("/auth/logout", authH.Logout)
		ar.Get("/users/me", authH.Me)
		ar.Put("/users/me", users.UpdateMe)

		ar.Get("/relationships", rels.List)
		ar.Post("/relationships", rels.Create)
		ar.Get("/relationships/{id}", rels.Get)
		ar.Put("/relationships/{id}", rels.Update)
		ar.Delete("/relationships/{id}", rels.Delete)

		ar.With(auth.RoleMiddleware(auth.RoleRunner)).Get("/coaches/available", avail.AvailableCoaches)
		ar.With(auth.RoleMiddleware(auth.RoleCoach)).Get("/runners/available", avail.AvailableRunners)

		ar.With(ratelimit.Middleware(deps.InviteLimiter, func() { m.IncRateLimitRejection("invite") })).
			Post("/invitations", invs.Create)
		ar.Get("/invitations", invs.List)
		ar.Post("/invitations/{id}/revoke", invs.Revoke)

		ar.Get("/activity", feed.List)
	})

	return r
}

// healthHandler reports liveness and the database's reachability. A nil pool
// (no database configured) still reports healthy.
func healthHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]string{"status": "ok", "database": "connected"}
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				resp["status"] = "degraded"
				resp["database"] = "unreachable"
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}
