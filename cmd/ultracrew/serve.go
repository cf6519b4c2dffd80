package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/ultracrew/ultracrew/internal/activity"
	"github.com/ultracrew/ultracrew/internal/api"
	"github.com/ultracrew/ultracrew/internal/config"
	"github.com/ultracrew/ultracrew/internal/crypto"
	"github.com/ultracrew/ultracrew/internal/invitation"
	"github.com/ultracrew/ultracrew/internal/metrics"
	"github.com/ultracrew/ultracrew/internal/ratelimit"
	"github.com/ultracrew/ultracrew/internal/relationship"
	"github.com/ultracrew/ultracrew/internal/user"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the UltraCrew API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(newLogHandler(cfg.Logging))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	slog.Info("connected to database")

	cipher, err := crypto.NewCipher(cfg.Encryption.Key)
	if err != nil {
		return err
	}
	if cipher == nil {
		slog.Warn("encryption key not set, relationship notes will be stored in plaintext")
	}

	userStore := user.NewStore(pool, cfg.Auth.SessionDuration)
	relStore := relationship.NewStore(pool, cipher)
	relService := relationship.NewService(relStore, userStore)
	invStore := invitation.NewStore(pool, cipher)
	invService, err := invitation.NewService(invStore, relStore, userStore, cfg.Invitations.Expiry, cfg.Invitations.LinkTemplate)
	if err != nil {
		return err
	}

	activityStore := activity.NewStore(pool)
	recorder := activity.NewRecorder(activityStore, cfg.Activity.BatchSize, cfg.Activity.FlushInterval)
	go recorder.Start(ctx)

	limiter := ratelimit.New(cfg.RateLimit.Default, cfg.RateLimit.Window)
	overrides := ratelimit.NewOverrideStore(pool)
	inviteLimiter := ratelimit.NewInviteLimiter(limiter, overrides, cfg.RateLimit.Default)

	m := metrics.New()
	m.RegisterDBPoolCollector(func() (total, idle, acquired int32) {
		stat := pool.Stat()
		return stat.TotalConns(), stat.IdleConns(), stat.AcquiredConns()
	})

	router := api.NewRouter(api.RouterDeps{
		DBPool:         pool,
		UserStore:      userStore,
		Sessions:       user.NewAuthAdapter(userStore),
		Relationships:  relService,
		Invitations:    invService,
		ActivityStore:  activityStore,
		Recorder:       recorder,
		InviteLimiter:  inviteLimiter,
		Metrics:        m,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := userStore.CleanExpiredSessions(ctx)
				if err != nil {
					slog.Error("session cleanup failed", "error", err)
					continue
				}
				if n > 0 {
					slog.Info("cleaned expired sessions", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	recorder.Stop()

	return srv.Shutdown(shutdownCtx)
}

func newLogHandler(cfg config.LoggingConfig) slog.Handler {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.NewJSONHandler(os.Stdout, opts)
}
