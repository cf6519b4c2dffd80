package ratelimit

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OverrideStore persists per-user invitation send-rate overrides.
type OverrideStore struct {
	pool *pgxpool.Pool
}

// NewOverrideStore creates a new OverrideStore.
func NewOverrideStore(pool *pgxpool.Pool) *OverrideStore {
	return &OverrideStore{pool: pool}
}

// Get returns the per-minute override for the given user, or 0 when no
// override is configured.
func (s *OverrideStore) Get(ctx context.Context, userID string) (int, error) {
	var perMinute int
	err := s.pool.QueryRow(ctx,
		`SELECT per_minute FROM invite_rate_overrides WHERE user_id = $1`,
		userID).Scan(&perMinute)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("getting invite rate override: %w", err)
	}
	return perMinute, nil
}

// Set upserts the per-minute override for the given user.
func (s *OverrideStore) Set(ctx context.Context, userID string, perMinute int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invite_rate_overrides (user_id, per_minute)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET per_minute = EXCLUDED.per_minute, updated_at = now()`,
		userID, perMinute)
	if err != nil {
		return fmt.Errorf("upserting invite rate override: %w", err)
	}
	return nil
}
