package ratelimit

import (
	"context"
	"time"
)

// OverrideLookup resolves a per-user rate override. A return of 0 means no
// override is configured.
type OverrideLookup interface {
	Get(ctx context.Context, userID string) (int, error)
}

// InviteLimiter enforces per-user invitation send rates. Each user gets an
// independent bucket; the rate is the user's override when one exists,
// otherwise the configured fallback.
type InviteLimiter struct {
	limiter   *Limiter
	overrides OverrideLookup
	fallback  int
}

// NewInviteLimiter creates an InviteLimiter using the given in-memory limiter
// and override lookup. fallback is the per-minute rate applied to users
// without an override; a fallback of 0 disables limiting for them.
func NewInviteLimiter(limiter *Limiter, overrides OverrideLookup, fallback int) *InviteLimiter {
	return &InviteLimiter{limiter: limiter, overrides: overrides, fallback: fallback}
}

// Check resolves the effective rate for the user and consumes one token.
// Returns the bucket state for response headers. A resolved rate of 0 means
// the user is not limited; limit is 0 in that case.
func (il *InviteLimiter) Check(ctx context.Context, userID string) (allowed bool, limit, remaining int, resetAt time.Time, err error) {
	rate, err := il.overrides.Get(ctx, userID)
	if err != nil {
		return false, 0, 0, time.Time{}, err
	}
	if rate <= 0 {
		rate = il.fallback
	}
	if rate <= 0 {
		return true, 0, 0, time.Time{}, nil
	}

	key := "invite:" + userID
	allowed = il.limiter.Allow(key, rate)
	limit, remaining, resetAt = il.limiter.Status(key, rate)
	return allowed, limit, remaining, resetAt, nil
}
