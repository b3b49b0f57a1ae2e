package cache

import (
	"context"
	"time"

	"tillbook/backend/internal/domain"
)

// DrawerBalanceCache holds recent drawer-balance answers so a terminal
// polling its drawer does not recompute the expectation on every request.
// Writes always invalidate through TTL; the engine never trusts the cache
// for variance bookkeeping.
type DrawerBalanceCache interface {
	Get(ctx context.Context, key string) (*domain.DrawerBalance, bool, error)
	Set(ctx context.Context, key string, value *domain.DrawerBalance, ttl time.Duration) error
}

type NoopDrawerBalanceCache struct{}

func (NoopDrawerBalanceCache) Get(_ context.Context, _ string) (*domain.DrawerBalance, bool, error) {
	return nil, false, nil
}

func (NoopDrawerBalanceCache) Set(_ context.Context, _ string, _ *domain.DrawerBalance, _ time.Duration) error {
	return nil
}
