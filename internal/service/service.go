// Package service implements the ledger engine's business rules on top of a
// store.Repository: sale/void/refund posting, drawer reconciliation, shift
// lifecycle and the auto-close sweeps, and inventory adjustments.
package service

import (
	"context"
	"log"
	"time"

	"tillbook/backend/internal/cache"
	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store"
)

type Service struct {
	repo       store.Repository
	cache      cache.DrawerBalanceCache
	drawerTTL  time.Duration
	businessID string

	// now is swapped in tests to pin the clock. All time-window rules in
	// one operation evaluate against a single captured instant.
	now func() time.Time
}

func New(repo store.Repository, drawerCache cache.DrawerBalanceCache, businessID string, drawerTTL time.Duration) *Service {
	if drawerCache == nil {
		drawerCache = cache.NoopDrawerBalanceCache{}
	}
	if drawerTTL <= 0 {
		drawerTTL = 10 * time.Second
	}
	return &Service{
		repo:       repo,
		cache:      drawerCache,
		drawerTTL:  drawerTTL,
		businessID: businessID,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor attaches the authenticated caller so audit entries can record
// who performed an operation.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	return actor, ok
}

// logAudit is best-effort: a failed audit write is logged and never fails
// the operation it describes.
func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, _ := ActorFromContext(ctx)
	entry := domain.AuditLog{
		BusinessID: s.businessID,
		ActorID:    actor.Username,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now(),
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		log.Printf("[service] WARN: audit log write failed for %s %s: %v", action, entityID, err)
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, s.businessID, from, to, limit)
}
