package service

import (
	"context"
	"fmt"
	"strings"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store"
)

var adjustmentTypes = map[string]bool{
	domain.AdjustmentAdd:        true,
	domain.AdjustmentRemove:     true,
	domain.AdjustmentSale:       true,
	domain.AdjustmentWaste:      true,
	domain.AdjustmentCorrection: true,
}

// ApplyStockAdjustment applies one signed stock delta and records it as an
// immutable adjustment row. Stock floors at zero; the recorded quantity is
// the requested delta, not the clamped one, so the audit trail reflects
// what was asked for.
func (s *Service) ApplyStockAdjustment(ctx context.Context, req domain.StockAdjustmentRequest) (*domain.StockAdjustment, error) {
	if !adjustmentTypes[req.Type] {
		return nil, fmt.Errorf("%w: unknown adjustment type %q", store.ErrValidation, req.Type)
	}
	if req.Quantity == 0 {
		return nil, fmt.Errorf("%w: adjustment quantity must not be zero", store.ErrValidation)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: adjustment reason is required", store.ErrValidation)
	}

	// Removal-flavored types carry negative deltas; normalize so callers
	// can pass either sign.
	quantity := req.Quantity
	switch req.Type {
	case domain.AdjustmentRemove, domain.AdjustmentSale, domain.AdjustmentWaste:
		if quantity > 0 {
			quantity = -quantity
		}
	case domain.AdjustmentAdd:
		if quantity < 0 {
			return nil, fmt.Errorf("%w: add adjustments require a positive quantity", store.ErrValidation)
		}
	}

	userID := req.UserID
	if userID == "" {
		if actor, ok := ActorFromContext(ctx); ok {
			userID = actor.Username
		}
	}

	adj, err := s.repo.ApplyStockAdjustment(ctx, domain.StockAdjustment{
		ProductID: req.ProductID,
		Type:      req.Type,
		Quantity:  quantity,
		Reason:    req.Reason,
		UserID:    userID,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "inventory.adjusted", "product", adj.ProductID,
		fmt.Sprintf("%s %+d: %s", adj.Type, adj.Quantity, adj.Reason))
	return adj, nil
}

func (s *Service) GetProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.GetProductByID(ctx, productID)
}

func (s *Service) ListStockAdjustments(ctx context.Context, productID string, limit int) ([]domain.StockAdjustment, error) {
	return s.repo.ListStockAdjustments(ctx, productID, limit)
}
