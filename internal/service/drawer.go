package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store"
)

// GetExpectedCashForShift derives the drawer expectation purely from the
// transaction log: startingCash + cashSales - cashRefunds - cashVoids.
// Voided cash sales appear in both the sales and voids buckets and net to
// zero, so the figure is recomputable for audit at any time.
func (s *Service) GetExpectedCashForShift(ctx context.Context, shiftID string) (*domain.ExpectedCash, error) {
	shift, err := s.repo.GetShiftByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	cashSales, cashRefunds, cashVoids, err := s.repo.GetShiftCashTotals(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return &domain.ExpectedCash{
		ShiftID:             shiftID,
		ExpectedAmountCents: shift.StartingCashCents + cashSales - cashRefunds - cashVoids,
		Breakdown: domain.ExpectedCashBreakdown{
			StartingCashCents: shift.StartingCashCents,
			CashSalesCents:    cashSales,
			CashRefundsCents:  cashRefunds,
			CashVoidsCents:    cashVoids,
		},
	}, nil
}

// GetCurrentCashDrawerBalance answers a terminal's drawer poll: the latest
// physical count when one exists, otherwise the computed expectation
// flagged as an estimate. Answers are cached briefly; the cache is never
// consulted for variance bookkeeping.
func (s *Service) GetCurrentCashDrawerBalance(ctx context.Context, shiftID string) (*domain.DrawerBalance, error) {
	key := drawerBalanceKey(shiftID)
	if cached, hit, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: drawer balance cache read failed for %s: %v", shiftID, err)
	} else if hit {
		return cached, nil
	}

	var balance *domain.DrawerBalance
	latest, err := s.repo.GetLatestCashDrawerCount(ctx, shiftID)
	switch {
	case err == nil:
		balance = &domain.DrawerBalance{
			ShiftID:       shiftID,
			AmountCents:   latest.CountedAmountCents,
			IsEstimated:   false,
			VarianceCents: latest.VarianceCents,
		}
	case errors.Is(err, store.ErrNotFound):
		expected, err := s.GetExpectedCashForShift(ctx, shiftID)
		if err != nil {
			return nil, err
		}
		balance = &domain.DrawerBalance{
			ShiftID:     shiftID,
			AmountCents: expected.ExpectedAmountCents,
			IsEstimated: true,
		}
	default:
		return nil, err
	}

	if err := s.cache.Set(ctx, key, balance, s.drawerTTL); err != nil {
		log.Printf("[service] WARN: drawer balance cache write failed for %s: %v", shiftID, err)
	}
	return balance, nil
}

// CreateCashDrawerCount records a physical count. Variance is computed
// against the expectation at this instant and persisted immutably; later
// sales never rewrite it.
func (s *Service) CreateCashDrawerCount(ctx context.Context, req domain.CashCountRequest) (*domain.CashDrawerCount, error) {
	if req.CountedAmountCents < 0 {
		return nil, fmt.Errorf("%w: counted amount must not be negative", store.ErrValidation)
	}

	expected, err := s.GetExpectedCashForShift(ctx, req.ShiftID)
	if err != nil {
		return nil, err
	}

	count := domain.CashDrawerCount{
		ShiftID:             req.ShiftID,
		CountType:           req.CountType,
		ExpectedAmountCents: expected.ExpectedAmountCents,
		CountedAmountCents:  req.CountedAmountCents,
		VarianceCents:       req.CountedAmountCents - expected.ExpectedAmountCents,
		CountedBy:           req.CountedBy,
		CreatedAt:           s.now(),
	}
	created, err := s.repo.CreateCashDrawerCount(ctx, count)
	if err != nil {
		return nil, err
	}

	// Refresh the cached balance so the next poll reflects the count.
	balance := &domain.DrawerBalance{
		ShiftID:       req.ShiftID,
		AmountCents:   created.CountedAmountCents,
		IsEstimated:   false,
		VarianceCents: created.VarianceCents,
	}
	if err := s.cache.Set(ctx, drawerBalanceKey(req.ShiftID), balance, s.drawerTTL); err != nil {
		log.Printf("[service] WARN: drawer balance cache write failed for %s: %v", req.ShiftID, err)
	}

	s.logAudit(ctx, "drawer.count.created", "cash_drawer_count", created.ID,
		fmt.Sprintf("%s count on shift %s: counted %d, expected %d, variance %d cents",
			created.CountType, req.ShiftID, created.CountedAmountCents,
			created.ExpectedAmountCents, created.VarianceCents))
	return created, nil
}

func (s *Service) ListCashDrawerCounts(ctx context.Context, shiftID string) ([]domain.CashDrawerCount, error) {
	return s.repo.ListCashDrawerCounts(ctx, shiftID)
}

func drawerBalanceKey(shiftID string) string {
	return "drawer-balance:" + shiftID
}
