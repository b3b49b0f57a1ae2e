package service

import (
	"context"
	"testing"
	"time"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store/memory"
)

// newTestService wires a Service onto a fresh in-memory store with the
// clock pinned to *nowRef; tests advance time by reassigning through the
// pointer.
func newTestService(nowRef *time.Time) (*Service, *memory.Store) {
	st := memory.New()
	svc := New(st, nil, "biz-test", time.Second)
	svc.now = func() time.Time { return *nowRef }
	return svc, st
}

func seedActiveShift(st *memory.Store, id string, cashierID string, startingCashCents int64, startTime time.Time) {
	st.SeedShift(domain.Shift{
		ID:                id,
		CashierID:         cashierID,
		BusinessID:        "biz-test",
		StartTime:         startTime,
		Status:            domain.ShiftStatusActive,
		StartingCashCents: startingCashCents,
	})
}

func mustCreateSale(t *testing.T, svc *Service, input domain.SaleInput) *domain.Transaction {
	t.Helper()
	tx, err := svc.CreateSaleTransaction(context.Background(), input)
	if err != nil {
		t.Fatalf("CreateSaleTransaction: %v", err)
	}
	return tx
}

func cashSale(shiftID string, totalCents int64, items ...domain.SaleItemInput) domain.SaleInput {
	if len(items) == 0 {
		items = []domain.SaleItemInput{{
			ProductID:      "prod-1",
			ProductName:    "Widget",
			Quantity:       1,
			UnitPriceCents: totalCents,
		}}
	}
	return domain.SaleInput{
		ShiftID:       shiftID,
		Items:         items,
		PaymentMethod: domain.PaymentCash,
		SubtotalCents: totalCents,
		TotalCents:    totalCents,
	}
}
