package service

import (
	"strings"
	"testing"
	"time"

	"tillbook/backend/internal/domain"
)

func completedSale(method string, age time.Duration, now time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID:            "tx-1",
		Type:          domain.TxTypeSale,
		Status:        domain.TxStatusCompleted,
		PaymentMethod: method,
		TotalCents:    2500,
		CreatedAt:     now.Add(-age),
	}
}

func TestVoidEligibilityFreshCashSale(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	result := ValidateVoidEligibility(completedSale(domain.PaymentCash, 10*time.Minute, now), now)
	if !result.Allowed {
		t.Fatalf("expected allowed, got errors %v", result.Errors)
	}
	if result.RequiresManagerApproval {
		t.Fatalf("10-minute-old void must not require approval")
	}
}

func TestVoidEligibilityStaleSaleNeedsApproval(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	result := ValidateVoidEligibility(completedSale(domain.PaymentCash, 45*time.Minute, now), now)
	if !result.Allowed {
		t.Fatalf("expected allowed with approval, got errors %v", result.Errors)
	}
	if !result.RequiresManagerApproval {
		t.Fatalf("45-minute-old void must require manager approval")
	}
}

func TestVoidEligibilityCardSettlementWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	result := ValidateVoidEligibility(completedSale(domain.PaymentCard, 90*time.Minute, now), now)
	if result.Allowed {
		t.Fatalf("90-minute-old card void must be blocked outright")
	}
	if result.RequiresManagerApproval {
		t.Fatalf("the card settlement block is absolute, not approval-gated")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "refund") {
		t.Fatalf("error should point at refunds, got %v", result.Errors)
	}

	// A card void inside the window still only needs approval.
	inWindow := ValidateVoidEligibility(completedSale(domain.PaymentCard, 45*time.Minute, now), now)
	if !inWindow.Allowed || !inWindow.RequiresManagerApproval {
		t.Fatalf("45-minute card void should be allowed with approval, got %+v", inWindow)
	}
}

func TestVoidEligibilityRejectsNonVoidableStates(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	voided := completedSale(domain.PaymentCash, 5*time.Minute, now)
	voided.Status = domain.TxStatusVoided
	if result := ValidateVoidEligibility(voided, now); result.Allowed {
		t.Fatalf("already-voided transaction must not be voidable")
	}

	pending := completedSale(domain.PaymentCash, 5*time.Minute, now)
	pending.Status = domain.TxStatusPending
	if result := ValidateVoidEligibility(pending, now); result.Allowed {
		t.Fatalf("pending transaction must not be voidable")
	}

	refund := completedSale(domain.PaymentCash, 5*time.Minute, now)
	refund.Type = domain.TxTypeRefund
	if result := ValidateVoidEligibility(refund, now); result.Allowed {
		t.Fatalf("refund transactions must not be voidable")
	}
}

func TestVoidEligibilityRejectsPartiallyRefundedSale(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tx := completedSale(domain.PaymentCash, 5*time.Minute, now)
	tx.Items = []domain.TransactionItem{
		{ID: "item-1", ProductID: "prod-x", ProductName: "Product X", Quantity: 3, UnitPriceCents: 1000, RefundedQuantity: 1},
	}
	result := ValidateVoidEligibility(tx, now)
	if result.Allowed {
		t.Fatalf("sale with refunded units must not be voidable")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "refund") {
		t.Fatalf("error should direct to refunding the remainder, got %v", result.Errors)
	}
}

func saleWithItems(now time.Time, age time.Duration) *domain.Transaction {
	return &domain.Transaction{
		ID:        "tx-orig",
		Type:      domain.TxTypeSale,
		Status:    domain.TxStatusCompleted,
		CreatedAt: now.Add(-age),
		Items: []domain.TransactionItem{
			{ID: "item-1", ProductID: "prod-x", ProductName: "Product X", Quantity: 3, UnitPriceCents: 1000, RefundedQuantity: 1},
		},
	}
}

func TestRefundEligibilityQuantityCap(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	original := saleWithItems(now, time.Hour)

	ok := ValidateRefundEligibility(original, []domain.RefundItemInput{
		{ItemID: "item-1", Quantity: 2, RefundAmountCents: 2000},
	}, now)
	if !ok.IsValid {
		t.Fatalf("2 of 2 remaining should be refundable, got %v", ok.Errors)
	}

	over := ValidateRefundEligibility(original, []domain.RefundItemInput{
		{ItemID: "item-1", Quantity: 3, RefundAmountCents: 3000},
	}, now)
	if over.IsValid {
		t.Fatalf("refunding 3 with only 2 available must fail")
	}
	if len(over.Errors) == 0 || !strings.Contains(over.Errors[0], "only 2 of Product X") {
		t.Fatalf("error should name the product and availability, got %v", over.Errors)
	}
}

func TestRefundEligibilityUnknownItem(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	result := ValidateRefundEligibility(saleWithItems(now, time.Hour), []domain.RefundItemInput{
		{ItemID: "item-missing", Quantity: 1, RefundAmountCents: 1000},
	}, now)
	if result.IsValid {
		t.Fatalf("refund naming an unknown item must fail")
	}
}

func TestRefundEligibilityThirtyDayWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	result := ValidateRefundEligibility(saleWithItems(now, 31*24*time.Hour), []domain.RefundItemInput{
		{ItemID: "item-1", Quantity: 1, RefundAmountCents: 1000},
	}, now)
	if result.IsValid {
		t.Fatalf("31-day-old transaction must not be refundable")
	}
	if len(result.Errors) == 0 || !strings.Contains(result.Errors[0], "30 days") {
		t.Fatalf("error should cite the 30-day window, got %v", result.Errors)
	}
}

func TestRefundEligibilityVoidedOriginal(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	original := saleWithItems(now, time.Hour)
	original.Status = domain.TxStatusVoided
	result := ValidateRefundEligibility(original, []domain.RefundItemInput{
		{ItemID: "item-1", Quantity: 1, RefundAmountCents: 1000},
	}, now)
	if result.IsValid {
		t.Fatalf("voided transaction must not be refundable")
	}
}
