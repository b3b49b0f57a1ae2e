package service

import (
	"context"
	"fmt"
	"time"

	"tillbook/backend/internal/domain"
)

const (
	// Voids older than this need a manager's sign-off.
	voidApprovalWindow = 30 * time.Minute
	// Card payments may be settled with the processor after this; the
	// block is absolute, no approval overrides it.
	cardVoidWindow = 60 * time.Minute
	// Refunds are refused outright past this age.
	refundWindow = 30 * 24 * time.Hour
)

// ValidateVoidEligibility decides whether a transaction can be voided at
// instant now. Pure: no lookups, no side effects.
func ValidateVoidEligibility(tx *domain.Transaction, now time.Time) domain.VoidEligibility {
	result := domain.VoidEligibility{Allowed: true, Errors: []string{}}

	if tx.Type == domain.TxTypeRefund {
		result.Allowed = false
		result.Errors = append(result.Errors, "refund transactions cannot be voided")
		return result
	}
	if tx.Status == domain.TxStatusVoided {
		result.Allowed = false
		result.Errors = append(result.Errors, "transaction is already voided")
		return result
	}
	if tx.Status != domain.TxStatusCompleted {
		result.Allowed = false
		result.Errors = append(result.Errors, "only completed transactions can be voided")
		return result
	}
	// A void restocks every item in full; refunded units were already
	// restocked, so voiding on top would double-count them.
	for _, item := range tx.Items {
		if item.RefundedQuantity > 0 {
			result.Allowed = false
			result.Errors = append(result.Errors,
				"transaction has refunded items; refund the remaining quantity instead of voiding")
			return result
		}
	}

	age := now.Sub(tx.CreatedAt)
	if age > voidApprovalWindow {
		result.RequiresManagerApproval = true
	}
	if tx.PaymentMethod == domain.PaymentCard && age > cardVoidWindow {
		result.Allowed = false
		result.RequiresManagerApproval = false
		result.Errors = append(result.Errors,
			"card payment may already be settled; use a refund instead of a void")
	}
	return result
}

// ValidateRefundEligibility checks a refund request against the original
// transaction's current state. Pure: the store re-validates the same
// quantities under lock at write time.
func ValidateRefundEligibility(original *domain.Transaction, items []domain.RefundItemInput, now time.Time) domain.RefundEligibility {
	result := domain.RefundEligibility{IsValid: true, Errors: []string{}}

	if original.Type != domain.TxTypeSale {
		result.IsValid = false
		result.Errors = append(result.Errors, "only sale transactions can be refunded")
		return result
	}
	if original.Status == domain.TxStatusVoided {
		result.IsValid = false
		result.Errors = append(result.Errors, "voided transactions cannot be refunded")
		return result
	}
	if original.Status != domain.TxStatusCompleted {
		result.IsValid = false
		result.Errors = append(result.Errors, "only completed transactions can be refunded")
		return result
	}
	if now.Sub(original.CreatedAt) > refundWindow {
		result.IsValid = false
		result.Errors = append(result.Errors, "transaction is older than 30 days and can no longer be refunded")
		return result
	}
	if len(items) == 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, "refund requires at least one item")
		return result
	}

	originalByID := make(map[string]*domain.TransactionItem, len(original.Items))
	for i := range original.Items {
		originalByID[original.Items[i].ID] = &original.Items[i]
	}
	for _, item := range items {
		origItem, exists := originalByID[item.ItemID]
		if !exists {
			result.IsValid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("item %s is not on the original transaction", item.ItemID))
			continue
		}
		if item.Quantity < 1 {
			result.IsValid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("refund quantity for %s must be positive", origItem.ProductName))
			continue
		}
		available := origItem.Quantity - origItem.RefundedQuantity
		if item.Quantity > available {
			result.IsValid = false
			result.Errors = append(result.Errors,
				fmt.Sprintf("only %d of %s available to refund", available, origItem.ProductName))
		}
	}
	return result
}

// ValidateVoidEligibilityByID is the lookup-backed variant exposed to the
// API layer.
func (s *Service) ValidateVoidEligibilityByID(ctx context.Context, transactionID string) (*domain.VoidEligibility, error) {
	tx, err := s.repo.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	result := ValidateVoidEligibility(tx, s.now())
	return &result, nil
}

func (s *Service) ValidateRefundEligibilityByID(ctx context.Context, transactionID string, items []domain.RefundItemInput) (*domain.RefundEligibility, error) {
	tx, err := s.repo.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	result := ValidateRefundEligibility(tx, items, s.now())
	return &result, nil
}
