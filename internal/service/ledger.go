package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store"
	"tillbook/backend/internal/xid"
)

// CreateSaleTransaction posts a sale against an active shift. Subtotal, tax
// and the payment split are recorded as given; the engine validates the
// split adds up but does not derive tax itself. Stock is NOT deducted here:
// the caller issues explicit sale-type adjustments per item so weight-based
// and untracked products can skip deduction.
func (s *Service) CreateSaleTransaction(ctx context.Context, input domain.SaleInput) (*domain.Transaction, error) {
	if input.ShiftID == "" {
		return nil, fmt.Errorf("%w: shift id required", store.ErrValidation)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: sale requires at least one item", store.ErrValidation)
	}
	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: item quantity must be positive", store.ErrValidation)
		}
		if item.UnitPriceCents < 0 {
			return nil, fmt.Errorf("%w: unit price must not be negative", store.ErrValidation)
		}
	}

	cashAmount, cardAmount, err := normalizePaymentSplit(input.PaymentMethod, input.TotalCents, input.CashAmountCents, input.CardAmountCents)
	if err != nil {
		return nil, err
	}

	status := input.Status
	switch status {
	case "":
		status = domain.TxStatusCompleted
	case domain.TxStatusPending, domain.TxStatusCompleted:
	default:
		return nil, fmt.Errorf("%w: invalid sale status %q", store.ErrValidation, status)
	}

	receipt := input.ReceiptNumber
	if receipt == "" {
		receipt = xid.New("rcpt")
	}

	actor, _ := ActorFromContext(ctx)
	businessID := input.BusinessID
	if businessID == "" {
		businessID = s.businessID
	}

	tx := domain.Transaction{
		ShiftID:         input.ShiftID,
		BusinessID:      businessID,
		Type:            domain.TxTypeSale,
		SubtotalCents:   input.SubtotalCents,
		TaxCents:        input.TaxCents,
		TotalCents:      input.TotalCents,
		PaymentMethod:   input.PaymentMethod,
		CashAmountCents: cashAmount,
		CardAmountCents: cardAmount,
		Status:          status,
		ReceiptNumber:   receipt,
		CashierID:       actor.Username,
		CreatedAt:       s.now(),
		Items:           make([]domain.TransactionItem, 0, len(input.Items)),
	}
	for _, item := range input.Items {
		lineTotal := item.UnitPriceCents * int64(item.Quantity)
		for _, mod := range item.Modifiers {
			lineTotal += mod.PriceDeltaCents * int64(item.Quantity)
		}
		tx.Items = append(tx.Items, domain.TransactionItem{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalPriceCents: lineTotal,
			WeightGrams:     item.WeightGrams,
			Modifiers:       item.Modifiers,
		})
	}

	created, err := s.repo.CreateSaleTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "transaction.sale.created", "transaction", created.ID,
		fmt.Sprintf("receipt %s, total %d cents, %s", created.ReceiptNumber, created.TotalCents, created.PaymentMethod))
	return created, nil
}

// normalizePaymentSplit makes cash_amount the single source of truth for
// drawer math: cash sales carry the full total there, card sales zero,
// mixed whatever the caller split out (which must sum to total).
func normalizePaymentSplit(method string, total int64, cashAmount int64, cardAmount int64) (int64, int64, error) {
	switch method {
	case domain.PaymentCash:
		return total, 0, nil
	case domain.PaymentCard:
		return 0, total, nil
	case domain.PaymentMixed:
		if cashAmount < 0 || cardAmount < 0 {
			return 0, 0, fmt.Errorf("%w: split amounts must not be negative", store.ErrValidation)
		}
		if cashAmount+cardAmount != total {
			return 0, 0, fmt.Errorf("%w: cash and card amounts must sum to the total", store.ErrValidation)
		}
		return cashAmount, cardAmount, nil
	default:
		return 0, 0, fmt.Errorf("%w: invalid payment method %q", store.ErrValidation, method)
	}
}

// VoidTransaction reverses a completed sale as if it never happened: status
// flips to voided, every item restocks in full, shift totals back out the
// sale. Business-rule rejections come back as {success:false, message} so
// the terminal can show the reason; only infrastructure failures error.
func (s *Service) VoidTransaction(ctx context.Context, req domain.VoidRequest) (*domain.VoidResult, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return &domain.VoidResult{Success: false, Message: "void reason is required"}, nil
	}

	now := s.now()
	tx, err := s.repo.GetTransactionByID(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}

	eligibility := ValidateVoidEligibility(tx, now)
	if !eligibility.Allowed {
		return &domain.VoidResult{Success: false, Message: strings.Join(eligibility.Errors, "; ")}, nil
	}
	if eligibility.RequiresManagerApproval && req.ManagerApprovalID == "" {
		return &domain.VoidResult{
			Success: false,
			Message: "manager approval required to void a transaction older than 30 minutes",
		}, nil
	}

	voided, err := s.repo.VoidTransaction(ctx, req.TransactionID, req.CashierID, req.Reason, req.ManagerApprovalID, now)
	if err != nil {
		// Lost a race with another terminal; render it, don't error.
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrValidation) {
			return &domain.VoidResult{Success: false, Message: err.Error()}, nil
		}
		return nil, err
	}

	s.logAudit(ctx, "transaction.voided", "transaction", voided.ID,
		fmt.Sprintf("reason %q, approval %q, original amount %d cents", req.Reason, req.ManagerApprovalID, voided.TotalCents))
	return &domain.VoidResult{Success: true, Message: "transaction voided"}, nil
}

// CreateRefundTransaction posts a refund as a new transaction linked to the
// original. Tax is prorated at the original sale's effective rate; the
// original's monetary fields never change, only its items' refunded
// quantities.
func (s *Service) CreateRefundTransaction(ctx context.Context, input domain.RefundInput) (*domain.Transaction, error) {
	now := s.now()
	original, err := s.repo.GetTransactionByID(ctx, input.OriginalTransactionID)
	if err != nil {
		return nil, err
	}

	eligibility := ValidateRefundEligibility(original, input.Items, now)
	if !eligibility.IsValid {
		return nil, fmt.Errorf("%w: %s", store.ErrValidation, strings.Join(eligibility.Errors, "; "))
	}

	var refundSubtotal int64
	for _, item := range input.Items {
		if item.RefundAmountCents < 0 {
			return nil, fmt.Errorf("%w: refund amount must not be negative", store.ErrValidation)
		}
		refundSubtotal += item.RefundAmountCents
	}
	refundTax := prorateTax(refundSubtotal, original.TaxCents, original.SubtotalCents)
	refundTotal := refundSubtotal + refundTax

	method, cashAmount, cardAmount, err := resolveRefundMethod(input.Method, original.PaymentMethod, refundTotal)
	if err != nil {
		return nil, err
	}

	refund := domain.Transaction{
		ShiftID:               original.ShiftID,
		BusinessID:            original.BusinessID,
		Type:                  domain.TxTypeRefund,
		SubtotalCents:         -refundSubtotal,
		TaxCents:              -refundTax,
		TotalCents:            -refundTotal,
		PaymentMethod:         method,
		CashAmountCents:       cashAmount,
		CardAmountCents:       cardAmount,
		Status:                domain.TxStatusCompleted,
		ReceiptNumber:         xid.New("rcpt"),
		CashierID:             input.CashierID,
		OriginalTransactionID: original.ID,
		RefundReason:          input.Reason,
		RefundMethod:          method,
		ManagerApprovalID:     input.ManagerApprovalID,
		IsPartialRefund:       isPartialRefund(original, input.Items),
		CreatedAt:             now,
	}

	created, err := s.repo.CreateRefundTransaction(ctx, refund, input.Items)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "transaction.refund.created", "transaction", created.ID,
		fmt.Sprintf("original %s, amount %d cents, method %s", original.ID, -created.TotalCents, method))
	return created, nil
}

// prorateTax applies the original sale's effective tax rate to the refunded
// subtotal fraction: round(refundSubtotal * tax / subtotal).
func prorateTax(refundSubtotal int64, originalTax int64, originalSubtotal int64) int64 {
	if originalSubtotal <= 0 || originalTax == 0 {
		return 0
	}
	return int64(math.Round(float64(refundSubtotal) * float64(originalTax) / float64(originalSubtotal)))
}

// resolveRefundMethod maps the requested method onto a concrete payment
// method and drawer split. "original" follows the sale it refunds; a mixed
// original pays back in cash since the card split is not recoverable per
// item. Store credit persists verbatim and contributes nothing to the
// drawer (no balance ledger exists behind it).
func resolveRefundMethod(requested string, originalMethod string, refundTotal int64) (string, int64, int64, error) {
	method := requested
	if method == "" || method == domain.RefundMethodOriginal {
		method = originalMethod
		if method == domain.PaymentMixed {
			method = domain.PaymentCash
		}
	}
	switch method {
	case domain.RefundMethodCash:
		return method, -refundTotal, 0, nil
	case domain.RefundMethodCard:
		return method, 0, -refundTotal, nil
	case domain.RefundMethodStoreCredit:
		return method, 0, 0, nil
	default:
		return "", 0, 0, fmt.Errorf("%w: invalid refund method %q", store.ErrValidation, requested)
	}
}

// isPartialRefund: fewer items than the original carries, or any item
// refunded below its original quantity.
func isPartialRefund(original *domain.Transaction, items []domain.RefundItemInput) bool {
	if len(items) < len(original.Items) {
		return true
	}
	originalByID := make(map[string]int, len(original.Items))
	for _, item := range original.Items {
		originalByID[item.ID] = item.Quantity
	}
	for _, item := range items {
		if qty, exists := originalByID[item.ItemID]; exists && item.Quantity < qty {
			return true
		}
	}
	return false
}

func (s *Service) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.repo.GetTransactionByID(ctx, id)
}

func (s *Service) ListTransactionsByShift(ctx context.Context, shiftID string) ([]domain.Transaction, error) {
	return s.repo.ListTransactionsByShift(ctx, shiftID)
}
