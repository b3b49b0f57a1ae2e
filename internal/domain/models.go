package domain

import "time"

// Shift is one cashier's work session. Transactions and cash drawer counts
// reference it by id; running totals are maintained by the store inside the
// same write that records the transaction.
type Shift struct {
	ID                      string     `json:"id"`
	CashierID               string     `json:"cashier_id"`
	BusinessID              string     `json:"business_id"`
	ScheduleID              string     `json:"schedule_id,omitempty"`
	StartTime               time.Time  `json:"start_time"`
	EndTime                 *time.Time `json:"end_time,omitempty"`
	Status                  string     `json:"status"`
	StartingCashCents       int64      `json:"starting_cash_cents"`
	FinalCashDrawerCents    int64      `json:"final_cash_drawer_cents"`
	ExpectedCashDrawerCents int64      `json:"expected_cash_drawer_cents"`
	CashVarianceCents       int64      `json:"cash_variance_cents"`
	TotalSalesCents         int64      `json:"total_sales_cents"`
	TotalTransactions       int        `json:"total_transactions"`
	TotalRefundsCents       int64      `json:"total_refunds_cents"`
	TotalVoidsCents         int64      `json:"total_voids_cents"`
	PendingManagerReview    bool       `json:"pending_manager_review"`
	Notes                   string     `json:"notes,omitempty"`
}

// Transaction is a monetary event, immutable once completed except for the
// void status transition and refunded-quantity counters on its items. A
// refund is a new row linked to the original via OriginalTransactionID; it
// carries negative subtotal/tax/total and negative item quantities.
type Transaction struct {
	ID                    string            `json:"id"`
	ShiftID               string            `json:"shift_id"`
	BusinessID            string            `json:"business_id"`
	Type                  string            `json:"type"`
	SubtotalCents         int64             `json:"subtotal_cents"`
	TaxCents              int64             `json:"tax_cents"`
	TotalCents            int64             `json:"total_cents"`
	PaymentMethod         string            `json:"payment_method"`
	CashAmountCents       int64             `json:"cash_amount_cents"`
	CardAmountCents       int64             `json:"card_amount_cents"`
	Status                string            `json:"status"`
	ReceiptNumber         string            `json:"receipt_number"`
	CashierID             string            `json:"cashier_id"`
	VoidReason            string            `json:"void_reason,omitempty"`
	VoidedAt              *time.Time        `json:"voided_at,omitempty"`
	OriginalTransactionID string            `json:"original_transaction_id,omitempty"`
	RefundReason          string            `json:"refund_reason,omitempty"`
	RefundMethod          string            `json:"refund_method,omitempty"`
	ManagerApprovalID     string            `json:"manager_approval_id,omitempty"`
	IsPartialRefund       bool              `json:"is_partial_refund"`
	CreatedAt             time.Time         `json:"created_at"`
	Items                 []TransactionItem `json:"items"`
}

// TransactionItem is one line of a transaction. ProductID is a weak
// reference; name and prices are snapshots taken at sale time.
// RefundedQuantity is cumulative and only meaningful on sale items.
type TransactionItem struct {
	ID               string            `json:"id"`
	ProductID        string            `json:"product_id"`
	ProductName      string            `json:"product_name"`
	Quantity         int               `json:"quantity"`
	UnitPriceCents   int64             `json:"unit_price_cents"`
	TotalPriceCents  int64             `json:"total_price_cents"`
	RefundedQuantity int               `json:"refunded_quantity"`
	WeightGrams      float64           `json:"weight_grams,omitempty"`
	Modifiers        []AppliedModifier `json:"modifiers,omitempty"`
}

// AppliedModifier is a snapshot of a product modifier at sale time, owned by
// its parent item and persisted as a child table row.
type AppliedModifier struct {
	ID              string `json:"id"`
	ModifierID      string `json:"modifier_id"`
	Name            string `json:"name"`
	PriceDeltaCents int64  `json:"price_delta_cents"`
}

// CashDrawerCount is a point-in-time physical count. Variance is computed at
// insert time and never recomputed.
type CashDrawerCount struct {
	ID                  string    `json:"id"`
	ShiftID             string    `json:"shift_id"`
	CountType           string    `json:"count_type"`
	ExpectedAmountCents int64     `json:"expected_amount_cents"`
	CountedAmountCents  int64     `json:"counted_amount_cents"`
	VarianceCents       int64     `json:"variance_cents"`
	CountedBy           string    `json:"counted_by"`
	CreatedAt           time.Time `json:"created_at"`
}

// StockAdjustment is the immutable audit record of one inventory delta.
// Every stock mutation in this engine produces exactly one of these.
type StockAdjustment struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Type      string    `json:"type"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Product carries only what the engine needs: a stock quantity to apply
// deltas against and a snapshot name. Product CRUD lives outside this
// backend.
type Product struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	PriceCents     int64  `json:"price_cents"`
	StockQty       int    `json:"stock_qty"`
	TrackInventory bool   `json:"track_inventory"`
	Active         bool   `json:"active"`
}

// Schedule is a read-only back-reference used by the auto-close sweeps.
type Schedule struct {
	ID        string    `json:"id"`
	CashierID string    `json:"cashier_id"`
	StartAt   time.Time `json:"start_at"`
	EndAt     time.Time `json:"end_at"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	BusinessID string    `json:"business_id"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ManagerApproval is minted when a manager PIN validates; its id is what
// void/refund requests carry as managerApprovalId.
type ManagerApprovalRequest struct {
	PIN string `json:"pin"`
}

type ManagerApproval struct {
	ApprovalID string `json:"approval_id"`
	IssuedAt   string `json:"issued_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type SaleItemInput struct {
	ProductID      string            `json:"product_id"`
	ProductName    string            `json:"product_name"`
	Quantity       int               `json:"quantity"`
	UnitPriceCents int64             `json:"unit_price_cents"`
	WeightGrams    float64           `json:"weight_grams,omitempty"`
	Modifiers      []AppliedModifier `json:"modifiers,omitempty"`
}

// SaleInput carries everything createSaleTransaction needs. Subtotal, tax
// and the payment split are inputs: the engine records them, it does not
// derive tax from a jurisdiction model.
type SaleInput struct {
	ShiftID         string          `json:"shift_id"`
	BusinessID      string          `json:"business_id"`
	Items           []SaleItemInput `json:"items"`
	PaymentMethod   string          `json:"payment_method"`
	CashAmountCents int64           `json:"cash_amount_cents"`
	CardAmountCents int64           `json:"card_amount_cents"`
	SubtotalCents   int64           `json:"subtotal_cents"`
	TaxCents        int64           `json:"tax_cents"`
	TotalCents      int64           `json:"total_cents"`
	Status          string          `json:"status,omitempty"`
	ReceiptNumber   string          `json:"receipt_number,omitempty"`
}

type VoidRequest struct {
	TransactionID     string `json:"transaction_id"`
	CashierID         string `json:"cashier_id"`
	Reason            string `json:"reason"`
	ManagerApprovalID string `json:"manager_approval_id,omitempty"`
}

// VoidResult is returned instead of an error for business-rule outcomes so
// callers can render the message without exception plumbing.
type VoidResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RefundItemInput struct {
	ItemID            string `json:"item_id"`
	Quantity          int    `json:"quantity"`
	RefundAmountCents int64  `json:"refund_amount_cents"`
	Restockable       bool   `json:"restockable"`
}

type RefundInput struct {
	OriginalTransactionID string            `json:"original_transaction_id"`
	Items                 []RefundItemInput `json:"items"`
	Reason                string            `json:"reason"`
	Method                string            `json:"method"`
	CashierID             string            `json:"cashier_id"`
	ManagerApprovalID     string            `json:"manager_approval_id,omitempty"`
}

type VoidEligibility struct {
	Allowed                 bool     `json:"allowed"`
	Errors                  []string `json:"errors"`
	RequiresManagerApproval bool     `json:"requires_manager_approval"`
}

type RefundEligibility struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

type ShiftOpenRequest struct {
	CashierID         string `json:"cashier_id"`
	BusinessID        string `json:"business_id"`
	ScheduleID        string `json:"schedule_id,omitempty"`
	StartingCashCents int64  `json:"starting_cash_cents"`
}

// ShiftEndRequest trusts the caller for running totals: the ledger, not the
// lifecycle manager, is the source of truth for them.
type ShiftEndRequest struct {
	FinalCashDrawerCents int64  `json:"final_cash_drawer_cents"`
	TotalSalesCents      int64  `json:"total_sales_cents"`
	TotalTransactions    int    `json:"total_transactions"`
	TotalRefundsCents    int64  `json:"total_refunds_cents"`
	TotalVoidsCents      int64  `json:"total_voids_cents"`
	Notes                string `json:"notes,omitempty"`
}

type ShiftReconcileRequest struct {
	ActualCashDrawerCents int64  `json:"actual_cash_drawer_cents"`
	ManagerNotes          string `json:"manager_notes"`
	ManagerID             string `json:"manager_id"`
}

type CashCountRequest struct {
	ShiftID            string `json:"shift_id"`
	CountType          string `json:"count_type"`
	CountedAmountCents int64  `json:"counted_amount_cents"`
	CountedBy          string `json:"counted_by"`
}

// ExpectedCashBreakdown is the audit trail behind an expected-cash figure;
// every term is recomputable from the transaction log alone.
type ExpectedCashBreakdown struct {
	StartingCashCents int64 `json:"starting_cash_cents"`
	CashSalesCents    int64 `json:"cash_sales_cents"`
	CashRefundsCents  int64 `json:"cash_refunds_cents"`
	CashVoidsCents    int64 `json:"cash_voids_cents"`
}

type ExpectedCash struct {
	ShiftID             string                `json:"shift_id"`
	ExpectedAmountCents int64                 `json:"expected_amount_cents"`
	Breakdown           ExpectedCashBreakdown `json:"breakdown"`
}

// DrawerBalance reports the latest physical count when one exists, or the
// computed expectation flagged as an estimate when none does.
type DrawerBalance struct {
	ShiftID       string `json:"shift_id"`
	AmountCents   int64  `json:"amount_cents"`
	IsEstimated   bool   `json:"is_estimated"`
	VarianceCents int64  `json:"variance_cents"`
}

type StockAdjustmentRequest struct {
	ProductID string `json:"product_id"`
	Type      string `json:"type"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	UserID    string `json:"user_id"`
}

const (
	ShiftStatusActive = "active"
	ShiftStatusEnded  = "ended"
)

const (
	TxTypeSale   = "sale"
	TxTypeRefund = "refund"
)

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusVoided    = "voided"
)

const (
	PaymentCash  = "cash"
	PaymentCard  = "card"
	PaymentMixed = "mixed"
)

const (
	RefundMethodOriginal    = "original"
	RefundMethodCash        = "cash"
	RefundMethodCard        = "card"
	RefundMethodStoreCredit = "store_credit"
)

const (
	CountTypeMidShift = "mid-shift"
	CountTypeEndShift = "end-shift"
)

const (
	AdjustmentAdd        = "add"
	AdjustmentRemove     = "remove"
	AdjustmentSale       = "sale"
	AdjustmentWaste      = "waste"
	AdjustmentCorrection = "adjustment"
)
