package store

import (
	"context"
	"errors"
	"time"

	"tillbook/backend/internal/domain"
)

var (
	// ErrNotFound: a shift, transaction, product or schedule id did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrValidation: a business-rule violation the caller can correct.
	ErrValidation = errors.New("validation failed")
	// ErrConflict: the row is not in a state that permits the write
	// (shift already ended, transaction already voided). Re-checked under
	// lock inside the storage transaction, never trusted from a prior read.
	ErrConflict = errors.New("conflicting state")
)

// Repository is the persistence boundary for the ledger engine. Every
// multi-row mutation is atomic: all rows commit or none do.
type Repository interface {
	// Shift lifecycle.
	CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetShiftByID(ctx context.Context, shiftID string) (*domain.Shift, error)
	GetActiveShiftByCashier(ctx context.Context, cashierID string) (*domain.Shift, error)
	ListActiveShifts(ctx context.Context) ([]domain.Shift, error)
	ListShiftsPendingReview(ctx context.Context, limit int) ([]domain.Shift, error)
	EndShift(ctx context.Context, shiftID string, end domain.ShiftEndRequest, expectedCashCents int64, at time.Time) (*domain.Shift, error)
	AutoCloseShift(ctx context.Context, shiftID string, reason string, at time.Time) (*domain.Shift, error)
	ReconcileShift(ctx context.Context, shiftID string, req domain.ShiftReconcileRequest, at time.Time) (*domain.Shift, error)

	// Transaction ledger.
	CreateSaleTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactionsByShift(ctx context.Context, shiftID string) ([]domain.Transaction, error)
	VoidTransaction(ctx context.Context, id string, cashierID string, reason string, approvalID string, at time.Time) (*domain.Transaction, error)
	CreateRefundTransaction(ctx context.Context, refund domain.Transaction, items []domain.RefundItemInput) (*domain.Transaction, error)

	// Cash drawer.
	GetShiftCashTotals(ctx context.Context, shiftID string) (cashSales int64, cashRefunds int64, cashVoids int64, err error)
	CreateCashDrawerCount(ctx context.Context, count domain.CashDrawerCount) (*domain.CashDrawerCount, error)
	GetLatestCashDrawerCount(ctx context.Context, shiftID string) (*domain.CashDrawerCount, error)
	ListCashDrawerCounts(ctx context.Context, shiftID string) ([]domain.CashDrawerCount, error)

	// Inventory.
	GetProductByID(ctx context.Context, productID string) (*domain.Product, error)
	ApplyStockAdjustment(ctx context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error)
	ListStockAdjustments(ctx context.Context, productID string, limit int) ([]domain.StockAdjustment, error)

	// External collaborators consumed read-only.
	GetScheduleByID(ctx context.Context, scheduleID string) (*domain.Schedule, error)

	// Audit.
	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, businessID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	// Auth credentials.
	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
