package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store"
	"tillbook/backend/internal/xid"
)

// Store is an in-memory Repository for dev mode and unit tests. A single
// mutex hold per mutation gives the same all-or-nothing visibility as the
// postgres store's transactions; every method validates before the first
// write so a failed call leaves no partial state.
type Store struct {
	mu                    sync.RWMutex
	products              map[string]domain.Product
	schedules             map[string]domain.Schedule
	shiftsByID            map[string]*domain.Shift
	activeShiftByCashier  map[string]string
	transactionsByID      map[string]*domain.Transaction
	transactionsByShift   map[string][]string
	countsByShift         map[string][]domain.CashDrawerCount
	stockAdjustments      []domain.StockAdjustment
	auditLogs             []domain.AuditLog
	usersByUsername       map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		products:             make(map[string]domain.Product),
		schedules:            make(map[string]domain.Schedule),
		shiftsByID:           make(map[string]*domain.Shift),
		activeShiftByCashier: make(map[string]string),
		transactionsByID:     make(map[string]*domain.Transaction),
		transactionsByShift:  make(map[string][]string),
		countsByShift:        make(map[string][]domain.CashDrawerCount),
		stockAdjustments:     make([]domain.StockAdjustment, 0, 128),
		auditLogs:            make([]domain.AuditLog, 0, 128),
		usersByUsername:      make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store preloaded with dev products, a schedule and
// login accounts so the backend is usable without PostgreSQL.
func NewSeeded() *Store {
	s := New()

	products := []domain.Product{
		{ID: "prod-espresso", Name: "Espresso", PriceCents: 350, StockQty: 500, TrackInventory: true, Active: true},
		{ID: "prod-latte", Name: "Latte", PriceCents: 550, StockQty: 500, TrackInventory: true, Active: true},
		{ID: "prod-croissant", Name: "Butter Croissant", PriceCents: 425, StockQty: 80, TrackInventory: true, Active: true},
		{ID: "prod-bagel", Name: "Sesame Bagel", PriceCents: 300, StockQty: 64, TrackInventory: true, Active: true},
		{ID: "prod-beans-1lb", Name: "House Blend Beans 1lb", PriceCents: 1600, StockQty: 40, TrackInventory: true, Active: true},
		{ID: "prod-deli-salad", Name: "Deli Salad (per lb)", PriceCents: 899, StockQty: 0, TrackInventory: false, Active: true},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}

	now := time.Now().UTC()
	s.schedules["sched-morning"] = domain.Schedule{
		ID:        "sched-morning",
		CashierID: "cashier",
		StartAt:   time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, time.UTC),
		EndAt:     time.Date(now.Year(), now.Month(), now.Day(), 14, 0, 0, 0, time.UTC),
	}

	s.usersByUsername = seedUsers()
	return s
}

// seedUsers builds the initial in-memory accounts for dev/demo mode.
// Credentials come from SEED_MANAGER_PASSWORD and SEED_CASHIER_PASSWORD; if
// unset, hardcoded dev defaults are used with a warning. These are never
// used in production (postgres mode loads accounts from the users table).
func seedUsers() map[string]domain.UserAccount {
	managerPwd := envOr("SEED_MANAGER_PASSWORD", "manager123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_MANAGER_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_MANAGER_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"manager", managerPwd, "manager"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SeedProduct and SeedSchedule exist for tests that need specific fixtures.
func (s *Store) SeedProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *Store) SeedSchedule(sched domain.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[sched.ID] = sched
}

// SeedShift inserts a shift verbatim, bypassing CreateShift defaults, so
// tests can build shifts with arbitrary start times.
func (s *Store) SeedShift(shift domain.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := shift
	s.shiftsByID[shift.ID] = &copied
	if shift.Status == domain.ShiftStatusActive {
		s.activeShiftByCashier[shift.CashierID] = shift.ID
	}
}

func (s *Store) CreateShift(_ context.Context, shift domain.Shift) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if shift.CashierID == "" {
		return nil, fmt.Errorf("%w: cashier id required", store.ErrValidation)
	}
	if shift.StartingCashCents < 0 {
		return nil, fmt.Errorf("%w: starting cash must not be negative", store.ErrValidation)
	}
	if activeID, exists := s.activeShiftByCashier[shift.CashierID]; exists {
		if existing, ok := s.shiftsByID[activeID]; ok && existing.Status == domain.ShiftStatusActive {
			return nil, fmt.Errorf("%w: cashier already has an active shift", store.ErrConflict)
		}
	}

	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusActive

	stored := shift
	s.shiftsByID[shift.ID] = &stored
	s.activeShiftByCashier[shift.CashierID] = shift.ID

	created := stored
	return &created, nil
}

func (s *Store) GetShiftByID(_ context.Context, shiftID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := *shift
	return &copied, nil
}

func (s *Store) GetActiveShiftByCashier(_ context.Context, cashierID string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shiftID, exists := s.activeShiftByCashier[cashierID]
	if !exists {
		return nil, store.ErrNotFound
	}
	shift, exists := s.shiftsByID[shiftID]
	if !exists || shift.Status != domain.ShiftStatusActive {
		return nil, store.ErrNotFound
	}
	copied := *shift
	return &copied, nil
}

func (s *Store) ListActiveShifts(_ context.Context) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shifts := make([]domain.Shift, 0, 8)
	for _, shift := range s.shiftsByID {
		if shift.Status == domain.ShiftStatusActive {
			shifts = append(shifts, *shift)
		}
	}
	slices.SortFunc(shifts, func(a, b domain.Shift) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return shifts, nil
}

func (s *Store) ListShiftsPendingReview(_ context.Context, limit int) ([]domain.Shift, error) {
	if limit < 1 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	shifts := make([]domain.Shift, 0, 8)
	for _, shift := range s.shiftsByID {
		if shift.PendingManagerReview {
			shifts = append(shifts, *shift)
		}
	}
	slices.SortFunc(shifts, func(a, b domain.Shift) int {
		return a.StartTime.Compare(b.StartTime)
	})
	if len(shifts) > limit {
		shifts = shifts[:limit]
	}
	return shifts, nil
}

func (s *Store) EndShift(_ context.Context, shiftID string, end domain.ShiftEndRequest, expectedCashCents int64, at time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, fmt.Errorf("%w: shift already ended", store.ErrConflict)
	}

	endTime := at
	shift.Status = domain.ShiftStatusEnded
	shift.EndTime = &endTime
	shift.FinalCashDrawerCents = end.FinalCashDrawerCents
	shift.ExpectedCashDrawerCents = expectedCashCents
	shift.CashVarianceCents = end.FinalCashDrawerCents - expectedCashCents
	shift.TotalSalesCents = end.TotalSalesCents
	shift.TotalTransactions = end.TotalTransactions
	shift.TotalRefundsCents = end.TotalRefundsCents
	shift.TotalVoidsCents = end.TotalVoidsCents
	shift.Notes = appendNote(shift.Notes, end.Notes)
	delete(s.activeShiftByCashier, shift.CashierID)

	copied := *shift
	return &copied, nil
}

func (s *Store) AutoCloseShift(_ context.Context, shiftID string, reason string, at time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, fmt.Errorf("%w: shift already ended", store.ErrConflict)
	}

	// No physical count exists, so the close uses an estimate that a
	// manager reconciles later.
	estimate := shift.StartingCashCents + shift.TotalSalesCents
	endTime := at
	shift.Status = domain.ShiftStatusEnded
	shift.EndTime = &endTime
	shift.FinalCashDrawerCents = estimate
	shift.ExpectedCashDrawerCents = estimate
	shift.CashVarianceCents = 0
	shift.PendingManagerReview = true
	shift.Notes = appendNote(shift.Notes, reason)
	delete(s.activeShiftByCashier, shift.CashierID)

	copied := *shift
	return &copied, nil
}

func (s *Store) ReconcileShift(_ context.Context, shiftID string, req domain.ShiftReconcileRequest, at time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[shiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusEnded {
		return nil, fmt.Errorf("%w: only ended shifts can be reconciled", store.ErrConflict)
	}

	shift.FinalCashDrawerCents = req.ActualCashDrawerCents
	shift.CashVarianceCents = req.ActualCashDrawerCents - shift.ExpectedCashDrawerCents
	shift.PendingManagerReview = false
	note := fmt.Sprintf("Reconciled by manager %s at %s: %s", req.ManagerID, at.Format(time.RFC3339), req.ManagerNotes)
	shift.Notes = appendNote(shift.Notes, note)

	copied := *shift
	return &copied, nil
}

func (s *Store) CreateSaleTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.Items) == 0 {
		return nil, fmt.Errorf("%w: sale requires at least one item", store.ErrValidation)
	}
	shift, exists := s.shiftsByID[tx.ShiftID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, fmt.Errorf("%w: shift is not active", store.ErrConflict)
	}

	if tx.ID == "" {
		tx.ID = xid.New("tx")
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	tx.Type = domain.TxTypeSale
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}
	for i := range tx.Items {
		if tx.Items[i].ID == "" {
			tx.Items[i].ID = xid.New("item")
		}
		for j := range tx.Items[i].Modifiers {
			if tx.Items[i].Modifiers[j].ID == "" {
				tx.Items[i].Modifiers[j].ID = xid.New("mod")
			}
		}
	}

	stored := copyTransaction(tx)
	s.transactionsByID[tx.ID] = stored
	s.transactionsByShift[tx.ShiftID] = append(s.transactionsByShift[tx.ShiftID], tx.ID)

	if tx.Status == domain.TxStatusCompleted {
		shift.TotalSalesCents += tx.TotalCents
		shift.TotalTransactions++
	}

	created := copyTransaction(*stored)
	return created, nil
}

func (s *Store) GetTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.transactionsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	return copyTransaction(*tx), nil
}

func (s *Store) ListTransactionsByShift(_ context.Context, shiftID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.transactionsByShift[shiftID]
	result := make([]domain.Transaction, 0, len(ids))
	for _, id := range ids {
		if tx, exists := s.transactionsByID[id]; exists {
			result = append(result, *copyTransaction(*tx))
		}
	}
	return result, nil
}

func (s *Store) VoidTransaction(_ context.Context, id string, cashierID string, reason string, approvalID string, at time.Time) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.transactionsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if tx.Type != domain.TxTypeSale {
		return nil, fmt.Errorf("%w: only sale transactions can be voided", store.ErrValidation)
	}
	if tx.Status != domain.TxStatusCompleted {
		return nil, fmt.Errorf("%w: transaction is not in completed status", store.ErrConflict)
	}
	// Refunded units were already restocked and their cash handed back; a
	// full-quantity void on top would double both.
	for _, item := range tx.Items {
		if item.RefundedQuantity > 0 {
			return nil, fmt.Errorf("%w: transaction has refunded items and can no longer be voided", store.ErrConflict)
		}
	}

	voidedAt := at
	tx.Status = domain.TxStatusVoided
	tx.VoidReason = reason
	tx.VoidedAt = &voidedAt
	if approvalID != "" {
		tx.ManagerApprovalID = approvalID
	}

	// Full restock: a void means the sale never happened. Products that
	// were deleted since the sale, or that do not track inventory, are
	// skipped the same way the sale-side deduction skipped them.
	for _, item := range tx.Items {
		product, exists := s.products[item.ProductID]
		if !exists || !product.TrackInventory {
			continue
		}
		product.StockQty += item.Quantity
		s.products[item.ProductID] = product
		s.stockAdjustments = append(s.stockAdjustments, domain.StockAdjustment{
			ID:        xid.New("adj"),
			ProductID: item.ProductID,
			Type:      domain.AdjustmentAdd,
			Quantity:  item.Quantity,
			Reason:    "void restock: " + reason,
			UserID:    cashierID,
			CreatedAt: at,
		})
	}

	if shift, exists := s.shiftsByID[tx.ShiftID]; exists {
		shift.TotalVoidsCents += tx.TotalCents
		shift.TotalSalesCents -= tx.TotalCents
	}

	return copyTransaction(*tx), nil
}

func (s *Store) CreateRefundTransaction(_ context.Context, refund domain.Transaction, items []domain.RefundItemInput) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, exists := s.transactionsByID[refund.OriginalTransactionID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if original.Type != domain.TxTypeSale {
		return nil, fmt.Errorf("%w: refunds must reference a sale transaction", store.ErrValidation)
	}
	if original.Status == domain.TxStatusVoided {
		return nil, fmt.Errorf("%w: voided transaction cannot be refunded", store.ErrConflict)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: refund requires at least one item", store.ErrValidation)
	}

	// Re-validate availability under the lock; the service-level
	// eligibility check may be stale by the time we get here.
	originalByID := make(map[string]*domain.TransactionItem, len(original.Items))
	for i := range original.Items {
		originalByID[original.Items[i].ID] = &original.Items[i]
	}
	for _, item := range items {
		origItem, exists := originalByID[item.ItemID]
		if !exists {
			return nil, fmt.Errorf("%w: item %s is not on the original transaction", store.ErrValidation, item.ItemID)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: refund quantity must be positive", store.ErrValidation)
		}
		available := origItem.Quantity - origItem.RefundedQuantity
		if item.Quantity > available {
			return nil, fmt.Errorf("%w: only %d of %s available to refund", store.ErrValidation, available, origItem.ProductName)
		}
	}

	if refund.ID == "" {
		refund.ID = xid.New("tx")
	}
	if refund.CreatedAt.IsZero() {
		refund.CreatedAt = time.Now().UTC()
	}
	refund.Type = domain.TxTypeRefund
	refund.Status = domain.TxStatusCompleted
	refund.ShiftID = original.ShiftID
	refund.BusinessID = original.BusinessID

	refund.Items = make([]domain.TransactionItem, 0, len(items))
	for _, item := range items {
		origItem := originalByID[item.ItemID]
		origItem.RefundedQuantity += item.Quantity

		refund.Items = append(refund.Items, domain.TransactionItem{
			ID:             xid.New("item"),
			ProductID:      origItem.ProductID,
			ProductName:    origItem.ProductName,
			Quantity:       -item.Quantity,
			UnitPriceCents: origItem.UnitPriceCents,
			TotalPriceCents: -item.RefundAmountCents,
		})

		if !item.Restockable {
			continue
		}
		product, exists := s.products[origItem.ProductID]
		if !exists || !product.TrackInventory {
			continue
		}
		product.StockQty += item.Quantity
		s.products[origItem.ProductID] = product
		s.stockAdjustments = append(s.stockAdjustments, domain.StockAdjustment{
			ID:        xid.New("adj"),
			ProductID: origItem.ProductID,
			Type:      domain.AdjustmentAdd,
			Quantity:  item.Quantity,
			Reason:    "refund restock: " + refund.RefundReason,
			UserID:    refund.CashierID,
			CreatedAt: refund.CreatedAt,
		})
	}

	stored := copyTransaction(refund)
	s.transactionsByID[refund.ID] = stored
	s.transactionsByShift[refund.ShiftID] = append(s.transactionsByShift[refund.ShiftID], refund.ID)

	if shift, exists := s.shiftsByID[refund.ShiftID]; exists {
		shift.TotalRefundsCents += -refund.TotalCents
		shift.TotalTransactions++
	}

	return copyTransaction(*stored), nil
}

func (s *Store) GetShiftCashTotals(_ context.Context, shiftID string) (int64, int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.shiftsByID[shiftID]; !exists {
		return 0, 0, 0, store.ErrNotFound
	}

	var cashSales, cashRefunds, cashVoids int64
	for _, id := range s.transactionsByShift[shiftID] {
		tx, exists := s.transactionsByID[id]
		if !exists {
			continue
		}
		switch tx.Type {
		case domain.TxTypeSale:
			switch tx.Status {
			case domain.TxStatusCompleted:
				cashSales += tx.CashAmountCents
			case domain.TxStatusVoided:
				cashSales += tx.CashAmountCents
				cashVoids += tx.CashAmountCents
			}
		case domain.TxTypeRefund:
			if tx.Status == domain.TxStatusCompleted {
				cashRefunds += -tx.CashAmountCents
			}
		}
	}
	return cashSales, cashRefunds, cashVoids, nil
}

func (s *Store) CreateCashDrawerCount(_ context.Context, count domain.CashDrawerCount) (*domain.CashDrawerCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.shiftsByID[count.ShiftID]; !exists {
		return nil, store.ErrNotFound
	}
	if count.CountType != domain.CountTypeMidShift && count.CountType != domain.CountTypeEndShift {
		return nil, fmt.Errorf("%w: unknown count type %q", store.ErrValidation, count.CountType)
	}

	if count.ID == "" {
		count.ID = xid.New("count")
	}
	if count.CreatedAt.IsZero() {
		count.CreatedAt = time.Now().UTC()
	}
	s.countsByShift[count.ShiftID] = append(s.countsByShift[count.ShiftID], count)

	created := count
	return &created, nil
}

func (s *Store) GetLatestCashDrawerCount(_ context.Context, shiftID string) (*domain.CashDrawerCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := s.countsByShift[shiftID]
	if len(counts) == 0 {
		return nil, store.ErrNotFound
	}
	latest := counts[len(counts)-1]
	return &latest, nil
}

func (s *Store) ListCashDrawerCounts(_ context.Context, shiftID string) ([]domain.CashDrawerCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := s.countsByShift[shiftID]
	result := make([]domain.CashDrawerCount, len(counts))
	copy(result, counts)
	return result, nil
}

func (s *Store) GetProductByID(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[productID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := product
	return &copied, nil
}

func (s *Store) ApplyStockAdjustment(_ context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, exists := s.products[adj.ProductID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if adj.Quantity == 0 {
		return nil, fmt.Errorf("%w: adjustment quantity must not be zero", store.ErrValidation)
	}

	if adj.ID == "" {
		adj.ID = xid.New("adj")
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}

	newQty := product.StockQty + adj.Quantity
	if newQty < 0 {
		newQty = 0
	}
	product.StockQty = newQty
	s.products[adj.ProductID] = product
	s.stockAdjustments = append(s.stockAdjustments, adj)

	created := adj
	return &created, nil
}

func (s *Store) ListStockAdjustments(_ context.Context, productID string, limit int) ([]domain.StockAdjustment, error) {
	if limit < 1 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockAdjustment, 0, limit)
	for i := len(s.stockAdjustments) - 1; i >= 0 && len(result) < limit; i-- {
		adj := s.stockAdjustments[i]
		if productID != "" && adj.ProductID != productID {
			continue
		}
		result = append(result, adj)
	}
	return result, nil
}

func (s *Store) GetScheduleByID(_ context.Context, scheduleID string) (*domain.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sched, exists := s.schedules[scheduleID]
	if !exists {
		return nil, store.ErrNotFound
	}
	copied := sched
	return &copied, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, businessID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(result) < limit; i-- {
		entry := s.auditLogs[i]
		if businessID != "" && entry.BusinessID != businessID {
			continue
		}
		if entry.CreatedAt.Before(from) || !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrValidation
	}
	if _, exists := s.usersByUsername[username]; exists {
		return fmt.Errorf("%w: username already exists", store.ErrConflict)
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		users = append(users, user)
	}
	slices.SortFunc(users, func(a, b domain.UserAccount) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

func copyTransaction(tx domain.Transaction) *domain.Transaction {
	copied := tx
	copied.Items = make([]domain.TransactionItem, len(tx.Items))
	for i, item := range tx.Items {
		copiedItem := item
		copiedItem.Modifiers = slices.Clone(item.Modifiers)
		copied.Items[i] = copiedItem
	}
	if tx.VoidedAt != nil {
		at := *tx.VoidedAt
		copied.VoidedAt = &at
	}
	return &copied
}

func appendNote(existing string, note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return existing
	}
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}
