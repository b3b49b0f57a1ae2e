// Package postgres implements store.Repository on PostgreSQL via
// database/sql and the pgx stdlib driver. Every multi-row mutation runs in
// a serializable transaction and re-checks row state under FOR UPDATE, so
// two terminals racing on the same shift or transaction cannot interleave.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store"
	"tillbook/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shifts (
			id TEXT PRIMARY KEY,
			cashier_id TEXT NOT NULL,
			business_id TEXT NOT NULL DEFAULT '',
			schedule_id TEXT,
			start_time TIMESTAMPTZ NOT NULL,
			end_time TIMESTAMPTZ,
			status TEXT NOT NULL DEFAULT 'active',
			starting_cash_cents BIGINT NOT NULL DEFAULT 0,
			final_cash_drawer_cents BIGINT NOT NULL DEFAULT 0,
			expected_cash_drawer_cents BIGINT NOT NULL DEFAULT 0,
			cash_variance_cents BIGINT NOT NULL DEFAULT 0,
			total_sales_cents BIGINT NOT NULL DEFAULT 0,
			total_transactions INTEGER NOT NULL DEFAULT 0,
			total_refunds_cents BIGINT NOT NULL DEFAULT 0,
			total_voids_cents BIGINT NOT NULL DEFAULT 0,
			pending_manager_review BOOLEAN NOT NULL DEFAULT FALSE,
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_shifts_one_active_per_cashier
			ON shifts (cashier_id) WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS idx_shifts_pending_review
			ON shifts (start_time) WHERE pending_manager_review`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			shift_id TEXT NOT NULL REFERENCES shifts(id),
			business_id TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			subtotal_cents BIGINT NOT NULL DEFAULT 0,
			tax_cents BIGINT NOT NULL DEFAULT 0,
			total_cents BIGINT NOT NULL DEFAULT 0,
			payment_method TEXT NOT NULL,
			cash_amount_cents BIGINT NOT NULL DEFAULT 0,
			card_amount_cents BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'completed',
			receipt_number TEXT NOT NULL DEFAULT '',
			cashier_id TEXT NOT NULL DEFAULT '',
			void_reason TEXT,
			voided_at TIMESTAMPTZ,
			original_transaction_id TEXT REFERENCES transactions(id),
			refund_reason TEXT,
			refund_method TEXT,
			manager_approval_id TEXT,
			is_partial_refund BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_shift ON transactions (shift_id, created_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_receipt
			ON transactions (receipt_number) WHERE receipt_number <> ''`,
		`CREATE TABLE IF NOT EXISTS transaction_items (
			id TEXT PRIMARY KEY,
			transaction_id TEXT NOT NULL REFERENCES transactions(id),
			product_id TEXT NOT NULL DEFAULT '',
			product_name TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL,
			unit_price_cents BIGINT NOT NULL DEFAULT 0,
			total_price_cents BIGINT NOT NULL DEFAULT 0,
			refunded_quantity INTEGER NOT NULL DEFAULT 0,
			weight_grams DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transaction_items_tx ON transaction_items (transaction_id)`,
		`CREATE TABLE IF NOT EXISTS transaction_item_modifiers (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL REFERENCES transaction_items(id),
			modifier_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			price_delta_cents BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_item_modifiers_item ON transaction_item_modifiers (item_id)`,
		`CREATE TABLE IF NOT EXISTS cash_drawer_counts (
			id TEXT PRIMARY KEY,
			shift_id TEXT NOT NULL REFERENCES shifts(id),
			count_type TEXT NOT NULL,
			expected_amount_cents BIGINT NOT NULL DEFAULT 0,
			counted_amount_cents BIGINT NOT NULL DEFAULT 0,
			variance_cents BIGINT NOT NULL DEFAULT 0,
			counted_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drawer_counts_shift ON cash_drawer_counts (shift_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			price_cents BIGINT NOT NULL DEFAULT 0,
			stock_qty INTEGER NOT NULL DEFAULT 0,
			track_inventory BOOLEAN NOT NULL DEFAULT TRUE,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS stock_adjustments (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id),
			type TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_adjustments_product
			ON stock_adjustments (product_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id TEXT PRIMARY KEY,
			cashier_id TEXT NOT NULL,
			start_at TIMESTAMPTZ NOT NULL,
			end_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			business_id TEXT NOT NULL DEFAULT '',
			actor_id TEXT NOT NULL DEFAULT '',
			actor_role TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL DEFAULT '',
			entity_id TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_business ON audit_logs (business_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'cashier',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const shiftColumns = `id, cashier_id, business_id, COALESCE(schedule_id, ''), start_time, end_time,
	status, starting_cash_cents, final_cash_drawer_cents, expected_cash_drawer_cents,
	cash_variance_cents, total_sales_cents, total_transactions, total_refunds_cents,
	total_voids_cents, pending_manager_review, notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var shift domain.Shift
	var endTime sql.NullTime
	err := row.Scan(
		&shift.ID, &shift.CashierID, &shift.BusinessID, &shift.ScheduleID,
		&shift.StartTime, &endTime, &shift.Status, &shift.StartingCashCents,
		&shift.FinalCashDrawerCents, &shift.ExpectedCashDrawerCents,
		&shift.CashVarianceCents, &shift.TotalSalesCents, &shift.TotalTransactions,
		&shift.TotalRefundsCents, &shift.TotalVoidsCents,
		&shift.PendingManagerReview, &shift.Notes,
	)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		shift.EndTime = &t
	}
	return &shift, nil
}

func (s *Store) CreateShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.CashierID == "" {
		return nil, fmt.Errorf("%w: cashier id required", store.ErrValidation)
	}
	if shift.StartingCashCents < 0 {
		return nil, fmt.Errorf("%w: starting cash must not be negative", store.ErrValidation)
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusActive

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, cashier_id, business_id, schedule_id, start_time,
			status, starting_cash_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		shift.ID, shift.CashierID, shift.BusinessID, nullIfEmpty(shift.ScheduleID),
		shift.StartTime, shift.Status, shift.StartingCashCents, shift.Notes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: cashier already has an active shift", store.ErrConflict)
		}
		return nil, fmt.Errorf("insert shift: %w", err)
	}
	return &shift, nil
}

func (s *Store) GetShiftByID(ctx context.Context, shiftID string) (*domain.Shift, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, shiftID)
	shift, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shift: %w", err)
	}
	return shift, nil
}

func (s *Store) GetActiveShiftByCashier(ctx context.Context, cashierID string) (*domain.Shift, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE cashier_id = $1 AND status = $2`,
		cashierID, domain.ShiftStatusActive,
	)
	shift, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get active shift: %w", err)
	}
	return shift, nil
}

func (s *Store) ListActiveShifts(ctx context.Context) ([]domain.Shift, error) {
	return s.listShifts(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE status = $1 ORDER BY start_time`,
		domain.ShiftStatusActive,
	)
}

func (s *Store) ListShiftsPendingReview(ctx context.Context, limit int) ([]domain.Shift, error) {
	if limit < 1 {
		limit = 50
	}
	return s.listShifts(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE pending_manager_review ORDER BY start_time LIMIT $1`,
		limit,
	)
}

func (s *Store) listShifts(ctx context.Context, query string, args ...any) ([]domain.Shift, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	shifts := make([]domain.Shift, 0, 8)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shift: %w", err)
		}
		shifts = append(shifts, *shift)
	}
	return shifts, rows.Err()
}

func (s *Store) EndShift(ctx context.Context, shiftID string, end domain.ShiftEndRequest, expectedCashCents int64, at time.Time) (*domain.Shift, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	shift, err := lockShift(ctx, tx, shiftID)
	if err != nil {
		return nil, err
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

	if err := updateShiftClose(ctx, tx, shift); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return shift, nil
}

func (s *Store) AutoCloseShift(ctx context.Context, shiftID string, reason string, at time.Time) (*domain.Shift, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	shift, err := lockShift(ctx, tx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, fmt.Errorf("%w: shift already ended", store.ErrConflict)
	}

	// No physical count exists; close with an estimate a manager
	// reconciles later.
	estimate := shift.StartingCashCents + shift.TotalSalesCents
	endTime := at
	shift.Status = domain.ShiftStatusEnded
	shift.EndTime = &endTime
	shift.FinalCashDrawerCents = estimate
	shift.ExpectedCashDrawerCents = estimate
	shift.CashVarianceCents = 0
	shift.PendingManagerReview = true
	shift.Notes = appendNote(shift.Notes, reason)

	if err := updateShiftClose(ctx, tx, shift); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return shift, nil
}

func (s *Store) ReconcileShift(ctx context.Context, shiftID string, req domain.ShiftReconcileRequest, at time.Time) (*domain.Shift, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	shift, err := lockShift(ctx, tx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusEnded {
		return nil, fmt.Errorf("%w: only ended shifts can be reconciled", store.ErrConflict)
	}

	shift.FinalCashDrawerCents = req.ActualCashDrawerCents
	shift.CashVarianceCents = req.ActualCashDrawerCents - shift.ExpectedCashDrawerCents
	shift.PendingManagerReview = false
	note := fmt.Sprintf("Reconciled by manager %s at %s: %s", req.ManagerID, at.Format(time.RFC3339), req.ManagerNotes)
	shift.Notes = appendNote(shift.Notes, note)

	if err := updateShiftClose(ctx, tx, shift); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return shift, nil
}

func lockShift(ctx context.Context, tx *sql.Tx, shiftID string) (*domain.Shift, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1 FOR UPDATE`, shiftID)
	shift, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock shift: %w", err)
	}
	return shift, nil
}

func updateShiftClose(ctx context.Context, tx *sql.Tx, shift *domain.Shift) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE shifts SET status = $2, end_time = $3, final_cash_drawer_cents = $4,
			expected_cash_drawer_cents = $5, cash_variance_cents = $6,
			total_sales_cents = $7, total_transactions = $8, total_refunds_cents = $9,
			total_voids_cents = $10, pending_manager_review = $11, notes = $12
		WHERE id = $1`,
		shift.ID, shift.Status, nullTime(shift.EndTime), shift.FinalCashDrawerCents,
		shift.ExpectedCashDrawerCents, shift.CashVarianceCents, shift.TotalSalesCents,
		shift.TotalTransactions, shift.TotalRefundsCents, shift.TotalVoidsCents,
		shift.PendingManagerReview, shift.Notes,
	)
	if err != nil {
		return fmt.Errorf("update shift: %w", err)
	}
	return nil
}

func (s *Store) CreateSaleTransaction(ctx context.Context, saleTx domain.Transaction) (*domain.Transaction, error) {
	if len(saleTx.Items) == 0 {
		return nil, fmt.Errorf("%w: sale requires at least one item", store.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	shift, err := lockShift(ctx, tx, saleTx.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, fmt.Errorf("%w: shift is not active", store.ErrConflict)
	}

	if saleTx.ID == "" {
		saleTx.ID = xid.New("tx")
	}
	if saleTx.CreatedAt.IsZero() {
		saleTx.CreatedAt = time.Now().UTC()
	}
	saleTx.Type = domain.TxTypeSale
	if saleTx.Status == "" {
		saleTx.Status = domain.TxStatusCompleted
	}

	if err := insertTransaction(ctx, tx, &saleTx); err != nil {
		return nil, err
	}
	for i := range saleTx.Items {
		if err := insertTransactionItem(ctx, tx, saleTx.ID, &saleTx.Items[i]); err != nil {
			return nil, err
		}
	}

	if saleTx.Status == domain.TxStatusCompleted {
		_, err = tx.ExecContext(ctx, `
			UPDATE shifts SET total_sales_cents = total_sales_cents + $2,
				total_transactions = total_transactions + 1
			WHERE id = $1`,
			saleTx.ShiftID, saleTx.TotalCents,
		)
		if err != nil {
			return nil, fmt.Errorf("update shift totals: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: duplicate receipt number", store.ErrConflict)
		}
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &saleTx, nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions (id, shift_id, business_id, type, subtotal_cents,
			tax_cents, total_cents, payment_method, cash_amount_cents, card_amount_cents,
			status, receipt_number, cashier_id, void_reason, voided_at,
			original_transaction_id, refund_reason, refund_method, manager_approval_id,
			is_partial_refund, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21)`,
		t.ID, t.ShiftID, t.BusinessID, t.Type, t.SubtotalCents, t.TaxCents,
		t.TotalCents, t.PaymentMethod, t.CashAmountCents, t.CardAmountCents,
		t.Status, t.ReceiptNumber, t.CashierID, nullIfEmpty(t.VoidReason),
		nullTime(t.VoidedAt), nullIfEmpty(t.OriginalTransactionID),
		nullIfEmpty(t.RefundReason), nullIfEmpty(t.RefundMethod),
		nullIfEmpty(t.ManagerApprovalID), t.IsPartialRefund, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate receipt number", store.ErrConflict)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func insertTransactionItem(ctx context.Context, tx *sql.Tx, txID string, item *domain.TransactionItem) error {
	if item.ID == "" {
		item.ID = xid.New("item")
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transaction_items (id, transaction_id, product_id, product_name,
			quantity, unit_price_cents, total_price_cents, refunded_quantity, weight_grams)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, txID, item.ProductID, item.ProductName, item.Quantity,
		item.UnitPriceCents, item.TotalPriceCents, item.RefundedQuantity, item.WeightGrams,
	)
	if err != nil {
		return fmt.Errorf("insert transaction item: %w", err)
	}
	for i := range item.Modifiers {
		mod := &item.Modifiers[i]
		if mod.ID == "" {
			mod.ID = xid.New("mod")
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transaction_item_modifiers (id, item_id, modifier_id, name, price_delta_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			mod.ID, item.ID, mod.ModifierID, mod.Name, mod.PriceDeltaCents,
		)
		if err != nil {
			return fmt.Errorf("insert item modifier: %w", err)
		}
	}
	return nil
}

const transactionColumns = `id, shift_id, business_id, type, subtotal_cents, tax_cents,
	total_cents, payment_method, cash_amount_cents, card_amount_cents, status,
	receipt_number, cashier_id, COALESCE(void_reason, ''), voided_at,
	COALESCE(original_transaction_id, ''), COALESCE(refund_reason, ''),
	COALESCE(refund_method, ''), COALESCE(manager_approval_id, ''),
	is_partial_refund, created_at`

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var voidedAt sql.NullTime
	err := row.Scan(
		&t.ID, &t.ShiftID, &t.BusinessID, &t.Type, &t.SubtotalCents, &t.TaxCents,
		&t.TotalCents, &t.PaymentMethod, &t.CashAmountCents, &t.CardAmountCents,
		&t.Status, &t.ReceiptNumber, &t.CashierID, &t.VoidReason, &voidedAt,
		&t.OriginalTransactionID, &t.RefundReason, &t.RefundMethod,
		&t.ManagerApprovalID, &t.IsPartialRefund, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if voidedAt.Valid {
		at := voidedAt.Time
		t.VoidedAt = &at
	}
	return &t, nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if err := s.attachItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) attachItems(ctx context.Context, t *domain.Transaction) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price_cents,
			total_price_cents, refunded_quantity, weight_grams
		FROM transaction_items WHERE transaction_id = $1 ORDER BY id`,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	t.Items = t.Items[:0]
	for rows.Next() {
		var item domain.TransactionItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPriceCents, &item.TotalPriceCents,
			&item.RefundedQuantity, &item.WeightGrams); err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		t.Items = append(t.Items, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range t.Items {
		if err := s.attachModifiers(ctx, &t.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) attachModifiers(ctx context.Context, item *domain.TransactionItem) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, modifier_id, name, price_delta_cents
		FROM transaction_item_modifiers WHERE item_id = $1 ORDER BY id`,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("list modifiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mod domain.AppliedModifier
		if err := rows.Scan(&mod.ID, &mod.ModifierID, &mod.Name, &mod.PriceDeltaCents); err != nil {
			return fmt.Errorf("scan modifier: %w", err)
		}
		item.Modifiers = append(item.Modifiers, mod)
	}
	return rows.Err()
}

func (s *Store) ListTransactionsByShift(ctx context.Context, shiftID string) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE shift_id = $1 ORDER BY created_at`,
		shiftID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0, 16)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range txs {
		if err := s.attachItems(ctx, &txs[i]); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

func (s *Store) VoidTransaction(ctx context.Context, id string, cashierID string, reason string, approvalID string, at time.Time) (*domain.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock transaction: %w", err)
	}
	if t.Type != domain.TxTypeSale {
		return nil, fmt.Errorf("%w: only sale transactions can be voided", store.ErrValidation)
	}
	if t.Status != domain.TxStatusCompleted {
		return nil, fmt.Errorf("%w: transaction is not in completed status", store.ErrConflict)
	}

	// Refunded units were already restocked and their cash handed back; a
	// full-quantity void on top would double both.
	var refunded bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM transaction_items
			WHERE transaction_id = $1 AND refunded_quantity > 0
		)`, t.ID,
	).Scan(&refunded)
	if err != nil {
		return nil, fmt.Errorf("check refunded items: %w", err)
	}
	if refunded {
		return nil, fmt.Errorf("%w: transaction has refunded items and can no longer be voided", store.ErrConflict)
	}

	voidedAt := at
	t.Status = domain.TxStatusVoided
	t.VoidReason = reason
	t.VoidedAt = &voidedAt
	if approvalID != "" {
		t.ManagerApprovalID = approvalID
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE transactions SET status = $2, void_reason = $3, voided_at = $4,
			manager_approval_id = COALESCE(NULLIF($5, ''), manager_approval_id)
		WHERE id = $1`,
		t.ID, t.Status, reason, voidedAt, approvalID,
	)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	// Full restock: a void means the sale never happened. Products deleted
	// since the sale, or not tracking inventory, are skipped the same way
	// the sale-side deduction skipped them.
	itemRows, err := tx.QueryContext(ctx, `
		SELECT product_id, quantity FROM transaction_items WHERE transaction_id = $1`,
		t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	type restock struct {
		productID string
		quantity  int
	}
	restocks := make([]restock, 0, 4)
	for itemRows.Next() {
		var r restock
		if err := itemRows.Scan(&r.productID, &r.quantity); err != nil {
			itemRows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		restocks = append(restocks, r)
	}
	itemRows.Close()
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for _, r := range restocks {
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock_qty = stock_qty + $2
			WHERE id = $1 AND track_inventory`,
			r.productID, r.quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("restock product: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_adjustments (id, product_id, type, quantity, reason, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			xid.New("adj"), r.productID, domain.AdjustmentAdd, r.quantity,
			"void restock: "+reason, cashierID, at,
		)
		if err != nil {
			return nil, fmt.Errorf("insert adjustment: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE shifts SET total_voids_cents = total_voids_cents + $2,
			total_sales_cents = total_sales_cents - $2
		WHERE id = $1`,
		t.ShiftID, t.TotalCents,
	)
	if err != nil {
		return nil, fmt.Errorf("update shift totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if err := s.attachItems(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) CreateRefundTransaction(ctx context.Context, refund domain.Transaction, items []domain.RefundItemInput) (*domain.Transaction, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: refund requires at least one item", store.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, refund.OriginalTransactionID)
	original, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock original: %w", err)
	}
	if original.Type != domain.TxTypeSale {
		return nil, fmt.Errorf("%w: refunds must reference a sale transaction", store.ErrValidation)
	}
	if original.Status == domain.TxStatusVoided {
		return nil, fmt.Errorf("%w: voided transaction cannot be refunded", store.ErrConflict)
	}

	// Re-validate availability under the lock; the service-level check may
	// be stale by now.
	type originalItem struct {
		id               string
		productID        string
		productName      string
		quantity         int
		unitPriceCents   int64
		refundedQuantity int
	}
	itemRows, err := tx.QueryContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price_cents, refunded_quantity
		FROM transaction_items WHERE transaction_id = $1 FOR UPDATE`,
		original.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock items: %w", err)
	}
	originalByID := make(map[string]*originalItem, 4)
	for itemRows.Next() {
		var oi originalItem
		if err := itemRows.Scan(&oi.id, &oi.productID, &oi.productName,
			&oi.quantity, &oi.unitPriceCents, &oi.refundedQuantity); err != nil {
			itemRows.Close()
			return nil, fmt.Errorf("scan item: %w", err)
		}
		originalByID[oi.id] = &oi
	}
	itemRows.Close()
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	for _, item := range items {
		oi, exists := originalByID[item.ItemID]
		if !exists {
			return nil, fmt.Errorf("%w: item %s is not on the original transaction", store.ErrValidation, item.ItemID)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: refund quantity must be positive", store.ErrValidation)
		}
		available := oi.quantity - oi.refundedQuantity
		if item.Quantity > available {
			return nil, fmt.Errorf("%w: only %d of %s available to refund", store.ErrValidation, available, oi.productName)
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

	if err := insertTransaction(ctx, tx, &refund); err != nil {
		return nil, err
	}

	refund.Items = make([]domain.TransactionItem, 0, len(items))
	for _, item := range items {
		oi := originalByID[item.ItemID]

		_, err = tx.ExecContext(ctx, `
			UPDATE transaction_items SET refunded_quantity = refunded_quantity + $2
			WHERE id = $1`,
			oi.id, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("update refunded quantity: %w", err)
		}

		refundItem := domain.TransactionItem{
			ID:              xid.New("item"),
			ProductID:       oi.productID,
			ProductName:     oi.productName,
			Quantity:        -item.Quantity,
			UnitPriceCents:  oi.unitPriceCents,
			TotalPriceCents: -item.RefundAmountCents,
		}
		if err := insertTransactionItem(ctx, tx, refund.ID, &refundItem); err != nil {
			return nil, err
		}
		refund.Items = append(refund.Items, refundItem)

		if !item.Restockable {
			continue
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET stock_qty = stock_qty + $2
			WHERE id = $1 AND track_inventory`,
			oi.productID, item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("restock product: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO stock_adjustments (id, product_id, type, quantity, reason, user_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			xid.New("adj"), oi.productID, domain.AdjustmentAdd, item.Quantity,
			"refund restock: "+refund.RefundReason, refund.CashierID, refund.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert adjustment: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE shifts SET total_refunds_cents = total_refunds_cents + $2,
			total_transactions = total_transactions + 1
		WHERE id = $1`,
		refund.ShiftID, -refund.TotalCents,
	)
	if err != nil {
		return nil, fmt.Errorf("update shift totals: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &refund, nil
}

func (s *Store) GetShiftCashTotals(ctx context.Context, shiftID string) (int64, int64, int64, error) {
	if _, err := s.GetShiftByID(ctx, shiftID); err != nil {
		return 0, 0, 0, err
	}

	var cashSales, cashRefunds, cashVoids int64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'sale' AND status IN ('completed', 'voided')
				THEN cash_amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'refund' AND status = 'completed'
				THEN -cash_amount_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'sale' AND status = 'voided'
				THEN cash_amount_cents ELSE 0 END), 0)
		FROM transactions WHERE shift_id = $1`,
		shiftID,
	).Scan(&cashSales, &cashRefunds, &cashVoids)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("shift cash totals: %w", err)
	}
	return cashSales, cashRefunds, cashVoids, nil
}

func (s *Store) CreateCashDrawerCount(ctx context.Context, count domain.CashDrawerCount) (*domain.CashDrawerCount, error) {
	if count.CountType != domain.CountTypeMidShift && count.CountType != domain.CountTypeEndShift {
		return nil, fmt.Errorf("%w: unknown count type %q", store.ErrValidation, count.CountType)
	}
	if _, err := s.GetShiftByID(ctx, count.ShiftID); err != nil {
		return nil, err
	}

	if count.ID == "" {
		count.ID = xid.New("count")
	}
	if count.CreatedAt.IsZero() {
		count.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cash_drawer_counts (id, shift_id, count_type, expected_amount_cents,
			counted_amount_cents, variance_cents, counted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		count.ID, count.ShiftID, count.CountType, count.ExpectedAmountCents,
		count.CountedAmountCents, count.VarianceCents, count.CountedBy, count.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert drawer count: %w", err)
	}
	return &count, nil
}

func (s *Store) GetLatestCashDrawerCount(ctx context.Context, shiftID string) (*domain.CashDrawerCount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, shift_id, count_type, expected_amount_cents, counted_amount_cents,
			variance_cents, counted_by, created_at
		FROM cash_drawer_counts WHERE shift_id = $1
		ORDER BY created_at DESC, id DESC LIMIT 1`,
		shiftID,
	)
	var count domain.CashDrawerCount
	err := row.Scan(&count.ID, &count.ShiftID, &count.CountType,
		&count.ExpectedAmountCents, &count.CountedAmountCents,
		&count.VarianceCents, &count.CountedBy, &count.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get latest drawer count: %w", err)
	}
	return &count, nil
}

func (s *Store) ListCashDrawerCounts(ctx context.Context, shiftID string) ([]domain.CashDrawerCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, count_type, expected_amount_cents, counted_amount_cents,
			variance_cents, counted_by, created_at
		FROM cash_drawer_counts WHERE shift_id = $1 ORDER BY created_at`,
		shiftID,
	)
	if err != nil {
		return nil, fmt.Errorf("list drawer counts: %w", err)
	}
	defer rows.Close()

	counts := make([]domain.CashDrawerCount, 0, 4)
	for rows.Next() {
		var count domain.CashDrawerCount
		if err := rows.Scan(&count.ID, &count.ShiftID, &count.CountType,
			&count.ExpectedAmountCents, &count.CountedAmountCents,
			&count.VarianceCents, &count.CountedBy, &count.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan drawer count: %w", err)
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

func (s *Store) GetProductByID(ctx context.Context, productID string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, price_cents, stock_qty, track_inventory, active
		FROM products WHERE id = $1`,
		productID,
	)
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.PriceCents, &p.StockQty, &p.TrackInventory, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *Store) ApplyStockAdjustment(ctx context.Context, adj domain.StockAdjustment) (*domain.StockAdjustment, error) {
	if adj.Quantity == 0 {
		return nil, fmt.Errorf("%w: adjustment quantity must not be zero", store.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var stockQty int
	err = tx.QueryRowContext(ctx, `SELECT stock_qty FROM products WHERE id = $1 FOR UPDATE`, adj.ProductID).Scan(&stockQty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock product: %w", err)
	}

	if adj.ID == "" {
		adj.ID = xid.New("adj")
	}
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now().UTC()
	}

	newQty := stockQty + adj.Quantity
	if newQty < 0 {
		newQty = 0
	}
	if _, err := tx.ExecContext(ctx, `UPDATE products SET stock_qty = $2 WHERE id = $1`, adj.ProductID, newQty); err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO stock_adjustments (id, product_id, type, quantity, reason, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		adj.ID, adj.ProductID, adj.Type, adj.Quantity, adj.Reason, adj.UserID, adj.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert adjustment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &adj, nil
}

func (s *Store) ListStockAdjustments(ctx context.Context, productID string, limit int) ([]domain.StockAdjustment, error) {
	if limit < 1 {
		limit = 100
	}
	query := `
		SELECT id, product_id, type, quantity, reason, user_id, created_at
		FROM stock_adjustments`
	args := []any{limit}
	if productID != "" {
		query += ` WHERE product_id = $2`
		args = append(args, productID)
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	adjs := make([]domain.StockAdjustment, 0, limit)
	for rows.Next() {
		var adj domain.StockAdjustment
		if err := rows.Scan(&adj.ID, &adj.ProductID, &adj.Type, &adj.Quantity,
			&adj.Reason, &adj.UserID, &adj.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		adjs = append(adjs, adj)
	}
	return adjs, rows.Err()
}

func (s *Store) GetScheduleByID(ctx context.Context, scheduleID string) (*domain.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, cashier_id, start_at, end_at FROM schedules WHERE id = $1`,
		scheduleID,
	)
	var sched domain.Schedule
	err := row.Scan(&sched.ID, &sched.CashierID, &sched.StartAt, &sched.EndAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &sched, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, business_id, actor_id, actor_role, action,
			entity_type, entity_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.BusinessID, entry.ActorID, entry.ActorRole, entry.Action,
		entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, businessID string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, business_id, actor_id, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE ($2 = '' OR business_id = $2) AND created_at >= $3 AND created_at < $4
		ORDER BY created_at DESC LIMIT $1`,
		limit, businessID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.BusinessID, &entry.ActorID,
			&entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID,
			&entry.Detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" {
		return store.ErrValidation
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		username, user.Password, user.Role, user.Active, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username already exists", store.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 4)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role,
			&user.Active, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password = $2 WHERE username = $1`, username, password)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
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
