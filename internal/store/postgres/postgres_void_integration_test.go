package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestVoidTransactionRestocksInventory(t *testing.T) {
	databaseURL := os.Getenv("TILLBOOK_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TILLBOOK_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := Open(ctx, databaseURL)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-void-it-%d", stamp)
	shiftID := fmt.Sprintf("shift-void-it-%d", stamp)
	txID := fmt.Sprintf("tx-void-it-%d", stamp)
	itemID := fmt.Sprintf("item-void-it-%d", stamp)
	cashierID := fmt.Sprintf("cashier-void-it-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stock_adjustments WHERE product_id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transaction_items WHERE transaction_id = $1`, txID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, txID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM shifts WHERE id = $1`, shiftID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, price_cents, stock_qty, track_inventory, active)
		VALUES ($1, 'Void IT Mug', 1250, 8, true, true)
	`, productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO shifts (id, cashier_id, start_time, status, starting_cash_cents, total_sales_cents, total_transactions)
		VALUES ($1, $2, now() - interval '1 hour', 'active', 10000, 2500, 1)
	`, shiftID, cashierID); err != nil {
		t.Fatalf("insert shift: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			id, shift_id, type, subtotal_cents, tax_cents, total_cents,
			payment_method, cash_amount_cents, card_amount_cents, status,
			receipt_number, cashier_id, created_at
		)
		VALUES ($1, $2, 'sale', 2500, 0, 2500, 'cash', 2500, 0, 'completed', $3, $4, now())
	`, txID, shiftID, fmt.Sprintf("rcpt-void-it-%d", stamp), cashierID); err != nil {
		t.Fatalf("insert transaction: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO transaction_items (id, transaction_id, product_id, product_name, quantity, unit_price_cents, total_price_cents)
		VALUES ($1, $2, $3, 'Void IT Mug', 2, 1250, 2500)
	`, itemID, txID, productID); err != nil {
		t.Fatalf("insert transaction item: %v", err)
	}

	at := time.Now().UTC()
	voided, err := s.VoidTransaction(ctx, txID, cashierID, "integration test void", "", at)
	if err != nil {
		t.Fatalf("void transaction: %v", err)
	}
	if voided.Status != "voided" {
		t.Fatalf("expected voided status, got %s", voided.Status)
	}

	var qty int
	if err := s.db.QueryRowContext(ctx, `
		SELECT stock_qty FROM products WHERE id = $1
	`, productID).Scan(&qty); err != nil {
		t.Fatalf("query stock: %v", err)
	}
	if qty != 10 {
		t.Fatalf("expected stock 10 after void restock, got %d", qty)
	}

	var salesCents int64
	var voids int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT total_sales_cents, total_voids_cents FROM shifts WHERE id = $1
	`, shiftID).Scan(&salesCents, &voids); err != nil {
		t.Fatalf("query shift totals: %v", err)
	}
	if salesCents != 0 || voids != 2500 {
		t.Fatalf("expected shift totals 0 sales / 2500 voids, got %d / %d", salesCents, voids)
	}
}
