package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store"
)

func TestCreateShiftOnePerCashier(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, _ := newTestService(&now)

	first, err := svc.CreateShift(context.Background(), domain.ShiftOpenRequest{
		CashierID: "alice", StartingCashCents: 10000,
	})
	if err != nil {
		t.Fatalf("CreateShift: %v", err)
	}
	if first.Status != domain.ShiftStatusActive {
		t.Fatalf("new shift status = %s, want active", first.Status)
	}

	if _, err := svc.CreateShift(context.Background(), domain.ShiftOpenRequest{
		CashierID: "alice", StartingCashCents: 5000,
	}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second active shift for the same cashier must conflict, got %v", err)
	}

	// Another cashier is unaffected; after ending, alice can open again.
	if _, err := svc.CreateShift(context.Background(), domain.ShiftOpenRequest{
		CashierID: "bob", StartingCashCents: 5000,
	}); err != nil {
		t.Fatalf("CreateShift for bob: %v", err)
	}
	if _, err := svc.EndShift(context.Background(), first.ID, domain.ShiftEndRequest{FinalCashDrawerCents: 10000}); err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	if _, err := svc.CreateShift(context.Background(), domain.ShiftOpenRequest{
		CashierID: "alice", StartingCashCents: 10000,
	}); err != nil {
		t.Fatalf("reopening after end: %v", err)
	}
}

func TestCreateShiftValidatesSchedule(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc, st := newTestService(&now)
	st.SeedSchedule(domain.Schedule{
		ID: "sched-1", CashierID: "alice",
		StartAt: now, EndAt: now.Add(8 * time.Hour),
	})

	if _, err := svc.CreateShift(context.Background(), domain.ShiftOpenRequest{
		CashierID: "bob", ScheduleID: "sched-1", StartingCashCents: 1000,
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("schedule of another cashier must be rejected, got %v", err)
	}
	if _, err := svc.CreateShift(context.Background(), domain.ShiftOpenRequest{
		CashierID: "alice", ScheduleID: "sched-missing", StartingCashCents: 1000,
	}); !errors.Is(err, store.ErrValidation) {
		t.Fatalf("unknown schedule must be rejected, got %v", err)
	}
	if _, err := svc.CreateShift(context.Background(), domain.ShiftOpenRequest{
		CashierID: "alice", ScheduleID: "sched-1", StartingCashCents: 1000,
	}); err != nil {
		t.Fatalf("CreateShift with own schedule: %v", err)
	}
}

func TestEndShiftComputesVarianceOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc, st := newTestService(&now)
	seedActiveShift(st, "shift-1", "alice", 10000, now.Add(-8*time.Hour))
	mustCreateSale(t, svc, cashSale("shift-1", 2500))

	ended, err := svc.EndShift(context.Background(), "shift-1", domain.ShiftEndRequest{
		FinalCashDrawerCents: 12300,
		TotalSalesCents:      2500,
		TotalTransactions:    1,
	})
	if err != nil {
		t.Fatalf("EndShift: %v", err)
	}
	if ended.Status != domain.ShiftStatusEnded || ended.EndTime == nil {
		t.Fatalf("shift not ended: %+v", ended)
	}
	if ended.ExpectedCashDrawerCents != 12500 || ended.CashVarianceCents != -200 {
		t.Fatalf("expected/variance = %d/%d, want 12500/-200",
			ended.ExpectedCashDrawerCents, ended.CashVarianceCents)
	}

	// Ending twice must never double-apply variance.
	if _, err := svc.EndShift(context.Background(), "shift-1", domain.ShiftEndRequest{
		FinalCashDrawerCents: 999,
	}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second EndShift must conflict, got %v", err)
	}
	unchanged, _ := svc.GetShiftByID(context.Background(), "shift-1")
	if unchanged.CashVarianceCents != -200 || unchanged.FinalCashDrawerCents != 12300 {
		t.Fatalf("second end mutated the shift: %+v", unchanged)
	}
}

func TestAutoCloseOldActiveShifts(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	svc, st := newTestService(&now)

	// Open since 02:00 yesterday: caught by the overnight rule.
	seedActiveShift(st, "shift-old", "alice", 10000, now.Add(-40*time.Hour))
	st.SeedShift(domain.Shift{
		ID: "shift-old2", CashierID: "alice2", StartTime: now.Add(-40 * time.Hour),
		Status: domain.ShiftStatusActive, StartingCashCents: 10000, TotalSalesCents: 4200,
	})
	// Started today, 5 hours past its scheduled end.
	st.SeedSchedule(domain.Schedule{
		ID: "sched-b", CashierID: "bob",
		StartAt: now.Add(-10 * time.Hour), EndAt: now.Add(-5 * time.Hour),
	})
	st.SeedShift(domain.Shift{
		ID: "shift-sched", CashierID: "bob", ScheduleID: "sched-b",
		StartTime: now.Add(-10 * time.Hour), Status: domain.ShiftStatusActive,
		StartingCashCents: 5000,
	})
	// Started 3 hours ago: left alone.
	seedActiveShift(st, "shift-fresh", "carol", 2000, now.Add(-3*time.Hour))

	closed, err := svc.AutoCloseOldActiveShifts(context.Background())
	if err != nil {
		t.Fatalf("AutoCloseOldActiveShifts: %v", err)
	}
	if closed != 3 {
		t.Fatalf("closed = %d, want 3", closed)
	}

	old, _ := svc.GetShiftByID(context.Background(), "shift-old")
	if old.Status != domain.ShiftStatusEnded || !strings.Contains(old.Notes, "24 hours") {
		t.Fatalf("overnight shift not closed with the 24-hour reason: %+v", old)
	}
	if !old.PendingManagerReview {
		t.Fatalf("auto-closed shift must be flagged for manager review")
	}

	// Estimated figures: final = expected = startingCash + totalSales.
	old2, _ := svc.GetShiftByID(context.Background(), "shift-old2")
	if old2.FinalCashDrawerCents != 14200 || old2.ExpectedCashDrawerCents != 14200 {
		t.Fatalf("estimate = %d/%d, want 14200/14200",
			old2.FinalCashDrawerCents, old2.ExpectedCashDrawerCents)
	}

	sched, _ := svc.GetShiftByID(context.Background(), "shift-sched")
	if sched.Status != domain.ShiftStatusEnded || !strings.Contains(sched.Notes, "scheduled end") {
		t.Fatalf("overdue scheduled shift not closed: %+v", sched)
	}

	fresh, _ := svc.GetShiftByID(context.Background(), "shift-fresh")
	if fresh.Status != domain.ShiftStatusActive {
		t.Fatalf("3-hour-old shift must stay open")
	}

	// Idempotent: a second sweep closes nothing more.
	closed, err = svc.AutoCloseOldActiveShifts(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if closed != 0 {
		t.Fatalf("second sweep closed %d, want 0", closed)
	}
}

func TestAutoEndOverdueShiftsToday(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	svc, st := newTestService(&now)

	// Started today 13 hours ago with no schedule: past the 12-hour cap.
	seedActiveShift(st, "shift-long", "alice", 10000, now.Add(-13*time.Hour))
	// Started today, 3 hours past its scheduled end: past the 2-hour cap.
	st.SeedSchedule(domain.Schedule{
		ID: "sched-1", CashierID: "bob",
		StartAt: now.Add(-8 * time.Hour), EndAt: now.Add(-3 * time.Hour),
	})
	st.SeedShift(domain.Shift{
		ID: "shift-sched", CashierID: "bob", ScheduleID: "sched-1",
		StartTime: now.Add(-8 * time.Hour), Status: domain.ShiftStatusActive,
		StartingCashCents: 5000,
	})
	// Started yesterday: not this sweep's business.
	seedActiveShift(st, "shift-yesterday", "carol", 2000, now.Add(-20*time.Hour))
	// Started today 5 hours ago, unscheduled: left alone.
	seedActiveShift(st, "shift-ok", "dave", 2000, now.Add(-5*time.Hour))

	closed, err := svc.AutoEndOverdueShiftsToday(context.Background())
	if err != nil {
		t.Fatalf("AutoEndOverdueShiftsToday: %v", err)
	}
	if closed != 2 {
		t.Fatalf("closed = %d, want 2", closed)
	}
	for _, id := range []string{"shift-long", "shift-sched"} {
		shift, _ := svc.GetShiftByID(context.Background(), id)
		if shift.Status != domain.ShiftStatusEnded {
			t.Fatalf("%s should be closed", id)
		}
	}
	for _, id := range []string{"shift-yesterday", "shift-ok"} {
		shift, _ := svc.GetShiftByID(context.Background(), id)
		if shift.Status != domain.ShiftStatusActive {
			t.Fatalf("%s should stay open", id)
		}
	}
}

func TestReconcileShiftClearsReviewFlag(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	svc, st := newTestService(&now)
	st.SeedShift(domain.Shift{
		ID: "shift-1", CashierID: "alice", StartTime: now.Add(-30 * time.Hour),
		Status: domain.ShiftStatusActive, StartingCashCents: 10000, TotalSalesCents: 2500,
	})

	if _, err := svc.AutoCloseOldActiveShifts(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	pending, err := svc.ListShiftsPendingReview(context.Background(), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("pending review = %v (%v), want the auto-closed shift", pending, err)
	}

	reconciled, err := svc.ReconcileShift(context.Background(), "shift-1", domain.ShiftReconcileRequest{
		ActualCashDrawerCents: 12300,
		ManagerNotes:          "till was short",
		ManagerID:             "manager",
	})
	if err != nil {
		t.Fatalf("ReconcileShift: %v", err)
	}
	if reconciled.Status != domain.ShiftStatusEnded {
		t.Fatalf("reconcile must not change status")
	}
	if reconciled.FinalCashDrawerCents != 12300 || reconciled.CashVarianceCents != 12300-12500 {
		t.Fatalf("reconciled figures = %d/%d, want 12300/-200",
			reconciled.FinalCashDrawerCents, reconciled.CashVarianceCents)
	}
	if reconciled.PendingManagerReview {
		t.Fatalf("reconciliation must clear the review flag")
	}
	if !strings.Contains(reconciled.Notes, "manager") {
		t.Fatalf("manager note missing: %q", reconciled.Notes)
	}

	pending, _ = svc.ListShiftsPendingReview(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("pending list should be empty after reconcile")
	}

	// Reconciling an active shift is a state error.
	seedActiveShift(st, "shift-2", "bob", 1000, now)
	if _, err := svc.ReconcileShift(context.Background(), "shift-2", domain.ShiftReconcileRequest{
		ActualCashDrawerCents: 1000, ManagerID: "manager",
	}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("reconciling an active shift must conflict, got %v", err)
	}
}
