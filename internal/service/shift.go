package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"tillbook/backend/internal/domain"
	"tillbook/backend/internal/store"
)

// Auto-close thresholds. The stale sweep covers all active shifts; the
// overdue sweep is a tighter same-day pass that runs more often.
const (
	staleScheduleOverdue = 4 * time.Hour
	staleUnscheduledMax  = 16 * time.Hour

	overdueScheduleOverdue = 2 * time.Hour
	overdueUnscheduledMax  = 12 * time.Hour
)

// CreateShift clocks a cashier in. At most one active shift per cashier;
// the store backs the pre-check with a uniqueness guarantee of its own.
func (s *Service) CreateShift(ctx context.Context, req domain.ShiftOpenRequest) (*domain.Shift, error) {
	if req.CashierID == "" {
		return nil, fmt.Errorf("%w: cashier id required", store.ErrValidation)
	}
	if req.StartingCashCents < 0 {
		return nil, fmt.Errorf("%w: starting cash must not be negative", store.ErrValidation)
	}

	if _, err := s.repo.GetActiveShiftByCashier(ctx, req.CashierID); err == nil {
		return nil, fmt.Errorf("%w: cashier already has an active shift", store.ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if req.ScheduleID != "" {
		sched, err := s.repo.GetScheduleByID(ctx, req.ScheduleID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: schedule %s does not exist", store.ErrValidation, req.ScheduleID)
			}
			return nil, err
		}
		if sched.CashierID != req.CashierID {
			return nil, fmt.Errorf("%w: schedule belongs to a different cashier", store.ErrValidation)
		}
	}

	businessID := req.BusinessID
	if businessID == "" {
		businessID = s.businessID
	}
	shift, err := s.repo.CreateShift(ctx, domain.Shift{
		CashierID:         req.CashierID,
		BusinessID:        businessID,
		ScheduleID:        req.ScheduleID,
		StartTime:         s.now(),
		StartingCashCents: req.StartingCashCents,
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "shift.opened", "shift", shift.ID,
		fmt.Sprintf("cashier %s, starting cash %d cents", shift.CashierID, shift.StartingCashCents))
	return shift, nil
}

func (s *Service) GetShiftByID(ctx context.Context, shiftID string) (*domain.Shift, error) {
	return s.repo.GetShiftByID(ctx, shiftID)
}

func (s *Service) GetActiveShiftByCashier(ctx context.Context, cashierID string) (*domain.Shift, error) {
	return s.repo.GetActiveShiftByCashier(ctx, cashierID)
}

func (s *Service) ListActiveShifts(ctx context.Context) ([]domain.Shift, error) {
	return s.repo.ListActiveShifts(ctx)
}

func (s *Service) ListShiftsPendingReview(ctx context.Context, limit int) ([]domain.Shift, error) {
	return s.repo.ListShiftsPendingReview(ctx, limit)
}

// EndShift clocks a cashier out. Running totals come from the caller (the
// ledger, not this method, is their source of truth); the expectation is
// recomputed here so the persisted variance is final - expected at the
// moment of close. A second end on the same shift is rejected by the store.
func (s *Service) EndShift(ctx context.Context, shiftID string, end domain.ShiftEndRequest) (*domain.Shift, error) {
	if end.FinalCashDrawerCents < 0 {
		return nil, fmt.Errorf("%w: final cash drawer must not be negative", store.ErrValidation)
	}
	expected, err := s.GetExpectedCashForShift(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	shift, err := s.repo.EndShift(ctx, shiftID, end, expected.ExpectedAmountCents, s.now())
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "shift.ended", "shift", shift.ID,
		fmt.Sprintf("final %d, expected %d, variance %d cents",
			shift.FinalCashDrawerCents, shift.ExpectedCashDrawerCents, shift.CashVarianceCents))
	return shift, nil
}

// ReconcileShift lets a manager correct the estimated figures an auto-close
// left behind. The shift stays ended; only the final drawer, variance and
// notes change, and the review flag clears.
func (s *Service) ReconcileShift(ctx context.Context, shiftID string, req domain.ShiftReconcileRequest) (*domain.Shift, error) {
	if req.ManagerID == "" {
		return nil, fmt.Errorf("%w: manager id required", store.ErrValidation)
	}
	if req.ActualCashDrawerCents < 0 {
		return nil, fmt.Errorf("%w: actual cash drawer must not be negative", store.ErrValidation)
	}
	shift, err := s.repo.ReconcileShift(ctx, shiftID, req, s.now())
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "shift.reconciled", "shift", shift.ID,
		fmt.Sprintf("manager %s set final %d, variance %d cents",
			req.ManagerID, shift.FinalCashDrawerCents, shift.CashVarianceCents))
	return shift, nil
}

// AutoCloseOldActiveShifts sweeps every active shift regardless of date.
// Per shift, first match wins: open since before yesterday 06:00; or
// scheduled and more than 4 hours past scheduled end; or unscheduled and
// active more than 16 hours. Closing uses estimated figures and flags the
// shift for manager review. One shift's failure never aborts the sweep.
func (s *Service) AutoCloseOldActiveShifts(ctx context.Context) (int, error) {
	now := s.now()
	shifts, err := s.repo.ListActiveShifts(ctx)
	if err != nil {
		return 0, err
	}

	yesterday := now.AddDate(0, 0, -1)
	overnightCutoff := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 6, 0, 0, 0, now.Location())

	closed := 0
	for _, shift := range shifts {
		reason := ""
		switch {
		case shift.StartTime.Before(overnightCutoff):
			reason = "Auto-closed: left open more than 24 hours."
		default:
			sched := s.scheduleFor(ctx, &shift)
			if sched != nil {
				if overdue := now.Sub(sched.EndAt); overdue > staleScheduleOverdue {
					reason = fmt.Sprintf("Auto-closed: %d hours past scheduled end.", int(overdue.Hours()))
				}
			} else if active := now.Sub(shift.StartTime); active > staleUnscheduledMax {
				reason = fmt.Sprintf("Auto-closed: active for %d hours with no schedule.", int(active.Hours()))
			}
		}
		if reason == "" {
			continue
		}
		if s.autoClose(ctx, shift.ID, reason, now) {
			closed++
		}
	}
	return closed, nil
}

// AutoEndOverdueShiftsToday is the stricter same-day sweep: shifts started
// today close 2 hours past their scheduled end, or after 12 active hours
// when unscheduled.
func (s *Service) AutoEndOverdueShiftsToday(ctx context.Context) (int, error) {
	now := s.now()
	shifts, err := s.repo.ListActiveShifts(ctx)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, shift := range shifts {
		if !sameDay(shift.StartTime, now) {
			continue
		}
		reason := ""
		sched := s.scheduleFor(ctx, &shift)
		if sched != nil {
			if overdue := now.Sub(sched.EndAt); overdue > overdueScheduleOverdue {
				reason = fmt.Sprintf("Auto-closed: %d hours past scheduled end.", int(overdue.Hours()))
			}
		} else if active := now.Sub(shift.StartTime); active > overdueUnscheduledMax {
			reason = fmt.Sprintf("Auto-closed: active for %d hours with no schedule.", int(active.Hours()))
		}
		if reason == "" {
			continue
		}
		if s.autoClose(ctx, shift.ID, reason, now) {
			closed++
		}
	}
	return closed, nil
}

// scheduleFor resolves a shift's schedule. A dangling schedule id is
// treated as unscheduled so the shift still ages out under the no-schedule
// rule.
func (s *Service) scheduleFor(ctx context.Context, shift *domain.Shift) *domain.Schedule {
	if shift.ScheduleID == "" {
		return nil
	}
	sched, err := s.repo.GetScheduleByID(ctx, shift.ScheduleID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[service] WARN: schedule lookup failed for shift %s: %v", shift.ID, err)
		}
		return nil
	}
	return sched
}

func (s *Service) autoClose(ctx context.Context, shiftID string, reason string, now time.Time) bool {
	shift, err := s.repo.AutoCloseShift(ctx, shiftID, reason, now)
	if err != nil {
		// Already ended means another sweep won the race; that is the
		// idempotent outcome, not a failure worth logging loudly.
		if !errors.Is(err, store.ErrConflict) {
			log.Printf("[service] WARN: auto-close failed for shift %s: %v", shiftID, err)
		}
		return false
	}
	s.logAudit(ctx, "shift.auto_closed", "shift", shift.ID,
		strings.TrimSpace(fmt.Sprintf("%s estimated drawer %d cents", reason, shift.FinalCashDrawerCents)))
	return true
}

func sameDay(a time.Time, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
