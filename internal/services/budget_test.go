package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/helpers"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

func newTestBudgetService(db *memDB, n *fakeNotifier, now time.Time) *budgetService {
	svc := NewBudgetService(memBudgets{db}, n, time.UTC)
	svc.clockNow = fixedClock(now)
	return svc
}

func TestBudgetServiceCreateValidation(t *testing.T) {
	svc := newTestBudgetService(newMemDB(), &fakeNotifier{}, day("2025-03-10"))
	ctx := helpers.TestCtx()

	bad := []dto.CreateBudgetRequest{
		{Name: "", Category: "food", Amount: 100},
		{Name: "Food", Category: "food", Amount: -1},
		{Name: "Food", Category: "food", Amount: 100, Period: "daily"},
		{Name: "Food", Category: "food", Amount: 100, AlertThreshold: 120},
	}
	for _, req := range bad {
		_, err := svc.CreateBudget(ctx, "uid", req)
		var ve *errs.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("CreateBudget(%+v) error = %v, want ValidationError", req, err)
		}
	}

	v, err := svc.CreateBudget(ctx, "uid", dto.CreateBudgetRequest{Name: "Food", Category: "food", Amount: 400})
	if err != nil {
		t.Fatalf("CreateBudget returned error: %v", err)
	}
	if v.Period != models.PeriodMonthly || v.PeriodStart != "2025-03-01" || v.Status.Status != dto.BudgetSafe {
		t.Fatalf("unexpected budget view: %+v", v)
	}
}

func TestBudgetApplyRollsOverPeriods(t *testing.T) {
	svc := newTestBudgetService(newMemDB(), &fakeNotifier{}, day("2025-04-02"))
	b := &models.Budget{Category: "food", Amount: 100, Spent: 80, Period: models.PeriodMonthly, PeriodStart: "2025-03-01"}

	svc.Apply(b, &models.Transaction{Amount: 10, Date: "2025-03-30"})
	if b.Spent != 90 || b.PeriodStart != "2025-03-01" {
		t.Fatalf("same period apply: %+v", b)
	}

	svc.Apply(b, &models.Transaction{Amount: 15, Date: "2025-04-02"})
	if b.Spent != 15 || b.PeriodStart != "2025-04-01" {
		t.Fatalf("new period should restart spent: %+v", b)
	}

	svc.Apply(b, &models.Transaction{Amount: 50, Date: "2025-03-15"})
	if b.Spent != 15 {
		t.Fatalf("backdated expense should not count toward the new period: %+v", b)
	}
}

func TestBudgetListShowsRolledOverSpent(t *testing.T) {
	db := newMemDB()
	db.addBudget(models.Budget{BudgetID: "b1", Amount: 100, Spent: 95, Period: models.PeriodMonthly, PeriodStart: "2025-02-01"})
	svc := newTestBudgetService(db, &fakeNotifier{}, day("2025-03-10"))

	views, err := svc.ListBudgets(helpers.TestCtx(), "uid")
	if err != nil {
		t.Fatalf("ListBudgets returned error: %v", err)
	}
	if len(views) != 1 || views[0].Spent != 0 || views[0].Status.Status != dto.BudgetSafe {
		t.Fatalf("unexpected views: %+v", views[0])
	}
}

func TestNotifyThresholdsOncePerPeriod(t *testing.T) {
	db := newMemDB()
	db.addBudget(models.Budget{BudgetID: "b1", Name: "Food", Amount: 100, Spent: 85, AlertThreshold: 80, Period: models.PeriodMonthly, PeriodStart: "2025-03-01"})
	n := &fakeNotifier{}
	svc := newTestBudgetService(db, n, day("2025-03-10"))
	ctx := logger.ToContext(context.Background(), testLogger())

	b := db.budget("b1")
	changes := []dto.BudgetChange{{Budget: &b, PreviousSpent: 70}}
	svc.NotifyThresholds(ctx, "uid", "jane@example.com", changes)
	svc.NotifyThresholds(ctx, "uid", "jane@example.com", changes)

	if got := len(n.ofType(models.NotificationBudgetAlert)); got != 1 {
		t.Fatalf("budget alerts = %d, want 1", got)
	}
	if db.budget("b1").LastAlerted != "2025-03-01" {
		t.Fatalf("LastAlerted = %q", db.budget("b1").LastAlerted)
	}
}

func TestNotifyThresholdsBelowThreshold(t *testing.T) {
	db := newMemDB()
	db.addBudget(models.Budget{BudgetID: "b1", Amount: 100, Spent: 50, AlertThreshold: 80, Period: models.PeriodMonthly, PeriodStart: "2025-03-01"})
	n := &fakeNotifier{}
	svc := newTestBudgetService(db, n, day("2025-03-10"))

	b := db.budget("b1")
	svc.NotifyThresholds(helpers.TestCtx(), "uid", "", []dto.BudgetChange{{Budget: &b}})
	if len(n.sent) != 0 {
		t.Fatalf("expected no alerts, got %d", len(n.sent))
	}
}
