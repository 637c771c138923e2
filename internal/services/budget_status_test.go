package services

import (
	"testing"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
)

func TestBudgetStatusBuckets(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		spent  float64
		pct    float64
		status string
	}{
		{"empty", 500, 0, 0, dto.BudgetSafe},
		{"just under warning", 500, 349.95, 69.99, dto.BudgetSafe},
		{"warning boundary", 500, 350, 70, dto.BudgetWarning},
		{"danger boundary", 500, 450, 90, dto.BudgetDanger},
		{"exceeded boundary", 500, 500, 100, dto.BudgetExceeded},
		{"overspent", 500, 620, 124, dto.BudgetExceeded},
		{"zero amount nothing spent", 0, 0, 0, dto.BudgetSafe},
		{"zero amount with spending", 0, 10, 0, dto.BudgetExceeded},
		{"negative amount", -5, 0, 0, dto.BudgetSafe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &models.Budget{Amount: tt.amount, Spent: tt.spent, Period: models.PeriodMonthly}
			st := BudgetStatus(b, day("2025-03-10"))
			if st.Percentage != tt.pct || st.Status != tt.status {
				t.Fatalf("BudgetStatus = %v%% %s, want %v%% %s", st.Percentage, st.Status, tt.pct, tt.status)
			}
		})
	}
}

func TestBudgetStatusRemaining(t *testing.T) {
	st := BudgetStatus(&models.Budget{Amount: 100, Spent: 130.10, Period: models.PeriodMonthly}, day("2025-03-10"))
	if st.Remaining != -30.1 {
		t.Fatalf("Remaining = %v, want -30.1", st.Remaining)
	}
}

func TestBudgetStatusDaysLeft(t *testing.T) {
	tests := []struct {
		period   string
		today    string
		daysLeft int
		start    string
		end      string
	}{
		{models.PeriodMonthly, "2025-03-10", 21, "2025-03-01", "2025-03-31"},
		{models.PeriodMonthly, "2025-03-31", 0, "2025-03-01", "2025-03-31"},
		{models.PeriodWeekly, "2025-03-12", 4, "2025-03-10", "2025-03-16"},
		{models.PeriodWeekly, "2025-03-16", 0, "2025-03-10", "2025-03-16"},
		{models.PeriodYearly, "2025-12-01", 30, "2025-01-01", "2025-12-31"},
	}
	for _, tt := range tests {
		st := BudgetStatus(&models.Budget{Amount: 100, Period: tt.period}, day(tt.today))
		if st.DaysLeft != tt.daysLeft || st.PeriodStart != tt.start || st.PeriodEnd != tt.end {
			t.Fatalf("%s on %s: got %d days %s..%s, want %d days %s..%s", tt.period, tt.today,
				st.DaysLeft, st.PeriodStart, st.PeriodEnd, tt.daysLeft, tt.start, tt.end)
		}
	}
}

func TestBudgetStatusDoesNotMutate(t *testing.T) {
	b := &models.Budget{Amount: 100, Spent: 50, Period: models.PeriodMonthly, PeriodStart: "2025-01-01"}
	before := *b
	BudgetStatus(b, day("2025-03-10"))
	if *b != before {
		t.Fatalf("BudgetStatus mutated the budget: %+v", b)
	}
}
