package services

import (
	"time"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

// Status bucket boundaries, in percent of the budget amount.
const (
	warningPercent  = 70
	dangerPercent   = 90
	exceededPercent = 100
)

// BudgetStatus derives the display status of a budget at now. It never mutates b.
func BudgetStatus(b *models.Budget, now time.Time) dto.BudgetStatus {
	today := dateOnly(now)
	start, end := periodBounds(b.Period, today)

	st := dto.BudgetStatus{
		Remaining:   money.Sub(b.Amount, b.Spent),
		DaysLeft:    max(daysBetween(today, end), 0),
		PeriodStart: start.Format(dateLayout),
		PeriodEnd:   end.Format(dateLayout),
	}

	if b.Amount <= 0 {
		st.Status = dto.BudgetSafe
		if b.Spent > 0 {
			st.Status = dto.BudgetExceeded
		}
		return st
	}

	st.Percentage = money.Percent(b.Spent, b.Amount)
	switch {
	case st.Percentage >= exceededPercent:
		st.Status = dto.BudgetExceeded
	case st.Percentage >= dangerPercent:
		st.Status = dto.BudgetDanger
	case st.Percentage >= warningPercent:
		st.Status = dto.BudgetWarning
	default:
		st.Status = dto.BudgetSafe
	}
	return st
}
