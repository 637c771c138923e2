package services

import (
	"fmt"
	"time"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"

	// upper bound for any look-ahead scan
	maxHorizonDays = 366
)

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampDay maps a configured day of month onto the month, so day 31 fires on the
// 30th in April and on the 28th or 29th in February.
func clampDay(year int, month time.Month, day int) int {
	if last := daysInMonth(year, month); day > last {
		return last
	}
	return day
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	a, b = dateOnly(a), dateOnly(b.In(a.Location()))
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// periodKey names the calendar period a date falls in: YYYY-MM for monthly,
// the ISO week for weekly and YYYY for yearly. Keys sort chronologically.
func periodKey(frequency string, t time.Time) string {
	switch frequency {
	case models.FrequencyWeekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case models.FrequencyYearly:
		return fmt.Sprintf("%04d", t.Year())
	default:
		return t.Format(monthLayout)
	}
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, errs.NewValidationError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s))
	}
	return t, nil
}

// triggers reports whether day is a charge day for exp.
func triggers(exp *models.RecurringExpense, start, day time.Time) bool {
	switch exp.Frequency {
	case models.FrequencyWeekly:
		return day.Weekday() == start.Weekday()
	case models.FrequencyYearly:
		return day.Month() == start.Month() && day.Day() == clampDay(day.Year(), start.Month(), start.Day())
	default:
		return day.Day() == clampDay(day.Year(), day.Month(), exp.DayOfMonth)
	}
}

// processedIn reports whether the lastProcessed marker falls in the same or a
// later period than day. A marker that cannot be parsed counts as processed.
func processedIn(frequency, lastProcessed string, day time.Time) (bool, error) {
	if lastProcessed == "" {
		return false, nil
	}
	lp, err := time.Parse(time.RFC3339, lastProcessed)
	if err != nil {
		return true, errs.NewValidationError(fmt.Sprintf("malformed lastProcessed %q", lastProcessed))
	}
	return periodKey(frequency, lp.In(day.Location())) >= periodKey(frequency, day), nil
}

// inWindow checks the startDate/endDate bounds.
func inWindow(exp *models.RecurringExpense, start, day time.Time) (bool, error) {
	if day.Before(start) {
		return false, nil
	}
	if exp.EndDate != "" {
		end, err := parseDate(exp.EndDate, day.Location())
		if err != nil {
			return false, err
		}
		if day.After(end) {
			return false, nil
		}
	}
	return true, nil
}

// IsDue reports whether exp should be charged on today (a date in the processing
// timezone). The error is non-nil only for records with unusable dates or a
// malformed period marker; those are never due.
func IsDue(exp *models.RecurringExpense, today time.Time) (bool, error) {
	if !exp.IsActive {
		return false, nil
	}
	today = dateOnly(today)
	start, err := parseDate(exp.StartDate, today.Location())
	if err != nil {
		return false, err
	}
	ok, err := inWindow(exp, start, today)
	if err != nil || !ok {
		return false, err
	}
	if !triggers(exp, start, today) {
		return false, nil
	}
	done, err := processedIn(exp.Frequency, exp.LastProcessed, today)
	if err != nil {
		return false, err
	}
	return !done, nil
}

// NextDueDate returns the first date on or after from, within horizon days, on
// which exp would be charged.
func NextDueDate(exp *models.RecurringExpense, from time.Time, horizon int) (time.Time, bool) {
	from = dateOnly(from)
	for i := 0; i <= horizon && i <= maxHorizonDays; i++ {
		day := from.AddDate(0, 0, i)
		if due, err := IsDue(exp, day); err != nil {
			return time.Time{}, false
		} else if due {
			return day, true
		}
	}
	return time.Time{}, false
}

// StatementDue reports whether a credit card's statement closes today and has
// not been closed yet this month.
func StatementDue(card *models.Card, today time.Time) bool {
	if !card.IsCredit() || !card.IsActive || card.StatementDay <= 0 {
		return false
	}
	if today.Day() != clampDay(today.Year(), today.Month(), card.StatementDay) {
		return false
	}
	closed := len(card.LastStatementDate) >= len(monthLayout) && card.LastStatementDate[:len(monthLayout)] >= today.Format(monthLayout)
	return !closed
}

// PaymentDue reports whether autopay should run for the card today.
func PaymentDue(card *models.Card, today time.Time) bool {
	if !card.IsCredit() || !card.IsActive || !card.AutoPayEnabled || card.PaymentDueDay <= 0 {
		return false
	}
	if today.Day() != clampDay(today.Year(), today.Month(), card.PaymentDueDay) {
		return false
	}
	done, _ := processedIn(models.FrequencyMonthly, card.LastPaymentProcessed, today)
	return !done
}

// NextPaymentDate returns the next autopay date within horizon days.
func NextPaymentDate(card *models.Card, from time.Time, horizon int) (time.Time, bool) {
	from = dateOnly(from)
	for i := 0; i <= horizon && i <= maxHorizonDays; i++ {
		day := from.AddDate(0, 0, i)
		if PaymentDue(card, day) {
			return day, true
		}
	}
	return time.Time{}, false
}

// checkAutoPayMode rejects autopay modes that can never resolve to a payment:
// statement mode without a statement day and minimum mode without a minimum.
func checkAutoPayMode(c *models.Card) error {
	switch c.AutoPayAmount {
	case models.AutoPayFull:
	case models.AutoPayStatement:
		if c.StatementDay == 0 {
			return errs.NewValidationError("autoPayAmount statement needs statementDay")
		}
	case models.AutoPayMinimum:
		if !money.IsPositive(c.MinimumPayment) {
			return errs.NewValidationError("autoPayAmount minimum needs a positive minimumPayment")
		}
	default:
		return errs.NewValidationError("autoPayAmount must be one of: minimum, statement, full")
	}
	return nil
}

// AutoPayAmount is what autopay would pay now, capped at the outstanding debt.
func AutoPayAmount(card *models.Card) float64 {
	owed := card.Outstanding()
	var amount float64
	switch card.AutoPayAmount {
	case models.AutoPayMinimum:
		amount = card.MinimumPayment
	case models.AutoPayStatement:
		amount = card.StatementBalance
	default:
		amount = owed
	}
	if !money.IsPositive(amount) {
		return 0
	}
	return money.Min(amount, owed)
}

// AvailableFunds is what a card can spend: the balance for debit cards and the
// remaining credit (limit plus the signed balance) for cards with a limit.
func AvailableFunds(card *models.Card) float64 {
	if card.CreditLimit != nil {
		return money.Add(*card.CreditLimit, card.Balance)
	}
	return card.Balance
}

// periodBounds returns the first and last day of the budget period containing t.
// Weekly periods are ISO weeks, Monday to Sunday.
func periodBounds(period string, t time.Time) (time.Time, time.Time) {
	t = dateOnly(t)
	switch period {
	case models.PeriodWeekly:
		start := t.AddDate(0, 0, -((int(t.Weekday()) + 6) % 7))
		return start, start.AddDate(0, 0, 6)
	case models.PeriodYearly:
		start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
		return start, time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, t.Location())
	default:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		return start, start.AddDate(0, 1, -1)
	}
}
