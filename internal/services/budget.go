package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

type budgetStore interface {
	Create(ctx context.Context, uid string, b *models.Budget) error
	Get(ctx context.Context, uid, budgetID string) (*models.Budget, error)
	List(ctx context.Context, uid string) ([]*models.Budget, error)
	Update(ctx context.Context, uid, budgetID string, fn func(*models.Budget) error) (*models.Budget, error)
	Delete(ctx context.Context, uid, budgetID string) error
}

type notifier interface {
	Notify(ctx context.Context, uid, email string, n *models.Notification) error
}

type budgetService struct {
	store    budgetStore
	notifier notifier
	loc      *time.Location
	clockNow func() time.Time
}

func NewBudgetService(store budgetStore, notifier notifier, loc *time.Location) *budgetService {
	return &budgetService{
		store:    store,
		notifier: notifier,
		loc:      loc,
		clockNow: time.Now,
	}
}

func (s *budgetService) now() time.Time {
	return s.clockNow().In(s.loc)
}

func validPeriod(p string) bool {
	switch p {
	case models.PeriodWeekly, models.PeriodMonthly, models.PeriodYearly:
		return true
	}
	return false
}

func (s *budgetService) view(b *models.Budget) dto.BudgetView {
	now := s.now()
	rollover(b, now)
	return dto.BudgetView{Budget: b, Status: BudgetStatus(b, now)}
}

// rollover zeroes spent when the stored total belongs to an earlier period.
func rollover(b *models.Budget, at time.Time) {
	start, _ := periodBounds(b.Period, at)
	if key := start.Format(dateLayout); b.PeriodStart < key {
		if b.PeriodStart != "" {
			b.Spent = 0
		}
		b.PeriodStart = key
	}
}

func (s *budgetService) CreateBudget(ctx context.Context, uid string, req dto.CreateBudgetRequest) (dto.BudgetView, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Category) == "" {
		return dto.BudgetView{}, errs.NewValidationError("name and category are required")
	}
	if req.Amount < 0 {
		return dto.BudgetView{}, errs.NewValidationError("amount must not be negative")
	}
	if req.Period == "" {
		req.Period = models.PeriodMonthly
	}
	if !validPeriod(req.Period) {
		return dto.BudgetView{}, errs.NewValidationError("period must be one of: weekly, monthly, yearly")
	}
	if req.AlertThreshold < 0 || req.AlertThreshold > 100 {
		return dto.BudgetView{}, errs.NewValidationError("alertThreshold must be between 0 and 100")
	}

	b := &models.Budget{
		BudgetID:       uuid.New().String(),
		Name:           req.Name,
		Category:       req.Category,
		Amount:         req.Amount,
		Period:         req.Period,
		AlertThreshold: req.AlertThreshold,
	}
	rollover(b, s.now())
	if err := s.store.Create(ctx, uid, b); err != nil {
		return dto.BudgetView{}, err
	}
	logger.FromContext(ctx).Info("budget created", "budget_id", b.BudgetID, "category", b.Category)
	return s.view(b), nil
}

func (s *budgetService) GetBudget(ctx context.Context, uid, budgetID string) (dto.BudgetView, error) {
	b, err := s.store.Get(ctx, uid, budgetID)
	if err != nil {
		return dto.BudgetView{}, err
	}
	return s.view(b), nil
}

func (s *budgetService) ListBudgets(ctx context.Context, uid string) ([]dto.BudgetView, error) {
	budgets, err := s.store.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, s.view(b))
	}
	return out, nil
}

func (s *budgetService) UpdateBudget(ctx context.Context, uid, budgetID string, req dto.UpdateBudgetRequest) (dto.BudgetView, error) {
	b, err := s.store.Update(ctx, uid, budgetID, func(b *models.Budget) error {
		if req.Name != nil {
			b.Name = *req.Name
		}
		if req.Category != nil {
			b.Category = *req.Category
		}
		if req.Amount != nil {
			if *req.Amount < 0 {
				return errs.NewValidationError("amount must not be negative")
			}
			b.Amount = *req.Amount
		}
		if req.Spent != nil {
			b.Spent = *req.Spent
		}
		if req.Period != nil {
			if !validPeriod(*req.Period) {
				return errs.NewValidationError("period must be one of: weekly, monthly, yearly")
			}
			b.Period = *req.Period
			b.PeriodStart = ""
		}
		if req.AlertThreshold != nil {
			if *req.AlertThreshold < 0 || *req.AlertThreshold > 100 {
				return errs.NewValidationError("alertThreshold must be between 0 and 100")
			}
			b.AlertThreshold = *req.AlertThreshold
		}
		return nil
	})
	if err != nil {
		return dto.BudgetView{}, err
	}
	return s.view(b), nil
}

func (s *budgetService) DeleteBudget(ctx context.Context, uid, budgetID string) error {
	return s.store.Delete(ctx, uid, budgetID)
}

// Apply adds an expense to a budget of the same category. Expenses dated before
// the budget's current period are not counted.
func (s *budgetService) Apply(b *models.Budget, t *models.Transaction) {
	at, err := parseDate(t.Date, s.loc)
	if err != nil {
		at = s.now()
	}
	start, _ := periodBounds(b.Period, at)
	if b.PeriodStart != "" && start.Format(dateLayout) < b.PeriodStart {
		return
	}
	rollover(b, at)
	b.Spent = money.Add(b.Spent, t.Amount)
}

// NotifyThresholds sends one budget_alert per budget period for budgets that
// reached their alert threshold.
func (s *budgetService) NotifyThresholds(ctx context.Context, uid, email string, changes []dto.BudgetChange) {
	log := logger.FromContext(ctx)
	br := breaker.FromContext(ctx)
	for _, c := range changes {
		b := c.Budget
		if b.AlertThreshold <= 0 || b.Amount <= 0 {
			continue
		}
		pct := money.Percent(b.Spent, b.Amount)
		if pct < b.AlertThreshold || b.LastAlerted == b.PeriodStart {
			continue
		}

		key := b.PeriodStart
		_, err := s.store.Update(ctx, uid, b.BudgetID, func(cur *models.Budget) error {
			if cur.LastAlerted == key {
				return errs.NewAlreadyProcessedError("budget alert already sent")
			}
			cur.LastAlerted = key
			return nil
		})
		if err != nil {
			br.Record(err)
			log.Info("budget alert not sent", "budget_id", b.BudgetID, "error", err)
			continue
		}

		n := &models.Notification{
			Type:      models.NotificationBudgetAlert,
			Title:     fmt.Sprintf("Budget %s at %.0f%%", b.Name, pct),
			Message:   fmt.Sprintf("You have spent %.2f of your %.2f %s budget.", b.Spent, b.Amount, b.Period),
			Amount:    b.Spent,
			RelatedID: b.BudgetID,
		}
		if err := s.notifier.Notify(ctx, uid, email, n); err != nil {
			log.Error("failed to create budget alert", "budget_id", b.BudgetID, "error", err)
		}
	}
}
