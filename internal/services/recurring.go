package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

type recurringRSStore interface {
	Create(ctx context.Context, uid string, exp *models.RecurringExpense) error
	Get(ctx context.Context, uid, id string) (*models.RecurringExpense, error)
	List(ctx context.Context, uid string, activeOnly bool) ([]*models.RecurringExpense, error)
	Update(ctx context.Context, uid, id string, fn func(*models.RecurringExpense) error) (*models.RecurringExpense, error)
	Delete(ctx context.Context, uid, id string) error
}

type cardRSStore interface {
	Get(ctx context.Context, uid, cardID string) (*models.Card, error)
}

type recurringService struct {
	store    recurringRSStore
	cards    cardRSStore
	loc      *time.Location
	clockNow func() time.Time
}

func NewRecurringService(store recurringRSStore, cards cardRSStore, loc *time.Location) *recurringService {
	return &recurringService{
		store:    store,
		cards:    cards,
		loc:      loc,
		clockNow: time.Now,
	}
}

// validateRecurring checks a record as it would be stored. Weekly and yearly
// records take their trigger from startDate.
func validateRecurring(exp *models.RecurringExpense, loc *time.Location) error {
	if strings.TrimSpace(exp.Name) == "" {
		return errs.NewValidationError("name is required")
	}
	if !money.IsPositive(exp.Amount) {
		return errs.NewValidationError("amount must be greater than 0")
	}
	if exp.CardID == "" {
		return errs.NewValidationError("cardId is required")
	}
	switch exp.Frequency {
	case models.FrequencyMonthly:
		if !validDay(exp.DayOfMonth) {
			return errs.NewValidationError("dayOfMonth must be between 1 and 31")
		}
	case models.FrequencyWeekly, models.FrequencyYearly:
	default:
		return errs.NewValidationError("frequency must be one of: monthly, weekly, yearly")
	}
	start, err := parseDate(exp.StartDate, loc)
	if err != nil {
		return err
	}
	if exp.EndDate != "" {
		end, err := parseDate(exp.EndDate, loc)
		if err != nil {
			return err
		}
		if end.Before(start) {
			return errs.NewValidationError("endDate must not be before startDate")
		}
	}
	return nil
}

func (s *recurringService) CreateRecurring(ctx context.Context, uid string, req dto.CreateRecurringRequest) (*models.RecurringExpense, error) {
	exp := &models.RecurringExpense{
		ID:         uuid.New().String(),
		UserID:     uid,
		Name:       req.Name,
		Amount:     req.Amount,
		Category:   req.Category,
		CardID:     req.CardID,
		Frequency:  req.Frequency,
		DayOfMonth: req.DayOfMonth,
		IsActive:   true,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}
	if exp.Frequency == "" {
		exp.Frequency = models.FrequencyMonthly
	}
	if exp.StartDate == "" {
		exp.StartDate = s.clockNow().In(s.loc).Format(dateLayout)
	}
	if exp.Frequency != models.FrequencyMonthly && exp.DayOfMonth == 0 {
		if start, err := parseDate(exp.StartDate, s.loc); err == nil {
			exp.DayOfMonth = start.Day()
		}
	}
	if err := validateRecurring(exp, s.loc); err != nil {
		return nil, err
	}
	if _, err := s.cards.Get(ctx, uid, exp.CardID); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, uid, exp); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("recurring expense created", "recurring_id", exp.ID, "frequency", exp.Frequency)
	return exp, nil
}

func (s *recurringService) GetRecurring(ctx context.Context, uid, id string) (*models.RecurringExpense, error) {
	return s.store.Get(ctx, uid, id)
}

func (s *recurringService) ListRecurring(ctx context.Context, uid string, activeOnly bool) ([]*models.RecurringExpense, error) {
	return s.store.List(ctx, uid, activeOnly)
}

func (s *recurringService) UpdateRecurring(ctx context.Context, uid, id string, req dto.UpdateRecurringRequest) (*models.RecurringExpense, error) {
	if req.CardID != nil {
		if _, err := s.cards.Get(ctx, uid, *req.CardID); err != nil {
			return nil, err
		}
	}

	exp, err := s.store.Update(ctx, uid, id, func(e *models.RecurringExpense) error {
		if req.Name != nil {
			e.Name = *req.Name
		}
		if req.Amount != nil {
			e.Amount = *req.Amount
		}
		if req.Category != nil {
			e.Category = *req.Category
		}
		if req.CardID != nil {
			e.CardID = *req.CardID
		}
		if req.Frequency != nil {
			e.Frequency = *req.Frequency
		}
		if req.DayOfMonth != nil {
			e.DayOfMonth = *req.DayOfMonth
		}
		if req.IsActive != nil {
			e.IsActive = *req.IsActive
		}
		if req.StartDate != nil {
			e.StartDate = *req.StartDate
		}
		if req.EndDate != nil {
			e.EndDate = *req.EndDate
		}
		return validateRecurring(e, s.loc)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("recurring expense updated", "recurring_id", id)
	return exp, nil
}

// DeleteRecurring deactivates the record, or removes it when hard is set.
func (s *recurringService) DeleteRecurring(ctx context.Context, uid, id string, hard bool) error {
	log := logger.FromContext(ctx)
	if hard {
		if err := s.store.Delete(ctx, uid, id); err != nil {
			return err
		}
		log.Info("recurring expense deleted", "recurring_id", id)
		return nil
	}

	_, err := s.store.Update(ctx, uid, id, func(e *models.RecurringExpense) error {
		e.IsActive = false
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("recurring expense deactivated", "recurring_id", id)
	return nil
}
