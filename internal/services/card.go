package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

type cardCSStore interface {
	Create(ctx context.Context, uid string, card *models.Card) error
	Get(ctx context.Context, uid, cardID string) (*models.Card, error)
	List(ctx context.Context, uid string) ([]*models.Card, error)
	Update(ctx context.Context, uid, cardID string, fn func(*models.Card) error) (*models.Card, error)
	Delete(ctx context.Context, uid, cardID string) error
}

type recurringCSStore interface {
	List(ctx context.Context, uid string, activeOnly bool) ([]*models.RecurringExpense, error)
}

type cardService struct {
	cards     cardCSStore
	recurring recurringCSStore
}

func NewCardService(cards cardCSStore, recurring recurringCSStore) *cardService {
	return &cardService{
		cards:     cards,
		recurring: recurring,
	}
}

func cardView(c *models.Card) dto.CardView {
	v := dto.CardView{Card: c, Outstanding: c.Outstanding()}
	if c.CreditLimit != nil {
		avail := AvailableFunds(c)
		v.AvailableCredit = &avail
		if *c.CreditLimit > 0 {
			u := money.Percent(c.Outstanding(), *c.CreditLimit)
			v.Utilization = &u
		}
	}
	return v
}

func validDay(d int) bool { return d >= 1 && d <= 31 }

func validateCreditFields(c *models.Card) error {
	if c.CreditLimit != nil && *c.CreditLimit < 0 {
		return errs.NewValidationError("creditLimit must not be negative")
	}
	if !c.IsCredit() {
		return nil
	}
	if c.CreditLimit == nil {
		return errs.NewValidationError("creditLimit is required for credit cards")
	}
	if c.StatementDay != 0 && !validDay(c.StatementDay) {
		return errs.NewValidationError("statementDay must be between 1 and 31")
	}
	if c.PaymentDueDay != 0 && !validDay(c.PaymentDueDay) {
		return errs.NewValidationError("paymentDueDay must be between 1 and 31")
	}
	if c.MinimumPayment < 0 {
		return errs.NewValidationError("minimumPayment must not be negative")
	}
	if !c.AutoPayEnabled {
		return nil
	}
	if err := checkAutoPayMode(c); err != nil {
		return err
	}
	if c.PaymentDueDay == 0 || c.PaymentDebitCardID == "" {
		return errs.NewValidationError("autopay needs paymentDueDay and paymentDebitCardId")
	}
	if c.PaymentDebitCardID == c.CardID {
		return errs.NewValidationError("a card cannot pay itself")
	}
	return nil
}

func (s *cardService) checkFundingCard(ctx context.Context, uid string, c *models.Card) error {
	if c.PaymentDebitCardID == "" {
		return nil
	}
	funding, err := s.cards.Get(ctx, uid, c.PaymentDebitCardID)
	if err != nil {
		return err
	}
	if funding.IsCredit() {
		return errs.NewValidationError("paymentDebitCardId must reference a debit card")
	}
	return nil
}

func (s *cardService) CreateCard(ctx context.Context, uid string, req dto.CreateCardRequest) (dto.CardView, error) {
	if strings.TrimSpace(req.Name) == "" {
		return dto.CardView{}, errs.NewValidationError("name is required")
	}
	if req.Type != models.CardTypeCredit && req.Type != models.CardTypeDebit {
		return dto.CardView{}, errs.NewValidationError("type must be credit or debit")
	}
	currency := "USD"
	if req.Currency != "" {
		c, err := money.ParseCurrency(req.Currency)
		if err != nil {
			return dto.CardView{}, errs.NewValidationError(fmt.Sprintf("unknown currency %q", req.Currency))
		}
		currency = c
	}

	card := &models.Card{
		CardID:             uuid.New().String(),
		Name:               req.Name,
		Type:               req.Type,
		Currency:           currency,
		Balance:            req.Balance,
		CreditLimit:        req.CreditLimit,
		StatementDay:       req.StatementDay,
		PaymentDueDay:      req.PaymentDueDay,
		AutoPayEnabled:     req.AutoPayEnabled,
		AutoPayAmount:      req.AutoPayAmount,
		MinimumPayment:     req.MinimumPayment,
		PaymentDebitCardID: req.PaymentDebitCardID,
		IsActive:           true,
	}
	if card.AutoPayEnabled && card.AutoPayAmount == "" {
		card.AutoPayAmount = models.AutoPayFull
	}
	if err := validateCreditFields(card); err != nil {
		return dto.CardView{}, err
	}
	if err := s.checkFundingCard(ctx, uid, card); err != nil {
		return dto.CardView{}, err
	}
	if err := s.cards.Create(ctx, uid, card); err != nil {
		return dto.CardView{}, err
	}

	logger.FromContext(ctx).Info("card created", "card_id", card.CardID, "type", card.Type)
	return cardView(card), nil
}

func (s *cardService) GetCard(ctx context.Context, uid, cardID string) (dto.CardView, error) {
	c, err := s.cards.Get(ctx, uid, cardID)
	if err != nil {
		return dto.CardView{}, err
	}
	return cardView(c), nil
}

func (s *cardService) ListCards(ctx context.Context, uid string) ([]dto.CardView, error) {
	cards, err := s.cards.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CardView, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardView(c))
	}
	return out, nil
}

func (s *cardService) UpdateCard(ctx context.Context, uid, cardID string, req dto.UpdateCardRequest) (dto.CardView, error) {
	if req.PaymentDebitCardID != nil && *req.PaymentDebitCardID != "" {
		if err := s.checkFundingCard(ctx, uid, &models.Card{PaymentDebitCardID: *req.PaymentDebitCardID}); err != nil {
			return dto.CardView{}, err
		}
	}

	c, err := s.cards.Update(ctx, uid, cardID, func(c *models.Card) error {
		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return errs.NewValidationError("name must not be empty")
			}
			c.Name = *req.Name
		}
		if req.Balance != nil {
			c.Balance = *req.Balance
		}
		if req.CreditLimit != nil {
			c.CreditLimit = req.CreditLimit
		}
		if req.StatementDay != nil {
			c.StatementDay = *req.StatementDay
		}
		if req.PaymentDueDay != nil {
			c.PaymentDueDay = *req.PaymentDueDay
		}
		if req.AutoPayEnabled != nil {
			c.AutoPayEnabled = *req.AutoPayEnabled
		}
		if req.AutoPayAmount != nil {
			c.AutoPayAmount = *req.AutoPayAmount
		}
		if req.MinimumPayment != nil {
			c.MinimumPayment = *req.MinimumPayment
		}
		if req.PaymentDebitCardID != nil {
			c.PaymentDebitCardID = *req.PaymentDebitCardID
		}
		if req.IsActive != nil {
			c.IsActive = *req.IsActive
		}
		return validateCreditFields(c)
	})
	if err != nil {
		return dto.CardView{}, err
	}

	logger.FromContext(ctx).Info("card updated", "card_id", cardID)
	return cardView(c), nil
}

// DeleteCard removes a card that nothing charges or pays from.
func (s *cardService) DeleteCard(ctx context.Context, uid, cardID string) error {
	exps, err := s.recurring.List(ctx, uid, true)
	if err != nil {
		return err
	}
	for _, e := range exps {
		if e.CardID == cardID {
			return errs.NewValidationError(fmt.Sprintf("card is used by recurring expense %q", e.Name))
		}
	}
	cards, err := s.cards.List(ctx, uid)
	if err != nil {
		return err
	}
	for _, c := range cards {
		if c.PaymentDebitCardID == cardID && c.AutoPayEnabled {
			return errs.NewValidationError(fmt.Sprintf("card pays %q by autopay", c.Name))
		}
	}

	if err := s.cards.Delete(ctx, uid, cardID); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("card deleted", "card_id", cardID)
	return nil
}
