package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

type recurringOSStore interface {
	List(ctx context.Context, uid string, activeOnly bool) ([]*models.RecurringExpense, error)
	Update(ctx context.Context, uid, id string, fn func(*models.RecurringExpense) error) (*models.RecurringExpense, error)
}

type cardOSStore interface {
	List(ctx context.Context, uid string) ([]*models.Card, error)
	Update(ctx context.Context, uid, cardID string, fn func(*models.Card) error) (*models.Card, error)
}

type ledgerOSStore interface {
	ChargeRecurring(ctx context.Context, uid, expenseID string, charge dto.ChargeFunc, apply dto.BudgetFunc) (*dto.LedgerResult, error)
	PayCard(ctx context.Context, uid, cardID string, pay dto.PaymentFunc) (*dto.LedgerResult, error)
}

type budgetTracker interface {
	Apply(b *models.Budget, t *models.Transaction)
	NotifyThresholds(ctx context.Context, uid, email string, changes []dto.BudgetChange)
}

type obligationService struct {
	recurring recurringOSStore
	cards     cardOSStore
	ledger    ledgerOSStore
	budgets   budgetTracker
	notifier  notifier
	loc       *time.Location
	leadDays  int
	clockNow  func() time.Time
}

func NewObligationService(recurring recurringOSStore, cards cardOSStore, ledger ledgerOSStore, budgets budgetTracker, notifier notifier, loc *time.Location, leadDays int) *obligationService {
	return &obligationService{
		recurring: recurring,
		cards:     cards,
		ledger:    ledger,
		budgets:   budgets,
		notifier:  notifier,
		loc:       loc,
		leadDays:  leadDays,
		clockNow:  time.Now,
	}
}

// ProcessDue charges every recurring expense and runs every credit card cycle due
// today for one user. Each obligation is isolated: a failure is logged, turned into
// a notification where useful, and processing moves on. The returned error is
// only set when the obligations could not be listed at all.
func (s *obligationService) ProcessDue(ctx context.Context, uid, email string) (dto.ProcessResult, error) {
	log := logger.FromContext(ctx)
	br := breaker.FromContext(ctx)

	now := s.clockNow().In(s.loc)
	today := dateOnly(now)
	result := dto.ProcessResult{Date: today.Format(dateLayout), Outcomes: []dto.ObligationOutcome{}}

	exps, err := s.recurring.List(ctx, uid, true)
	if err != nil {
		br.Record(err)
		return result, err
	}
	cards, err := s.cards.List(ctx, uid)
	if err != nil {
		br.Record(err)
		return result, err
	}

	for _, exp := range exps {
		due, err := IsDue(exp, today)
		if err != nil {
			log.Warn("recurring expense has unusable dates", "recurring_id", exp.ID, "error", err)
			result.Record(dto.ObligationOutcome{Kind: dto.ObligationRecurring, ID: exp.ID, Name: exp.Name, Amount: exp.Amount, Status: dto.OutcomeSkipped, Error: err.Error()})
			continue
		}
		if !due {
			continue
		}
		result.Due++
		result.Record(s.chargeRecurring(ctx, uid, email, exp, now, today))
	}

	for _, card := range cards {
		if StatementDue(card, today) {
			result.Record(s.closeStatement(ctx, uid, card, today))
		}
		if PaymentDue(card, today) {
			result.Due++
			result.Record(s.payCard(ctx, uid, email, card, now, today))
		}
	}

	if br.Allow() {
		s.warnUpcoming(ctx, uid, email, today, &result)
	} else {
		log.Info("skipping upcoming funds warnings", "breaker", br.State().String())
	}

	log.Info("obligations processed",
		"date", result.Date,
		"due", result.Due,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"insufficient_funds", result.InsufficientFunds,
		"warnings", result.Warnings,
	)
	return result, nil
}

func (s *obligationService) chargeRecurring(ctx context.Context, uid, email string, exp *models.RecurringExpense, now, today time.Time) dto.ObligationOutcome {
	log := logger.FromContext(ctx).With("recurring_id", exp.ID)
	out := dto.ObligationOutcome{Kind: dto.ObligationRecurring, ID: exp.ID, Name: exp.Name, Amount: exp.Amount}

	res, err := s.ledger.ChargeRecurring(ctx, uid, exp.ID, func(e *models.RecurringExpense, card *models.Card) (*models.Transaction, error) {
		// the stored record is the source of truth for the period marker
		if due, err := IsDue(e, today); err != nil || !due {
			return nil, errs.NewAlreadyProcessedError("recurring expense already processed this period")
		}
		if !card.IsActive {
			return nil, errs.NewNotFoundError("card is inactive")
		}
		if avail := AvailableFunds(card); money.Less(avail, e.Amount) {
			return nil, errs.NewInsufficientFundsError(e.Amount, avail, money.Sub(e.Amount, avail))
		}
		card.Balance = money.Sub(card.Balance, e.Amount)
		e.LastProcessed = now.UTC().Format(time.RFC3339)
		return &models.Transaction{
			TransactionID: uuid.New().String(),
			CardID:        card.CardID,
			Amount:        e.Amount,
			Type:          models.TransactionExpense,
			Category:      e.Category,
			Description:   e.Name,
			Date:          today.Format(dateLayout),
			RecurringID:   e.ID,
		}, nil
	}, s.budgets.Apply)
	if err != nil {
		return s.failure(ctx, uid, email, out, exp.CardID, err)
	}

	breaker.FromContext(ctx).Record(nil)
	log.Info("recurring expense charged", "amount", exp.Amount, "card_id", exp.CardID)
	s.notify(ctx, uid, email, &models.Notification{
		Type:      models.NotificationPaymentProcessed,
		Title:     fmt.Sprintf("%s paid", exp.Name),
		Message:   fmt.Sprintf("%s of %.2f was charged.", exp.Name, exp.Amount),
		Amount:    exp.Amount,
		RelatedID: exp.ID,
	})
	s.budgets.NotifyThresholds(ctx, uid, email, res.Budgets)
	out.Status = dto.OutcomeProcessed
	return out
}

func (s *obligationService) closeStatement(ctx context.Context, uid string, card *models.Card, today time.Time) dto.ObligationOutcome {
	log := logger.FromContext(ctx).With("card_id", card.CardID)
	out := dto.ObligationOutcome{Kind: dto.ObligationStatement, ID: card.CardID, Name: card.Name}

	updated, err := s.cards.Update(ctx, uid, card.CardID, func(c *models.Card) error {
		if !StatementDue(c, today) {
			return errs.NewAlreadyProcessedError("statement already closed")
		}
		c.StatementBalance = c.Outstanding()
		c.LastStatementDate = today.Format(dateLayout)
		return nil
	})
	if err != nil {
		var ap *errs.AlreadyProcessedError
		if errors.As(err, &ap) {
			out.Status = dto.OutcomeAlreadyProcessed
			return out
		}
		breaker.FromContext(ctx).Record(err)
		log.Error("failed to close statement", "error", err)
		out.Status = dto.OutcomeFailed
		out.Error = err.Error()
		return out
	}

	// keep the in-memory card current for the payment step that may follow
	card.StatementBalance = updated.StatementBalance
	card.LastStatementDate = updated.LastStatementDate
	log.Info("statement closed", "statement_balance", updated.StatementBalance)
	out.Amount = updated.StatementBalance
	out.Status = dto.OutcomeProcessed
	return out
}

func (s *obligationService) payCard(ctx context.Context, uid, email string, card *models.Card, now, today time.Time) dto.ObligationOutcome {
	log := logger.FromContext(ctx).With("card_id", card.CardID)
	out := dto.ObligationOutcome{Kind: dto.ObligationCardPay, ID: card.CardID, Name: card.Name}

	var amount float64
	_, err := s.ledger.PayCard(ctx, uid, card.CardID, func(credit, funding *models.Card) ([]*models.Transaction, error) {
		if !PaymentDue(credit, today) {
			return nil, errs.NewAlreadyProcessedError("card payment already processed this month")
		}
		// records saved before autopay modes were validated can still hold one
		// that never yields a payment; leave the cycle open so the user is told
		if err := checkAutoPayMode(credit); err != nil {
			return nil, err
		}
		stamp := now.UTC().Format(time.RFC3339)
		amount = AutoPayAmount(credit)
		if amount == 0 {
			credit.LastPaymentProcessed = stamp
			return nil, nil
		}
		if !funding.IsActive {
			return nil, errs.NewNotFoundError("payment card is inactive")
		}
		if avail := AvailableFunds(funding); money.Less(avail, amount) {
			return nil, errs.NewInsufficientFundsError(amount, avail, money.Sub(amount, avail))
		}

		funding.Balance = money.Sub(funding.Balance, amount)
		credit.Balance = money.Add(credit.Balance, amount)
		credit.LastPaymentProcessed = stamp

		pair := uuid.New().String()
		date := today.Format(dateLayout)
		return []*models.Transaction{
			{
				TransactionID:  uuid.New().String(),
				CardID:         funding.CardID,
				Amount:         amount,
				Type:           models.TransactionExpense,
				Category:       "card_payment",
				Description:    fmt.Sprintf("Payment to %s", credit.Name),
				Date:           date,
				TransferPairID: pair,
			},
			{
				TransactionID:  uuid.New().String(),
				CardID:         credit.CardID,
				Amount:         amount,
				Type:           models.TransactionIncome,
				Category:       "card_payment",
				Description:    fmt.Sprintf("Payment from %s", funding.Name),
				Date:           date,
				TransferPairID: pair,
			},
		}, nil
	})
	out.Amount = amount
	if err != nil {
		return s.failure(ctx, uid, email, out, card.CardID, err)
	}

	breaker.FromContext(ctx).Record(nil)
	if amount == 0 {
		log.Info("nothing owed, card cycle marked paid")
		out.Status = dto.OutcomeNothingDue
		return out
	}

	log.Info("card payment processed", "amount", amount)
	s.notify(ctx, uid, email, &models.Notification{
		Type:      models.NotificationPaymentProcessed,
		Title:     fmt.Sprintf("%s payment sent", card.Name),
		Message:   fmt.Sprintf("Autopay of %.2f was paid to %s.", amount, card.Name),
		Amount:    amount,
		RelatedID: card.CardID,
	})
	out.Status = dto.OutcomeProcessed
	return out
}

// failure classifies an obligation error into its outcome and notification.
func (s *obligationService) failure(ctx context.Context, uid, email string, out dto.ObligationOutcome, cardID string, err error) dto.ObligationOutcome {
	log := logger.FromContext(ctx).With("obligation_id", out.ID, "kind", out.Kind)
	out.Error = err.Error()

	var (
		ap  *errs.AlreadyProcessedError
		nf  *errs.NotFoundError
		ve  *errs.ValidationError
		ins *errs.InsufficientFundsError
	)
	switch {
	case errors.As(err, &ap):
		log.Info("obligation already processed")
		out.Status = dto.OutcomeAlreadyProcessed
		out.Error = ""
	case errors.As(err, &nf):
		log.Warn("obligation references a missing card", "card_id", cardID, "error", err)
		out.Status = dto.OutcomeMissingReference
	case errors.As(err, &ve):
		log.Warn("obligation is misconfigured", "error", err)
		out.Status = dto.OutcomeFailed
		s.notify(ctx, uid, email, &models.Notification{
			Type:      models.NotificationPaymentFailed,
			Title:     fmt.Sprintf("%s payment failed", out.Name),
			Message:   fmt.Sprintf("We could not pay %s automatically: %s. Update its settings to resume autopay.", out.Name, ve.Message),
			Amount:    out.Amount,
			RelatedID: out.ID,
		})
	case errors.As(err, &ins):
		log.Warn("insufficient funds for obligation", "required", ins.Required, "available", ins.Available)
		out.Status = dto.OutcomeInsufficientFunds
		s.notify(ctx, uid, email, &models.Notification{
			Type:         models.NotificationInsufficientFunds,
			Title:        fmt.Sprintf("Insufficient funds for %s", out.Name),
			Message:      fmt.Sprintf("%s needs %.2f but only %.2f is available. Short by %.2f.", out.Name, ins.Required, ins.Available, ins.Shortfall),
			Amount:       ins.Required,
			Shortfall:    ins.Shortfall,
			DaysUntilDue: 0,
			RelatedID:    out.ID,
		})
	default:
		breaker.FromContext(ctx).Record(err)
		log.Error("obligation failed", "error", err)
		out.Status = dto.OutcomeFailed
		s.notify(ctx, uid, email, &models.Notification{
			Type:      models.NotificationPaymentFailed,
			Title:     fmt.Sprintf("%s payment failed", out.Name),
			Message:   fmt.Sprintf("We could not process %s. It will be retried on the next run.", out.Name),
			Amount:    out.Amount,
			RelatedID: out.ID,
		})
	}
	return out
}

func (s *obligationService) notify(ctx context.Context, uid, email string, n *models.Notification) {
	if err := s.notifier.Notify(ctx, uid, email, n); err != nil {
		breaker.FromContext(ctx).Record(err)
		logger.FromContext(ctx).Error("failed to create notification", "type", n.Type, "error", err)
	}
}

// warnUpcoming sends one insufficient_funds warning per upcoming due date whose
// card cannot cover it. Balances are re-read so today's charges count.
func (s *obligationService) warnUpcoming(ctx context.Context, uid, email string, today time.Time, result *dto.ProcessResult) {
	log := logger.FromContext(ctx)
	br := breaker.FromContext(ctx)
	if s.leadDays <= 0 {
		return
	}

	exps, err := s.recurring.List(ctx, uid, true)
	br.Record(err)
	if err != nil {
		log.Warn("failed to list recurring expenses for warnings", "error", err)
		return
	}
	cards, err := s.cards.List(ctx, uid)
	br.Record(err)
	if err != nil {
		log.Warn("failed to list cards for warnings", "error", err)
		return
	}
	byID := make(map[string]*models.Card, len(cards))
	for _, c := range cards {
		byID[c.CardID] = c
	}

	from := today.AddDate(0, 0, 1)
	for _, exp := range exps {
		due, ok := NextDueDate(exp, from, s.leadDays-1)
		card := byID[exp.CardID]
		if !ok || card == nil {
			continue
		}
		dueKey := due.Format(dateLayout)
		avail := AvailableFunds(card)
		if exp.LastWarned == dueKey || !money.Less(avail, exp.Amount) {
			continue
		}
		_, err := s.recurring.Update(ctx, uid, exp.ID, func(e *models.RecurringExpense) error {
			if e.LastWarned == dueKey {
				return errs.NewAlreadyProcessedError("already warned")
			}
			e.LastWarned = dueKey
			return nil
		})
		if err != nil {
			br.Record(err)
			continue
		}
		s.warn(ctx, uid, email, exp.ID, exp.Name, exp.Amount, avail, daysBetween(today, due), result)
	}

	for _, card := range cards {
		due, ok := NextPaymentDate(card, from, s.leadDays-1)
		if !ok {
			continue
		}
		funding := byID[card.PaymentDebitCardID]
		amount := AutoPayAmount(card)
		dueKey := due.Format(dateLayout)
		if funding == nil || amount == 0 || card.LastFundsWarning == dueKey {
			continue
		}
		avail := AvailableFunds(funding)
		if !money.Less(avail, amount) {
			continue
		}
		_, err := s.cards.Update(ctx, uid, card.CardID, func(c *models.Card) error {
			if c.LastFundsWarning == dueKey {
				return errs.NewAlreadyProcessedError("already warned")
			}
			c.LastFundsWarning = dueKey
			return nil
		})
		if err != nil {
			br.Record(err)
			continue
		}
		s.warn(ctx, uid, email, card.CardID, card.Name+" payment", amount, avail, daysBetween(today, due), result)
	}
}

func (s *obligationService) warn(ctx context.Context, uid, email, id, name string, amount, avail float64, days int, result *dto.ProcessResult) {
	shortfall := money.Sub(amount, avail)
	s.notify(ctx, uid, email, &models.Notification{
		Type:         models.NotificationInsufficientFunds,
		Title:        fmt.Sprintf("%s due in %d days", name, days),
		Message:      fmt.Sprintf("%s of %.2f is due in %d days but only %.2f is available. Short by %.2f.", name, amount, days, avail, shortfall),
		Amount:       amount,
		Shortfall:    shortfall,
		DaysUntilDue: days,
		RelatedID:    id,
	})
	result.Record(dto.ObligationOutcome{Kind: dto.ObligationFundsAlert, ID: id, Name: name, Amount: amount, Status: dto.OutcomeWarned})
}

// UpcomingObligations lists recurring charges and autopay payments due within
// days, soonest first.
func (s *obligationService) UpcomingObligations(ctx context.Context, uid string, days int) ([]dto.UpcomingObligation, error) {
	if days <= 0 {
		days = s.leadDays
	}
	if days > maxHorizonDays {
		return nil, errs.NewValidationError(fmt.Sprintf("days must be at most %d", maxHorizonDays))
	}
	today := dateOnly(s.clockNow().In(s.loc))

	exps, err := s.recurring.List(ctx, uid, true)
	if err != nil {
		return nil, err
	}
	cards, err := s.cards.List(ctx, uid)
	if err != nil {
		return nil, err
	}

	out := []dto.UpcomingObligation{}
	for _, exp := range exps {
		due, ok := NextDueDate(exp, today, days)
		if !ok {
			continue
		}
		out = append(out, dto.UpcomingObligation{
			Kind:         dto.ObligationRecurring,
			ID:           exp.ID,
			Name:         exp.Name,
			Amount:       exp.Amount,
			CardID:       exp.CardID,
			DueDate:      due.Format(dateLayout),
			DaysUntilDue: daysBetween(today, due),
		})
	}
	for _, card := range cards {
		due, ok := NextPaymentDate(card, today, days)
		if !ok {
			continue
		}
		out = append(out, dto.UpcomingObligation{
			Kind:         dto.ObligationCardPay,
			ID:           card.CardID,
			Name:         card.Name,
			Amount:       AutoPayAmount(card),
			CardID:       card.PaymentDebitCardID,
			DueDate:      due.Format(dateLayout),
			DaysUntilDue: daysBetween(today, due),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
