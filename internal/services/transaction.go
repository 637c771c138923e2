package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
	"github.com/GregMSThompson/cardwise-backend/pkg/money"
)

const (
	defaultTransactionLimit = 50
	maxTransactionLimit     = 500
)

type transactionTSStore interface {
	Get(ctx context.Context, uid, txID string) (*models.Transaction, error)
	List(ctx context.Context, uid string, q dto.TransactionQuery) ([]*models.Transaction, error)
}

type ledgerTSStore interface {
	Record(ctx context.Context, uid string, t *models.Transaction, apply dto.BudgetFunc) (*dto.LedgerResult, error)
}

type transactionService struct {
	txs      transactionTSStore
	ledger   ledgerTSStore
	budgets  budgetTracker
	loc      *time.Location
	clockNow func() time.Time
}

func NewTransactionService(txs transactionTSStore, ledger ledgerTSStore, budgets budgetTracker, loc *time.Location) *transactionService {
	return &transactionService{
		txs:      txs,
		ledger:   ledger,
		budgets:  budgets,
		loc:      loc,
		clockNow: time.Now,
	}
}

func (s *transactionService) ListTransactions(ctx context.Context, uid string, q dto.TransactionQuery) ([]*models.Transaction, error) {
	if q.Limit <= 0 {
		q.Limit = defaultTransactionLimit
	}
	if q.Limit > maxTransactionLimit {
		q.Limit = maxTransactionLimit
	}
	return s.txs.List(ctx, uid, q)
}

func (s *transactionService) GetTransaction(ctx context.Context, uid, txID string) (*models.Transaction, error) {
	return s.txs.Get(ctx, uid, txID)
}

// CreateTransaction records a manual entry and moves its card balance in the
// same store transaction.
func (s *transactionService) CreateTransaction(ctx context.Context, uid, email string, req dto.CreateTransactionRequest) (*models.Transaction, error) {
	if req.CardID == "" {
		return nil, errs.NewValidationError("cardId is required")
	}
	if !money.IsPositive(req.Amount) {
		return nil, errs.NewValidationError("amount must be greater than 0")
	}
	switch req.Type {
	case "":
		req.Type = models.TransactionExpense
	case models.TransactionExpense, models.TransactionIncome, models.TransactionRefund:
	default:
		return nil, errs.NewValidationError("type must be one of: expense, income, refund")
	}
	date := req.Date
	if date == "" {
		date = s.clockNow().In(s.loc).Format(dateLayout)
	} else if _, err := parseDate(date, s.loc); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		TransactionID: uuid.New().String(),
		CardID:        req.CardID,
		Amount:        req.Amount,
		Type:          req.Type,
		Category:      req.Category,
		Description:   req.Description,
		Date:          date,
	}
	res, err := s.ledger.Record(ctx, uid, t, s.budgets.Apply)
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("transaction recorded", "transaction_id", t.TransactionID, "type", t.Type)
	s.budgets.NotifyThresholds(ctx, uid, email, res.Budgets)
	return t, nil
}
