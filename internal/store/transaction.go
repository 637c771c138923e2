package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
)

// transactionStore is the read side of the ledger; writes go through ledgerStore.
type transactionStore struct {
	client *firestore.Client
}

func NewTransactionStore(client *firestore.Client) *transactionStore {
	return &transactionStore{client: client}
}

func (s *transactionStore) collection(uid string) *firestore.CollectionRef {
	return transactionsCollection(s.client, uid)
}

func (s *transactionStore) Get(ctx context.Context, uid, txID string) (*models.Transaction, error) {
	doc, err := s.collection(uid).Doc(txID).Get(ctx)
	if err != nil {
		return nil, readError(err, "transaction not found", "failed to get transaction")
	}
	var t models.Transaction
	if err := doc.DataTo(&t); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse transaction data", err)
	}
	return &t, nil
}

// Query streams matching transactions, newest first, into fn.
func (s *transactionStore) Query(ctx context.Context, uid string, q dto.TransactionQuery, fn func(*models.Transaction) error) error {
	query := s.collection(uid).Query
	if q.CardID != nil {
		query = query.Where("cardId", "==", *q.CardID)
	}
	if q.RecurringID != nil {
		query = query.Where("recurringId", "==", *q.RecurringID)
	}
	if q.DateFrom != nil {
		query = query.Where("date", ">=", *q.DateFrom)
	}
	if q.DateTo != nil {
		query = query.Where("date", "<=", *q.DateTo)
	}
	query = query.OrderBy("date", firestore.Desc)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return errs.NewDatabaseError("read", "failed to query transactions", err)
		}
		var t models.Transaction
		if err := doc.DataTo(&t); err != nil {
			return errs.NewDatabaseError("read", "failed to parse transaction data", err)
		}
		if err := fn(&t); err != nil {
			return err
		}
	}
}

func (s *transactionStore) List(ctx context.Context, uid string, q dto.TransactionQuery) ([]*models.Transaction, error) {
	out := []*models.Transaction{}
	err := s.Query(ctx, uid, q, func(t *models.Transaction) error {
		out = append(out, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
