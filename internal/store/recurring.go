package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
)

type recurringStore struct {
	client *firestore.Client
}

func NewRecurringStore(client *firestore.Client) *recurringStore {
	return &recurringStore{client: client}
}

func (s *recurringStore) collection(uid string) *firestore.CollectionRef {
	return recurringCollection(s.client, uid)
}

func (s *recurringStore) Create(ctx context.Context, uid string, exp *models.RecurringExpense) error {
	now := time.Now()
	if exp.CreatedAt.IsZero() {
		exp.CreatedAt = now
	}
	exp.UpdatedAt = now
	_, err := s.collection(uid).Doc(exp.ID).Create(ctx, exp)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("recurring expense already exists")
		}
		return errs.NewDatabaseError("create", "failed to create recurring expense", err)
	}
	return nil
}

func (s *recurringStore) Get(ctx context.Context, uid, id string) (*models.RecurringExpense, error) {
	doc, err := s.collection(uid).Doc(id).Get(ctx)
	if err != nil {
		return nil, readError(err, "recurring expense not found", "failed to get recurring expense")
	}
	var exp models.RecurringExpense
	if err := doc.DataTo(&exp); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse recurring expense data", err)
	}
	return &exp, nil
}

func (s *recurringStore) List(ctx context.Context, uid string, activeOnly bool) ([]*models.RecurringExpense, error) {
	q := s.collection(uid).Query
	if activeOnly {
		q = q.Where("isActive", "==", true)
	}
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list recurring expenses", err)
	}
	out := make([]*models.RecurringExpense, 0, len(docs))
	for _, d := range docs {
		var exp models.RecurringExpense
		if err := d.DataTo(&exp); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse recurring expense data", err)
		}
		out = append(out, &exp)
	}
	return out, nil
}

// Update applies fn to the stored record inside a transaction.
func (s *recurringStore) Update(ctx context.Context, uid, id string, fn func(*models.RecurringExpense) error) (*models.RecurringExpense, error) {
	ref := s.collection(uid).Doc(id)
	var out *models.RecurringExpense
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return readError(err, "recurring expense not found", "failed to get recurring expense")
		}
		var exp models.RecurringExpense
		if err := snap.DataTo(&exp); err != nil {
			return errs.NewDatabaseError("read", "failed to parse recurring expense data", err)
		}
		if err := fn(&exp); err != nil {
			return err
		}
		exp.UpdatedAt = time.Now()
		out = &exp
		return tx.Set(ref, &exp)
	})
	if err != nil {
		return nil, wrapTxError(err, "failed to update recurring expense")
	}
	return out, nil
}

func (s *recurringStore) Delete(ctx context.Context, uid, id string) error {
	_, err := s.collection(uid).Doc(id).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete recurring expense", err)
	}
	return nil
}
