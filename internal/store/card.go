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

type cardStore struct {
	client *firestore.Client
}

func NewCardStore(client *firestore.Client) *cardStore {
	return &cardStore{client: client}
}

func (s *cardStore) collection(uid string) *firestore.CollectionRef {
	return cardsCollection(s.client, uid)
}

func (s *cardStore) Create(ctx context.Context, uid string, card *models.Card) error {
	now := time.Now()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now
	_, err := s.collection(uid).Doc(card.CardID).Create(ctx, card)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("card already exists")
		}
		return errs.NewDatabaseError("create", "failed to create card", err)
	}
	return nil
}

func (s *cardStore) List(ctx context.Context, uid string) ([]*models.Card, error) {
	return s.list(ctx, s.collection(uid).OrderBy("createdAt", firestore.Asc))
}

func (s *cardStore) list(ctx context.Context, q firestore.Query) ([]*models.Card, error) {
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to list cards", err)
	}
	cards := make([]*models.Card, 0, len(docs))
	for _, d := range docs {
		var c models.Card
		if err := d.DataTo(&c); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse card data", err)
		}
		cards = append(cards, &c)
	}
	return cards, nil
}

func (s *cardStore) Get(ctx context.Context, uid, cardID string) (*models.Card, error) {
	doc, err := s.collection(uid).Doc(cardID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errs.NewNotFoundError("card not found")
		}
		return nil, errs.NewDatabaseError("read", "failed to get card", err)
	}
	var c models.Card
	if err := doc.DataTo(&c); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse card data", err)
	}
	return &c, nil
}

// Update applies fn to the stored card inside a transaction and writes the result.
// An error from fn aborts without writing.
func (s *cardStore) Update(ctx context.Context, uid, cardID string, fn func(*models.Card) error) (*models.Card, error) {
	ref := s.collection(uid).Doc(cardID)
	var out *models.Card
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return readError(err, "card not found", "failed to get card")
		}
		var c models.Card
		if err := snap.DataTo(&c); err != nil {
			return errs.NewDatabaseError("read", "failed to parse card data", err)
		}
		if err := fn(&c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now()
		out = &c
		return tx.Set(ref, &c)
	})
	if err != nil {
		return nil, wrapTxError(err, "failed to update card")
	}
	return out, nil
}

func (s *cardStore) Delete(ctx context.Context, uid, cardID string) error {
	_, err := s.collection(uid).Doc(cardID).Delete(ctx)
	if err != nil {
		return errs.NewDatabaseError("delete", "failed to delete card", err)
	}
	return nil
}
