package store

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
)

type userStore struct {
	Client     *firestore.Client
	Collection *firestore.CollectionRef
}

func NewUserStore(client *firestore.Client) *userStore {
	return &userStore{
		Client:     client,
		Collection: client.Collection("users"),
	}
}

func (us *userStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := us.Collection.Doc(user.UID).Create(ctx, user)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errs.NewAlreadyExistsError("user already exists")
		}
		return errs.NewDatabaseError("create", "failed to create user", err)
	}
	return nil
}

func (us *userStore) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := us.Collection.Doc(user.UID).Set(ctx, user, firestore.MergeAll)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to update user", err)
	}
	return nil
}

func (us *userStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var user models.User

	doc, err := us.Collection.Doc(uid).Get(ctx)
	if err != nil {
		return nil, readError(err, "user not found", "failed to get user")
	}
	if err := doc.DataTo(&user); err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse user data", err)
	}

	return &user, nil
}

func (us *userStore) UpdatePreferences(ctx context.Context, uid string, currency, theme *string) error {
	updates := []firestore.Update{{Path: "updatedAt", Value: time.Now()}}
	if currency != nil {
		updates = append(updates, firestore.Update{Path: "currency", Value: *currency})
	}
	if theme != nil {
		updates = append(updates, firestore.Update{Path: "theme", Value: *theme})
	}
	_, err := us.Collection.Doc(uid).Update(ctx, updates)
	if err != nil {
		return readError(err, "user not found", "failed to update preferences")
	}
	return nil
}

// TouchActivity stamps lastActiveAt. Callers gate it on the quota breaker.
func (us *userStore) TouchActivity(ctx context.Context, uid string, at time.Time) error {
	_, err := us.Collection.Doc(uid).Update(ctx, []firestore.Update{{Path: "lastActiveAt", Value: at}})
	if err != nil {
		return readError(err, "user not found", "failed to update activity")
	}
	return nil
}

// ListUIDs streams every user id into fn.
func (us *userStore) ListUIDs(ctx context.Context, fn func(uid string) error) error {
	iter := us.Collection.DocumentRefs(ctx)
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return errs.NewDatabaseError("read", "failed to list users", err)
		}
		if err := fn(ref.ID); err != nil {
			return err
		}
	}
}

// ApplyBillingEvent records eventID and applies update to the user's subscription
// in one transaction. A replayed event returns AlreadyProcessedError without writing.
func (us *userStore) ApplyBillingEvent(ctx context.Context, uid, eventID, eventType string, update func(*models.User) error) (*models.User, error) {
	userRef := us.Collection.Doc(uid)
	eventRef := billingEventsCollection(us.Client, uid).Doc(eventID)
	var out *models.User
	err := us.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(eventRef); err == nil {
			return errs.NewAlreadyProcessedError("billing event already applied")
		} else if status.Code(err) != codes.NotFound {
			return errs.NewDatabaseError("read", "failed to read billing event", err)
		}
		snap, err := tx.Get(userRef)
		if err != nil {
			return readError(err, "user not found", "failed to get user")
		}
		var user models.User
		if err := snap.DataTo(&user); err != nil {
			return errs.NewDatabaseError("read", "failed to parse user data", err)
		}
		if err := update(&user); err != nil {
			return err
		}

		now := time.Now()
		user.UpdatedAt = now
		out = &user
		if err := tx.Create(eventRef, map[string]interface{}{
			"type":      eventType,
			"appliedAt": now,
		}); err != nil {
			return err
		}
		return tx.Update(userRef, []firestore.Update{
			{Path: "subscription", Value: user.Subscription},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return nil, wrapTxError(err, "failed to apply billing event")
	}
	return out, nil
}
