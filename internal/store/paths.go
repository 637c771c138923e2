package store

import (
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
)

// Every user document lives under users/{uid}.

func userDoc(client *firestore.Client, uid string) *firestore.DocumentRef {
	return client.Collection("users").Doc(uid)
}

func cardsCollection(client *firestore.Client, uid string) *firestore.CollectionRef {
	return userDoc(client, uid).Collection("cards")
}

func recurringCollection(client *firestore.Client, uid string) *firestore.CollectionRef {
	return userDoc(client, uid).Collection("recurring_expenses")
}

func transactionsCollection(client *firestore.Client, uid string) *firestore.CollectionRef {
	return userDoc(client, uid).Collection("transactions")
}

func budgetsCollection(client *firestore.Client, uid string) *firestore.CollectionRef {
	return userDoc(client, uid).Collection("budgets")
}

func notificationsCollection(client *firestore.Client, uid string) *firestore.CollectionRef {
	return userDoc(client, uid).Collection("notifications")
}

func billingEventsCollection(client *firestore.Client, uid string) *firestore.CollectionRef {
	return userDoc(client, uid).Collection("billing_events")
}

func readError(err error, notFound, msg string) error {
	if status.Code(err) == codes.NotFound {
		return errs.NewNotFoundError(notFound)
	}
	return errs.NewDatabaseError("read", msg, err)
}

// wrapTxError keeps typed errors raised inside a transaction body and wraps
// anything else coming back from the commit.
func wrapTxError(err error, msg string) error {
	var (
		nf  *errs.NotFoundError
		ae  *errs.AlreadyExistsError
		ve  *errs.ValidationError
		ap  *errs.AlreadyProcessedError
		ins *errs.InsufficientFundsError
		db  *errs.DatabaseError
		enc *errs.EncryptionError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ae), errors.As(err, &ve),
		errors.As(err, &ap), errors.As(err, &ins), errors.As(err, &db),
		errors.As(err, &enc):
		return err
	}
	return errs.NewDatabaseError("transaction", msg, err)
}
