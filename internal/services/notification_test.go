package services

import (
	"context"
	"errors"
	"testing"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/helpers"
)

type memNotificationStore struct {
	created []*models.Notification
	query   dto.NotificationQuery
	err     error
}

func (m *memNotificationStore) Create(_ context.Context, _ string, n *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, n)
	return nil
}

func (m *memNotificationStore) List(_ context.Context, _ string, q dto.NotificationQuery) ([]*models.Notification, error) {
	m.query = q
	return m.created, nil
}

func (m *memNotificationStore) MarkRead(context.Context, string, string) error { return nil }
func (m *memNotificationStore) MarkAllRead(context.Context, string) (int, error) {
	return len(m.created), nil
}
func (m *memNotificationStore) Delete(context.Context, string, string) error { return nil }

type fakeMailer struct {
	to, subject string
	calls       int
	err         error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	f.calls++
	f.to, f.subject = to, subject
	return f.err
}

func TestNotifyStoresAndEmailsFailures(t *testing.T) {
	store := &memNotificationStore{}
	mail := &fakeMailer{}
	svc := NewNotificationService(store, mail)
	svc.clockNow = fixedClock(at("2025-03-13"))
	ctx := helpers.TestCtx()

	n := &models.Notification{Type: models.NotificationPaymentFailed, Title: "Rent payment failed", Message: "retry"}
	if err := svc.Notify(ctx, "uid", "jane@example.com", n); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if n.NotificationID == "" || !n.CreatedAt.Equal(at("2025-03-13")) {
		t.Fatalf("id and timestamp not set: %+v", n)
	}
	if len(store.created) != 1 {
		t.Fatalf("stored %d notifications, want 1", len(store.created))
	}
	if mail.calls != 1 || mail.to != "jane@example.com" || mail.subject != "Rent payment failed" {
		t.Fatalf("unexpected mail: %+v", mail)
	}

	if err := svc.Notify(ctx, "uid", "jane@example.com", &models.Notification{Type: models.NotificationPaymentProcessed}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if mail.calls != 1 {
		t.Fatalf("payment_processed must not be emailed")
	}
}

func TestNotifyMailErrorIsNotFatal(t *testing.T) {
	store := &memNotificationStore{}
	svc := NewNotificationService(store, &fakeMailer{err: errors.New("smtp down")})

	err := svc.Notify(helpers.TestCtx(), "uid", "jane@example.com", &models.Notification{Type: models.NotificationInsufficientFunds})
	if err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("notification should still be stored")
	}
}

func TestNotifyWithoutMailer(t *testing.T) {
	store := &memNotificationStore{}
	svc := NewNotificationService(store, nil)

	if err := svc.Notify(helpers.TestCtx(), "uid", "jane@example.com", &models.Notification{Type: models.NotificationTrialEnding}); err != nil {
		t.Fatalf("Notify returned error: %v", err)
	}

	store.err = errors.New("write failed")
	if err := svc.Notify(helpers.TestCtx(), "uid", "", &models.Notification{Type: models.NotificationBudgetAlert}); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestListNotificationsClampsLimit(t *testing.T) {
	store := &memNotificationStore{}
	svc := NewNotificationService(store, nil)
	ctx := helpers.TestCtx()

	if _, err := svc.ListNotifications(ctx, "uid", dto.NotificationQuery{}); err != nil {
		t.Fatalf("ListNotifications returned error: %v", err)
	}
	if store.query.Limit != defaultNotificationLimit {
		t.Fatalf("limit = %d, want %d", store.query.Limit, defaultNotificationLimit)
	}
	if _, err := svc.ListNotifications(ctx, "uid", dto.NotificationQuery{Limit: 1000, UnreadOnly: true}); err != nil {
		t.Fatalf("ListNotifications returned error: %v", err)
	}
	if store.query.Limit != maxNotificationLimit || !store.query.UnreadOnly {
		t.Fatalf("unexpected query: %+v", store.query)
	}
}
