package services

import (
	"context"
	"errors"
	"testing"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/pkg/helpers"
)

type fakeBillingClient struct {
	event        dto.BillingEvent
	parseErr     error
	checkoutCust string
	canceled     string
}

func (f *fakeBillingClient) CreateCheckoutSession(_ context.Context, uid, email, customerID string) (dto.CheckoutSession, error) {
	f.checkoutCust = customerID
	return dto.CheckoutSession{SessionID: "cs_1", URL: "https://checkout.example/cs_1"}, nil
}

func (f *fakeBillingClient) CancelAtPeriodEnd(_ context.Context, subscriptionID string) (*dto.SubscriptionEvent, error) {
	f.canceled = subscriptionID
	return &dto.SubscriptionEvent{ID: subscriptionID, CancelAtPeriodEnd: true, CurrentPeriodEnd: day("2025-04-01")}, nil
}

func (f *fakeBillingClient) ParseWebhook([]byte, string) (dto.BillingEvent, error) {
	return f.event, f.parseErr
}

type memBillingUsers struct {
	users  map[string]*models.User
	events map[string]bool
}

func (m *memBillingUsers) GetUser(_ context.Context, uid string) (*models.User, error) {
	u, ok := m.users[uid]
	if !ok {
		return nil, errs.NewNotFoundError("user not found")
	}
	return u, nil
}

func (m *memBillingUsers) UpdateUser(_ context.Context, user *models.User) error {
	m.users[user.UID] = user
	return nil
}

func (m *memBillingUsers) ApplyBillingEvent(_ context.Context, uid, eventID, _ string, update func(*models.User) error) (*models.User, error) {
	u, ok := m.users[uid]
	if !ok {
		return nil, errs.NewNotFoundError("user not found")
	}
	if m.events[eventID] {
		return nil, errs.NewAlreadyProcessedError("billing event already processed")
	}
	if err := update(u); err != nil {
		return nil, err
	}
	m.events[eventID] = true
	return u, nil
}

// prefixSealer marks values as sealed without real crypto.
type prefixSealer struct {
	seals int
}

func (p *prefixSealer) Seal(_ context.Context, uid, plaintext string) (string, error) {
	p.seals++
	return "sealed:" + uid + ":" + plaintext, nil
}

func (*prefixSealer) Open(_ context.Context, uid, ciphertext string) (string, error) {
	prefix := "sealed:" + uid + ":"
	if len(ciphertext) < len(prefix) || ciphertext[:len(prefix)] != prefix {
		return "", errs.NewEncryptionError("wrong key", errors.New("aad mismatch"))
	}
	return ciphertext[len(prefix):], nil
}

func newTestBillingService(client *fakeBillingClient, users *memBillingUsers, n *fakeNotifier) *billingService {
	svc := NewBillingService(client, users, &prefixSealer{}, n)
	svc.clockNow = fixedClock(at("2025-03-13"))
	return svc
}

func subscriptionEvent(id, typ, status string) dto.BillingEvent {
	return dto.BillingEvent{
		ID:   id,
		Type: typ,
		Subscription: &dto.SubscriptionEvent{
			ID:               "sub_1",
			CustomerID:       "cus_1",
			UID:              "uid",
			Status:           status,
			PriceID:          "price_1",
			CurrentPeriodEnd: day("2025-04-13"),
		},
	}
}

func TestHandleWebhookAppliesSubscriptionOnce(t *testing.T) {
	client := &fakeBillingClient{event: subscriptionEvent("evt_1", dto.EventSubscriptionCreated, "active")}
	users := &memBillingUsers{users: map[string]*models.User{"uid": {UID: "uid", Email: "jane@example.com"}}, events: map[string]bool{}}
	n := &fakeNotifier{}
	svc := newTestBillingService(client, users, n)
	ctx := helpers.TestCtx()

	if err := svc.HandleWebhook(ctx, []byte("{}"), "sig"); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	sub := users.users["uid"].Subscription
	if sub == nil || sub.Status != "active" || sub.SubscriptionID != "sub_1" || sub.PriceID != "price_1" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if sub.CustomerIDEnc != "sealed:uid:cus_1" {
		t.Fatalf("customer id must be stored sealed, got %q", sub.CustomerIDEnc)
	}
	if got := len(n.ofType(models.NotificationSubscriptionCreated)); got != 1 {
		t.Fatalf("subscription_created notifications = %d, want 1", got)
	}

	if err := svc.HandleWebhook(ctx, []byte("{}"), "sig"); err != nil {
		t.Fatalf("replay returned error: %v", err)
	}
	if len(n.sent) != 1 {
		t.Fatalf("replayed event must not notify again")
	}
	if seals := svc.sealer.(*prefixSealer).seals; seals != 1 {
		t.Fatalf("seals = %d, want 1: a replay must not reach KMS", seals)
	}
}

func TestHandleWebhookSealsCustomerOncePerSubscription(t *testing.T) {
	client := &fakeBillingClient{}
	users := &memBillingUsers{users: map[string]*models.User{"uid": {UID: "uid"}}, events: map[string]bool{}}
	svc := newTestBillingService(client, users, &fakeNotifier{})
	ctx := helpers.TestCtx()

	for _, ev := range []dto.BillingEvent{
		subscriptionEvent("evt_1", dto.EventSubscriptionCreated, "trialing"),
		subscriptionEvent("evt_2", dto.EventSubscriptionUpdated, "active"),
	} {
		client.event = ev
		if err := svc.HandleWebhook(ctx, nil, "sig"); err != nil {
			t.Fatalf("event %s returned error: %v", ev.ID, err)
		}
	}
	if seals := svc.sealer.(*prefixSealer).seals; seals != 1 {
		t.Fatalf("seals = %d, want 1", seals)
	}
	if users.users["uid"].Subscription.Status != "active" {
		t.Fatalf("status = %q, want active", users.users["uid"].Subscription.Status)
	}
}

func TestHandleWebhookSkipsOutOfOrderEvents(t *testing.T) {
	client := &fakeBillingClient{}
	users := &memBillingUsers{users: map[string]*models.User{"uid": {UID: "uid"}}, events: map[string]bool{}}
	n := &fakeNotifier{}
	svc := newTestBillingService(client, users, n)
	ctx := helpers.TestCtx()

	apply := func(ev dto.BillingEvent, created string) {
		t.Helper()
		ev.Created = at(created)
		client.event = ev
		if err := svc.HandleWebhook(ctx, nil, "sig"); err != nil {
			t.Fatalf("event %s returned error: %v", ev.ID, err)
		}
	}

	apply(subscriptionEvent("evt_1", dto.EventSubscriptionUpdated, "past_due"), "2025-03-12")
	apply(subscriptionEvent("evt_2", dto.EventSubscriptionUpdated, "active"), "2025-03-10")
	if got := users.users["uid"].Subscription.Status; got != "past_due" {
		t.Fatalf("status = %q, an older event must not overwrite a newer one", got)
	}

	apply(subscriptionEvent("evt_3", dto.EventSubscriptionDeleted, "canceled"), "2025-03-13")
	apply(subscriptionEvent("evt_4", dto.EventSubscriptionUpdated, "active"), "2025-03-13")
	if got := users.users["uid"].Subscription.Status; got != "canceled" {
		t.Fatalf("status = %q, a canceled subscription must stay canceled", got)
	}
	if got := len(n.ofType(models.NotificationSubscriptionUpdated)); got != 1 {
		t.Fatalf("subscription_updated notifications = %d, want 1", got)
	}
}

func TestHandleWebhookDeletedMarksCanceled(t *testing.T) {
	client := &fakeBillingClient{event: subscriptionEvent("evt_2", dto.EventSubscriptionDeleted, "canceled")}
	users := &memBillingUsers{users: map[string]*models.User{"uid": {UID: "uid", Subscription: &models.Subscription{Status: "active"}}}, events: map[string]bool{}}
	n := &fakeNotifier{}
	svc := newTestBillingService(client, users, n)

	if err := svc.HandleWebhook(helpers.TestCtx(), nil, "sig"); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	if users.users["uid"].Subscription.Status != "canceled" {
		t.Fatalf("status = %q, want canceled", users.users["uid"].Subscription.Status)
	}
	if got := len(n.ofType(models.NotificationSubscriptionDeleted)); got != 1 {
		t.Fatalf("subscription_deleted notifications = %d, want 1", got)
	}
}

func TestHandleWebhookAcknowledgesUnroutableEvents(t *testing.T) {
	users := &memBillingUsers{users: map[string]*models.User{}, events: map[string]bool{}}
	ctx := helpers.TestCtx()

	unknownUser := subscriptionEvent("evt_3", dto.EventSubscriptionUpdated, "active")
	noUID := subscriptionEvent("evt_4", dto.EventSubscriptionUpdated, "active")
	noUID.Subscription.UID = ""
	events := []dto.BillingEvent{
		{ID: "evt_5", Type: "invoice.paid"},
		unknownUser,
		noUID,
	}
	for _, ev := range events {
		svc := newTestBillingService(&fakeBillingClient{event: ev}, users, &fakeNotifier{})
		if err := svc.HandleWebhook(ctx, nil, "sig"); err != nil {
			t.Fatalf("event %s returned error: %v", ev.ID, err)
		}
	}
}

func TestHandleWebhookBadSignature(t *testing.T) {
	client := &fakeBillingClient{parseErr: errs.NewValidationError("invalid webhook signature")}
	svc := newTestBillingService(client, &memBillingUsers{}, &fakeNotifier{})

	err := svc.HandleWebhook(helpers.TestCtx(), nil, "bad")
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCheckout(t *testing.T) {
	client := &fakeBillingClient{}
	users := &memBillingUsers{users: map[string]*models.User{
		"returning": {UID: "returning", Subscription: &models.Subscription{Status: "canceled", CustomerIDEnc: "sealed:returning:cus_9"}},
		"active":    {UID: "active", Subscription: &models.Subscription{Status: "trialing"}},
	}}
	svc := newTestBillingService(client, users, &fakeNotifier{})
	ctx := helpers.TestCtx()

	sess, err := svc.Checkout(ctx, "returning", "r@example.com")
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if sess.URL == "" || client.checkoutCust != "cus_9" {
		t.Fatalf("expected checkout for the existing customer, got %+v / %q", sess, client.checkoutCust)
	}

	_, err = svc.Checkout(ctx, "active", "a@example.com")
	var ae *errs.AlreadyExistsError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AlreadyExistsError, got %v", err)
	}
}

func TestCancel(t *testing.T) {
	client := &fakeBillingClient{}
	users := &memBillingUsers{users: map[string]*models.User{
		"uid":  {UID: "uid", Subscription: &models.Subscription{SubscriptionID: "sub_1", Status: "active"}},
		"free": {UID: "free"},
	}}
	svc := newTestBillingService(client, users, &fakeNotifier{})
	ctx := helpers.TestCtx()

	sub, err := svc.Cancel(ctx, "uid")
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if client.canceled != "sub_1" || !sub.CancelAtPeriodEnd || !sub.CurrentPeriodEnd.Equal(day("2025-04-01")) {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if !sub.UpdatedAt.Equal(at("2025-03-13")) {
		t.Fatalf("UpdatedAt = %v", sub.UpdatedAt)
	}

	_, err = svc.Cancel(ctx, "free")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
