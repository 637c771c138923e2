package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/handlers"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/internal/response"
	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

type stubBilling struct {
	webhooks int
}

func (s *stubBilling) Checkout(context.Context, string, string) (dto.CheckoutSession, error) {
	return dto.CheckoutSession{}, nil
}

func (s *stubBilling) Cancel(context.Context, string) (*models.Subscription, error) {
	return nil, nil
}

func (s *stubBilling) HandleWebhook(context.Context, []byte, string) error {
	s.webhooks++
	return nil
}

func newTestRouter(billing *stubBilling) http.Handler {
	log := logger.New("", logger.NewTestHandler)
	deps := &handlers.Deps{
		Log:             log,
		ResponseHandler: response.New(log),
		BillingSvc:      billing,
	}
	return NewRouter(deps, Options{Breaker: breaker.New(time.Minute, nil)})
}

func TestStripeWebhookSkipsAuth(t *testing.T) {
	billing := &stubBilling{}
	r := newTestRouter(billing)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader("{}"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || billing.webhooks != 1 {
		t.Fatalf("status=%d webhooks=%d, want 200 and one call", rr.Code, billing.webhooks)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(&stubBilling{})

	paths := []struct{ method, path string }{
		{http.MethodGet, "/users/me"},
		{http.MethodGet, "/cards"},
		{http.MethodPost, "/recurring"},
		{http.MethodGet, "/transactions"},
		{http.MethodGet, "/budgets"},
		{http.MethodPut, "/notifications/read-all"},
		{http.MethodPost, "/obligations/process"},
		{http.MethodPost, "/billing/checkout"},
	}
	for _, p := range paths {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(p.method, p.path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: status = %d, want 401", p.method, p.path, rr.Code)
		}
	}
}
