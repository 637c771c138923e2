package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/middleware"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/internal/response"
)

// Stripe signs payloads well under this size.
const maxWebhookBytes = 64 << 10

type billingService interface {
	Checkout(ctx context.Context, uid, email string) (dto.CheckoutSession, error)
	Cancel(ctx context.Context, uid string) (*models.Subscription, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type billingHandlers struct {
	ResponseHandler response.ResponseHandler
	BillingSvc      billingService
}

func NewBillingHandlers(deps *Deps) *billingHandlers {
	return &billingHandlers{
		ResponseHandler: deps.ResponseHandler,
		BillingSvc:      deps.BillingSvc,
	}
}

func (h *billingHandlers) BillingRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/checkout", h.Checkout)
	r.Post("/cancel", h.Cancel)
	return r
}

func (h *billingHandlers) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.BillingSvc.Checkout(ctx, middleware.UID(ctx), middleware.Email(ctx))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, sess)
}

func (h *billingHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	sub, err := h.BillingSvc.Cancel(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, sub)
}

// StripeWebhook is mounted outside Firebase auth; the Stripe signature is the
// only credential.
func (h *billingHandlers) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes+1))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if len(payload) > maxWebhookBytes {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("webhook payload too large"))
		return
	}
	if err := h.BillingSvc.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
