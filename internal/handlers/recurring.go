package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/middleware"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/internal/response"
)

type recurringService interface {
	CreateRecurring(ctx context.Context, uid string, req dto.CreateRecurringRequest) (*models.RecurringExpense, error)
	GetRecurring(ctx context.Context, uid, id string) (*models.RecurringExpense, error)
	ListRecurring(ctx context.Context, uid string, activeOnly bool) ([]*models.RecurringExpense, error)
	UpdateRecurring(ctx context.Context, uid, id string, req dto.UpdateRecurringRequest) (*models.RecurringExpense, error)
	DeleteRecurring(ctx context.Context, uid, id string, hard bool) error
}

type recurringHandlers struct {
	ResponseHandler response.ResponseHandler
	RecurringSvc    recurringService
}

func NewRecurringHandlers(deps *Deps) *recurringHandlers {
	return &recurringHandlers{
		ResponseHandler: deps.ResponseHandler,
		RecurringSvc:    deps.RecurringSvc,
	}
}

func (h *recurringHandlers) RecurringRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListRecurring)
	r.Post("/", h.CreateRecurring)
	r.Get("/{id}", h.GetRecurring)
	r.Put("/{id}", h.UpdateRecurring)
	r.Delete("/{id}", h.DeleteRecurring)
	return r
}

func (h *recurringHandlers) ListRecurring(w http.ResponseWriter, r *http.Request) {
	active, err := queryBool(r.URL.Query(), "active")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	exps, err := h.RecurringSvc.ListRecurring(r.Context(), middleware.UID(r.Context()), active)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, exps)
}

func (h *recurringHandlers) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	exp, err := h.RecurringSvc.CreateRecurring(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, exp)
}

func (h *recurringHandlers) GetRecurring(w http.ResponseWriter, r *http.Request) {
	exp, err := h.RecurringSvc.GetRecurring(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, exp)
}

func (h *recurringHandlers) UpdateRecurring(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req dto.UpdateRecurringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	exp, err := h.RecurringSvc.UpdateRecurring(r.Context(), middleware.UID(r.Context()), id, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, exp)
}

// DeleteRecurring deactivates by default; ?hard=true removes the document.
func (h *recurringHandlers) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hard, err := queryBool(r.URL.Query(), "hard")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.RecurringSvc.DeleteRecurring(r.Context(), middleware.UID(r.Context()), id, hard); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
