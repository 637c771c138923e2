package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/middleware"
	"github.com/GregMSThompson/cardwise-backend/internal/response"
)

type budgetService interface {
	CreateBudget(ctx context.Context, uid string, req dto.CreateBudgetRequest) (dto.BudgetView, error)
	GetBudget(ctx context.Context, uid, budgetID string) (dto.BudgetView, error)
	ListBudgets(ctx context.Context, uid string) ([]dto.BudgetView, error)
	UpdateBudget(ctx context.Context, uid, budgetID string, req dto.UpdateBudgetRequest) (dto.BudgetView, error)
	DeleteBudget(ctx context.Context, uid, budgetID string) error
}

type budgetHandlers struct {
	ResponseHandler response.ResponseHandler
	BudgetSvc       budgetService
}

func NewBudgetHandlers(deps *Deps) *budgetHandlers {
	return &budgetHandlers{
		ResponseHandler: deps.ResponseHandler,
		BudgetSvc:       deps.BudgetSvc,
	}
}

func (h *budgetHandlers) BudgetRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListBudgets)
	r.Post("/", h.CreateBudget)
	r.Get("/{budgetId}", h.GetBudget)
	r.Put("/{budgetId}", h.UpdateBudget)
	r.Delete("/{budgetId}", h.DeleteBudget)
	return r
}

func (h *budgetHandlers) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.BudgetSvc.ListBudgets(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, budgets)
}

func (h *budgetHandlers) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	budget, err := h.BudgetSvc.CreateBudget(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, budget)
}

func (h *budgetHandlers) GetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := h.BudgetSvc.GetBudget(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "budgetId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, budget)
}

func (h *budgetHandlers) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	budgetID := chi.URLParam(r, "budgetId")
	var req dto.UpdateBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	budget, err := h.BudgetSvc.UpdateBudget(r.Context(), middleware.UID(r.Context()), budgetID, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, budget)
}

func (h *budgetHandlers) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	budgetID := chi.URLParam(r, "budgetId")
	if err := h.BudgetSvc.DeleteBudget(r.Context(), middleware.UID(r.Context()), budgetID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
