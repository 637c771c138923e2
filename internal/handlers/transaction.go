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

type transactionService interface {
	ListTransactions(ctx context.Context, uid string, q dto.TransactionQuery) ([]*models.Transaction, error)
	GetTransaction(ctx context.Context, uid, txID string) (*models.Transaction, error)
	CreateTransaction(ctx context.Context, uid, email string, req dto.CreateTransactionRequest) (*models.Transaction, error)
}

type transactionHandlers struct {
	ResponseHandler response.ResponseHandler
	TransactionSvc  transactionService
}

func NewTransactionHandlers(deps *Deps) *transactionHandlers {
	return &transactionHandlers{
		ResponseHandler: deps.ResponseHandler,
		TransactionSvc:  deps.TransactionSvc,
	}
}

func (h *transactionHandlers) TransactionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListTransactions)
	r.Post("/", h.CreateTransaction)
	r.Get("/{transactionId}", h.GetTransaction)
	return r
}

func (h *transactionHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q, "limit")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	query := dto.TransactionQuery{
		CardID:      queryString(q, "cardId"),
		RecurringID: queryString(q, "recurringId"),
		DateFrom:    queryString(q, "from"),
		DateTo:      queryString(q, "to"),
		Limit:       limit,
	}
	txs, err := h.TransactionSvc.ListTransactions(r.Context(), middleware.UID(r.Context()), query)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, txs)
}

func (h *transactionHandlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.TransactionSvc.GetTransaction(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "transactionId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tx)
}

func (h *transactionHandlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	ctx := r.Context()
	tx, err := h.TransactionSvc.CreateTransaction(ctx, middleware.UID(ctx), middleware.Email(ctx), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, tx)
}
