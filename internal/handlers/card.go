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

type cardService interface {
	CreateCard(ctx context.Context, uid string, req dto.CreateCardRequest) (dto.CardView, error)
	GetCard(ctx context.Context, uid, cardID string) (dto.CardView, error)
	ListCards(ctx context.Context, uid string) ([]dto.CardView, error)
	UpdateCard(ctx context.Context, uid, cardID string, req dto.UpdateCardRequest) (dto.CardView, error)
	DeleteCard(ctx context.Context, uid, cardID string) error
}

type cardHandlers struct {
	ResponseHandler response.ResponseHandler
	CardSvc         cardService
}

func NewCardHandlers(deps *Deps) *cardHandlers {
	return &cardHandlers{
		ResponseHandler: deps.ResponseHandler,
		CardSvc:         deps.CardSvc,
	}
}

func (h *cardHandlers) CardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListCards)
	r.Post("/", h.CreateCard)
	r.Get("/{cardId}", h.GetCard)
	r.Put("/{cardId}", h.UpdateCard)
	r.Delete("/{cardId}", h.DeleteCard)
	return r
}

func (h *cardHandlers) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.CardSvc.ListCards(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, cards)
}

func (h *cardHandlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	card, err := h.CardSvc.CreateCard(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, card)
}

func (h *cardHandlers) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.CardSvc.GetCard(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "cardId"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, card)
}

func (h *cardHandlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")
	var req dto.UpdateCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	card, err := h.CardSvc.UpdateCard(r.Context(), middleware.UID(r.Context()), cardID, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, card)
}

func (h *cardHandlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID := chi.URLParam(r, "cardId")
	if err := h.CardSvc.DeleteCard(r.Context(), middleware.UID(r.Context()), cardID); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
