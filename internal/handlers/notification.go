package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/middleware"
	"github.com/GregMSThompson/cardwise-backend/internal/models"
	"github.com/GregMSThompson/cardwise-backend/internal/response"
)

type notificationService interface {
	ListNotifications(ctx context.Context, uid string, q dto.NotificationQuery) ([]*models.Notification, error)
	MarkRead(ctx context.Context, uid, id string) error
	MarkAllRead(ctx context.Context, uid string) (int, error)
	DeleteNotification(ctx context.Context, uid, id string) error
}

type notificationHandlers struct {
	ResponseHandler response.ResponseHandler
	NotificationSvc notificationService
}

func NewNotificationHandlers(deps *Deps) *notificationHandlers {
	return &notificationHandlers{
		ResponseHandler: deps.ResponseHandler,
		NotificationSvc: deps.NotificationSvc,
	}
}

func (h *notificationHandlers) NotificationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListNotifications)
	r.Put("/read-all", h.MarkAllRead) // must be before /{id}
	r.Put("/{id}/read", h.MarkRead)
	r.Delete("/{id}", h.DeleteNotification)
	return r
}

func (h *notificationHandlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	unread, err := queryBool(q, "unread")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	limit, err := queryInt(q, "limit")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	ns, err := h.NotificationSvc.ListNotifications(r.Context(), middleware.UID(r.Context()), dto.NotificationQuery{UnreadOnly: unread, Limit: limit})
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, ns)
}

func (h *notificationHandlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.NotificationSvc.MarkRead(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *notificationHandlers) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.NotificationSvc.MarkAllRead(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]int{"updated": n})
}

func (h *notificationHandlers) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if err := h.NotificationSvc.DeleteNotification(r.Context(), middleware.UID(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
