package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/cardwise-backend/internal/dto"
	"github.com/GregMSThompson/cardwise-backend/internal/middleware"
	"github.com/GregMSThompson/cardwise-backend/internal/response"
)

type obligationService interface {
	ProcessDue(ctx context.Context, uid, email string) (dto.ProcessResult, error)
	UpcomingObligations(ctx context.Context, uid string, days int) ([]dto.UpcomingObligation, error)
}

type obligationHandlers struct {
	ResponseHandler response.ResponseHandler
	ObligationSvc   obligationService
}

func NewObligationHandlers(deps *Deps) *obligationHandlers {
	return &obligationHandlers{
		ResponseHandler: deps.ResponseHandler,
		ObligationSvc:   deps.ObligationSvc,
	}
}

func (h *obligationHandlers) ObligationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/process", h.ProcessDue)
	r.Get("/upcoming", h.Upcoming)
	return r
}

// ProcessDue runs the processor for the caller only. It is the session-start
// trigger; the worker covers everyone else.
func (h *obligationHandlers) ProcessDue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.ObligationSvc.ProcessDue(ctx, middleware.UID(ctx), middleware.Email(ctx))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, res)
}

func (h *obligationHandlers) Upcoming(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r.URL.Query(), "days")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	out, err := h.ObligationSvc.UpcomingObligations(r.Context(), middleware.UID(r.Context()), days)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, out)
}
