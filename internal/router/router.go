package router

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/cardwise-backend/internal/handlers"
	"github.com/GregMSThompson/cardwise-backend/internal/middleware"
	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
)

type Options struct {
	Breaker  *breaker.Breaker
	Activity middleware.ActivityToucher
}

func NewRouter(deps *handlers.Deps, opts Options) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(middleware.Breaker(opts.Breaker))

	ush := handlers.NewUserHandlers(deps)
	cdh := handlers.NewCardHandlers(deps)
	rch := handlers.NewRecurringHandlers(deps)
	txh := handlers.NewTransactionHandlers(deps)
	bdh := handlers.NewBudgetHandlers(deps)
	nth := handlers.NewNotificationHandlers(deps)
	obh := handlers.NewObligationHandlers(deps)
	blh := handlers.NewBillingHandlers(deps)

	// signed by Stripe, no Firebase token
	r.Post("/webhooks/stripe", blh.StripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewMiddleware(deps.Firebase).FirebaseAuth)
		if opts.Activity != nil {
			r.Use(middleware.Activity(opts.Activity))
		}

		r.Mount("/users", ush.UserRoutes())
		r.Mount("/cards", cdh.CardRoutes())
		r.Mount("/recurring", rch.RecurringRoutes())
		r.Mount("/transactions", txh.TransactionRoutes())
		r.Mount("/budgets", bdh.BudgetRoutes())
		r.Mount("/notifications", nth.NotificationRoutes())
		r.Mount("/obligations", obh.ObligationRoutes())
		r.Mount("/billing", blh.BillingRoutes())
	})
	return r
}
