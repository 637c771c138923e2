package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/GregMSThompson/cardwise-backend/internal/bootstrap"
	billingclient "github.com/GregMSThompson/cardwise-backend/internal/client/billing"
	"github.com/GregMSThompson/cardwise-backend/internal/client/mailer"
	"github.com/GregMSThompson/cardwise-backend/internal/config"
	"github.com/GregMSThompson/cardwise-backend/internal/crypto"
	"github.com/GregMSThompson/cardwise-backend/internal/handlers"
	"github.com/GregMSThompson/cardwise-backend/internal/response"
	"github.com/GregMSThompson/cardwise-backend/internal/router"
	"github.com/GregMSThompson/cardwise-backend/internal/services"
	"github.com/GregMSThompson/cardwise-backend/internal/store"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()
	loc := cfg.Location()

	// helpers
	kmsHelper := crypto.NewKMS(bs.KMS, cfg.KMSKeyName)
	stripe := billingclient.NewAdapter(billingclient.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		PriceID:       cfg.StripePriceID,
		SuccessURL:    cfg.StripeSuccessURL,
		CancelURL:     cfg.StripeCancelURL,
	})

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	cstore := store.NewCardStore(bs.Firestore)
	rstore := store.NewRecurringStore(bs.Firestore)
	tstore := store.NewTransactionStore(bs.Firestore)
	bdstore := store.NewBudgetStore(bs.Firestore)
	nstore := store.NewNotificationStore(bs.Firestore)
	lstore := store.NewLedgerStore(bs.Firestore)

	// services
	nserv := services.NewNotificationService(nstore, nil)
	if cfg.SMTPHost != "" {
		nserv = services.NewNotificationService(nstore, mailer.NewSender(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}))
	}
	userv := services.NewUserService(ustore)
	cserv := services.NewCardService(cstore, rstore)
	rserv := services.NewRecurringService(rstore, cstore, loc)
	bdserv := services.NewBudgetService(bdstore, nserv, loc)
	tserv := services.NewTransactionService(tstore, lstore, bdserv, loc)
	oserv := services.NewObligationService(rstore, cstore, lstore, bdserv, nserv, loc, cfg.WarningLeadDays)
	blserv := services.NewBillingService(stripe, ustore, kmsHelper, nserv)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.UserSvc = userv
	deps.CardSvc = cserv
	deps.RecurringSvc = rserv
	deps.TransactionSvc = tserv
	deps.BudgetSvc = bdserv
	deps.NotificationSvc = nserv
	deps.ObligationSvc = oserv
	deps.BillingSvc = blserv

	// router
	r := router.NewRouter(deps, router.Options{Breaker: bs.Breaker, Activity: userv})
	bs.Log.Info("listening", "port", cfg.Port)
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}
