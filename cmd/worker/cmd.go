package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/cardwise-backend/internal/bootstrap"
	"github.com/GregMSThompson/cardwise-backend/internal/client/mailer"
	"github.com/GregMSThompson/cardwise-backend/internal/config"
	"github.com/GregMSThompson/cardwise-backend/internal/scheduler"
	"github.com/GregMSThompson/cardwise-backend/internal/services"
	"github.com/GregMSThompson/cardwise-backend/internal/store"
	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

// healthServer answers the platform's startup and liveness probes.
func healthServer(port string, log *slog.Logger) {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Error("health server stopped", "error", err)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()
	loc := cfg.Location()

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	cstore := store.NewCardStore(bs.Firestore)
	rstore := store.NewRecurringStore(bs.Firestore)
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
	bdserv := services.NewBudgetService(bdstore, nserv, loc)
	oserv := services.NewObligationService(rstore, cstore, lstore, bdserv, nserv, loc, cfg.WarningLeadDays)

	// scheduler
	runner := scheduler.New(ustore, ustore, oserv, scheduler.Config{
		Schedule:    cfg.WorkerSchedule,
		Concurrency: cfg.WorkerConcurrency,
		Rate:        cfg.WorkerRate,
		Location:    loc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, bs.Log.With("component", "worker"))
	ctx = breaker.ToContext(ctx, bs.Breaker)

	go healthServer(cfg.Port, bs.Log)
	bs.Log.Info("worker started", "schedule", cfg.WorkerSchedule, "concurrency", cfg.WorkerConcurrency)
	err = runner.Start(ctx)
	exitOnError("worker failed", err, bs.Log)
}
