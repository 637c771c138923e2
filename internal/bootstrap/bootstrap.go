package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/cardwise-backend/internal/config"
	"github.com/GregMSThompson/cardwise-backend/internal/errs"
	"github.com/GregMSThompson/cardwise-backend/internal/store"
	"github.com/GregMSThompson/cardwise-backend/pkg/breaker"
	"github.com/GregMSThompson/cardwise-backend/pkg/logger"
)

type Bootstrap struct {
	Log       *slog.Logger
	Firestore *firestore.Client
	Firebase  *auth.Client
	KMS       *gcpkms.KeyManagementClient
	Secrets   *secretmanager.Client
	Breaker   *breaker.Breaker
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.HandlerFor(cfg.LogFormat))
	applicationCtx := logger.ToContext(context.Background(), bs.Log)
	bs.Breaker = breaker.New(cfg.BreakerCooldown, errs.IsQuotaExceeded)

	bs.Secrets, err = InitSecretManager(applicationCtx)
	if err != nil {
		return bs, err
	}
	if err = ResolveSecrets(applicationCtx, cfg, store.NewSecretsStore(bs.Secrets, cfg.ProjectID)); err != nil {
		return bs, err
	}
	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitFirebase(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	bs.KMS, err = InitKMS(applicationCtx)
	if err != nil {
		return bs, err
	}

	return bs, nil
}

// Close releases every client that was opened.
func (bs *Bootstrap) Close() error {
	var errList []error
	if bs.Firestore != nil {
		errList = append(errList, bs.Firestore.Close())
	}
	if bs.KMS != nil {
		errList = append(errList, bs.KMS.Close())
	}
	if bs.Secrets != nil {
		errList = append(errList, bs.Secrets.Close())
	}
	return errors.Join(errList...)
}
