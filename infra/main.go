package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"

	"github.com/GregMSThompson/cardwise-backend/infra/cloudrun"
	"github.com/GregMSThompson/cardwise-backend/infra/docker"
	"github.com/GregMSThompson/cardwise-backend/infra/firestore"
	"github.com/GregMSThompson/cardwise-backend/infra/identity"
	"github.com/GregMSThompson/cardwise-backend/infra/kms"
	"github.com/GregMSThompson/cardwise-backend/infra/provider"
	"github.com/GregMSThompson/cardwise-backend/infra/secret"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// set default provider with the correct project
		prov, err := provider.SetupDefaultProvider(ctx)
		if err != nil {
			return err
		}

		// enable identity service to allow using firebase
		ident, err := identity.SetupIdentity(ctx, prov)
		if err != nil {
			return err
		}

		// enable firestore and create a database for the project
		err = firestore.SetupFirestore(ctx, prov)
		if err != nil {
			return err
		}

		// create docker repo
		repo, err := docker.CreateCloudrunRepo(ctx, prov)
		if err != nil {
			return err
		}

		// key used to seal stripe customer ids
		kmsSvc, err := kms.SetupKMS(ctx, prov)
		if err != nil {
			return err
		}
		keyName, err := kms.CreateKey(ctx, prov, "cardwise", "customer-ids")
		if err != nil {
			return err
		}

		smSvc, err := secret.SetupSecretManager(ctx, prov)
		if err != nil {
			return err
		}

		api, err := cloudrun.SetupCloudRun(ctx, prov, keyName, ident, repo, kmsSvc, smSvc)
		if err != nil {
			return err
		}

		ctx.Export("apiUrl", api.Statuses.Index(pulumi.Int(0)).Url())
		ctx.Export("kmsKeyName", keyName)
		return nil
	})
}
