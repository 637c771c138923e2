package firestore

import (
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/firestore"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

func SetupFirestore(ctx *pulumi.Context, prov *gcp.Provider) error {
	svc, err := enableFireStore(ctx, prov)
	if err != nil {
		return err
	}

	db, err := createDatabase(ctx, prov, svc)
	if err != nil {
		return err
	}

	return createIndexes(ctx, prov, db)
}

func enableFireStore(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "firestore", &projects.ServiceArgs{
		Service: pulumi.String("firestore.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

// createDatabase creates the (default) database. Balances and ledgers live here,
// so point-in-time recovery and delete protection are on.
func createDatabase(ctx *pulumi.Context, prov *gcp.Provider, res ...pulumi.Resource) (*firestore.Database, error) {
	gcpCfg := config.New(ctx, "gcp")

	return firestore.NewDatabase(ctx, "firestoreDatabase", &firestore.DatabaseArgs{
		Project:                       pulumi.String(gcpCfg.Require("project")),
		Name:                          pulumi.String("(default)"),
		LocationId:                    pulumi.String(gcpCfg.Require("region")),
		Type:                          pulumi.String("FIRESTORE_NATIVE"),
		PointInTimeRecoveryEnablement: pulumi.String("POINT_IN_TIME_RECOVERY_ENABLED"),
		DeleteProtectionState:         pulumi.String("DELETE_PROTECTION_ENABLED"),
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

type index struct {
	name       string
	collection string
	fields     []firestore.IndexFieldArgs
}

// createIndexes adds the composite indexes the stores query with.
func createIndexes(ctx *pulumi.Context, prov *gcp.Provider, db *firestore.Database) error {
	asc := pulumi.String("ASCENDING")
	desc := pulumi.String("DESCENDING")

	indexes := []index{
		{"txByCardDate", "transactions", []firestore.IndexFieldArgs{
			{FieldPath: pulumi.String("cardId"), Order: asc},
			{FieldPath: pulumi.String("date"), Order: desc},
		}},
		{"txByRecurringDate", "transactions", []firestore.IndexFieldArgs{
			{FieldPath: pulumi.String("recurringId"), Order: asc},
			{FieldPath: pulumi.String("date"), Order: desc},
		}},
		{"unreadNotifications", "notifications", []firestore.IndexFieldArgs{
			{FieldPath: pulumi.String("read"), Order: asc},
			{FieldPath: pulumi.String("createdAt"), Order: desc},
		}},
	}

	for _, idx := range indexes {
		fields := make(firestore.IndexFieldArray, 0, len(idx.fields))
		for _, f := range idx.fields {
			fields = append(fields, f)
		}
		_, err := firestore.NewIndex(ctx, idx.name, &firestore.IndexArgs{
			Database:   db.Name,
			Collection: pulumi.String(idx.collection),
			Fields:     fields,
		},
			pulumi.Provider(prov),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
