package cloudrun

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/cloudrun"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/projects"
	"github.com/pulumi/pulumi-gcp/sdk/v9/go/gcp/serviceaccount"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"

	"github.com/GregMSThompson/cardwise-backend/infra/common"
	"github.com/GregMSThompson/cardwise-backend/infra/kms"
	"github.com/GregMSThompson/cardwise-backend/infra/secret"
)

type secretRefs struct {
	stripeSecretKeyName     pulumi.StringOutput
	stripeWebhookSecretName pulumi.StringOutput
	smtpPasswordName        pulumi.StringOutput
}

// SetupCloudRun deploys the public API and the always-on obligation worker from
// the same repository. Both run as one service account.
func SetupCloudRun(ctx *pulumi.Context, prov *gcp.Provider, keyName pulumi.StringOutput, res ...pulumi.Resource) (*cloudrun.Service, error) {
	apiImg, err := buildImage(ctx, "apiImage", "api", res...)
	if err != nil {
		return nil, err
	}
	workerImg, err := buildImage(ctx, "workerImage", "worker", res...)
	if err != nil {
		return nil, err
	}

	sr, err := createSecrets(ctx)
	if err != nil {
		return nil, err
	}

	srv, err := enableCloudRun(ctx, prov)
	if err != nil {
		return nil, err
	}

	sa, err := createServiceAccount(ctx, prov)
	if err != nil {
		return nil, err
	}
	if err := kms.GrantCryptoAccess(ctx, prov, keyName, sa); err != nil {
		return nil, err
	}
	grant, err := secret.GrantAccessor(ctx, sa)
	if err != nil {
		return nil, err
	}

	envs := containerEnvs(ctx, keyName, sr)

	api, err := createAPIService(ctx, apiImg, sa, envs, prov, srv, grant)
	if err != nil {
		return nil, err
	}

	_, err = createWorkerService(ctx, workerImg, sa, envs, prov, srv, grant)
	if err != nil {
		return nil, err
	}

	err = setIAMAccessPolicy(ctx, api, prov)
	if err != nil {
		return nil, err
	}

	return api, nil
}

func buildImage(ctx *pulumi.Context, resourceName, cmd string, res ...pulumi.Resource) (*docker.Image, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")
	region := gcpCfg.Require("region")

	hash, err := common.GenerateHash("../")
	if err != nil {
		return nil, err
	}

	return docker.NewImage(ctx, resourceName, &docker.ImageArgs{
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String("linux/amd64"),
			Context:    pulumi.String(".."), // build from repo root
			Dockerfile: pulumi.String(fmt.Sprintf("../cmd/%s/Dockerfile", cmd)),
		},
		ImageName: pulumi.String(fmt.Sprintf("%s-docker.pkg.dev/%s/cardwise/cardwise-%s:%s", region, projectID, cmd, hash)),
	},
		pulumi.DependsOn(res),
	)
}

func enableCloudRun(ctx *pulumi.Context, prov *gcp.Provider) (*projects.Service, error) {
	return projects.NewService(ctx, "cloudRunService", &projects.ServiceArgs{
		Service: pulumi.String("run.googleapis.com"),
	},
		pulumi.Provider(prov),
	)
}

func createServiceAccount(ctx *pulumi.Context, prov *gcp.Provider) (*serviceaccount.Account, error) {
	gcpCfg := config.New(ctx, "gcp")
	projectID := gcpCfg.Require("project")

	sa, err := serviceaccount.NewAccount(ctx, "cardwiseServiceAccount", &serviceaccount.AccountArgs{
		AccountId:   pulumi.String("cardwise-service"),
		DisplayName: pulumi.String("Cardwise API and Worker"),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	_, err = projects.NewIAMMember(ctx, "firestoreAccess", &projects.IAMMemberArgs{
		Role: pulumi.String("roles/datastore.user"), // Firestore read/write
		Member: sa.Email.ApplyT(func(email string) string {
			return fmt.Sprintf("serviceAccount:%s", email)
		}).(pulumi.StringOutput),
		Project: pulumi.String(projectID),
	},
		pulumi.Provider(prov),
	)
	if err != nil {
		return nil, err
	}

	return sa, nil
}

func plainEnv(name, value string) *cloudrun.ServiceTemplateSpecContainerEnvArgs {
	return &cloudrun.ServiceTemplateSpecContainerEnvArgs{
		Name:  pulumi.String(name),
		Value: pulumi.String(value),
	}
}

func secretEnv(name string, secretName pulumi.StringOutput) *cloudrun.ServiceTemplateSpecContainerEnvArgs {
	return &cloudrun.ServiceTemplateSpecContainerEnvArgs{
		Name: pulumi.String(name),
		ValueFrom: &cloudrun.ServiceTemplateSpecContainerEnvValueFromArgs{
			SecretKeyRef: &cloudrun.ServiceTemplateSpecContainerEnvValueFromSecretKeyRefArgs{
				Name: secretName,
				Key:  pulumi.String("latest"),
			},
		},
	}
}

// containerEnvs is the environment shared by the api and the worker.
func containerEnvs(ctx *pulumi.Context, keyName pulumi.StringOutput, sr *secretRefs) cloudrun.ServiceTemplateSpecContainerEnvArray {
	gcpCfg := config.New(ctx, "gcp")
	appCfg := config.New(ctx, "cardwise")
	stripeCfg := config.New(ctx, "stripe")
	smtpCfg := config.New(ctx, "smtp")

	return cloudrun.ServiceTemplateSpecContainerEnvArray{
		plainEnv("PROJECTID", gcpCfg.Require("project")),
		plainEnv("LOGLEVEL", appCfg.Get("logLevel")),
		plainEnv("TIMEZONE", appCfg.Get("timezone")),
		plainEnv("WARNINGLEADDAYS", appCfg.Get("warningLeadDays")),
		plainEnv("BREAKERCOOLDOWN", appCfg.Get("breakerCooldown")),
		&cloudrun.ServiceTemplateSpecContainerEnvArgs{
			Name:  pulumi.String("KMSKEYNAME"),
			Value: keyName,
		},
		plainEnv("STRIPEPRICEID", stripeCfg.Require("priceId")),
		plainEnv("STRIPESUCCESSURL", stripeCfg.Require("successUrl")),
		plainEnv("STRIPECANCELURL", stripeCfg.Require("cancelUrl")),
		secretEnv("STRIPESECRETKEY", sr.stripeSecretKeyName),
		secretEnv("STRIPEWEBHOOKSECRET", sr.stripeWebhookSecretName),
		plainEnv("SMTPHOST", smtpCfg.Get("host")),
		plainEnv("SMTPPORT", smtpCfg.Get("port")),
		plainEnv("SMTPUSERNAME", smtpCfg.Get("username")),
		plainEnv("SMTPFROM", smtpCfg.Get("from")),
		secretEnv("SMTPPASSWORD", sr.smtpPasswordName),
	}
}

func createAPIService(ctx *pulumi.Context,
	img *docker.Image,
	sa *serviceaccount.Account,
	envs cloudrun.ServiceTemplateSpecContainerEnvArray,
	prov *gcp.Provider,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	gcpCfg := config.New(ctx, "gcp")
	crCfg := config.New(ctx, "cloudrun")

	region := gcpCfg.Require("region")
	minScale := crCfg.Require("minScale")
	maxScale := crCfg.Require("maxScale")
	cpu := crCfg.Require("cpu")
	memory := crCfg.Require("memory")
	concurrency := crCfg.Require("concurrency")
	timeout, _ := strconv.Atoi(crCfg.Require("timeout"))

	return cloudrun.NewService(ctx, "apiService", &cloudrun.ServiceArgs{
		Location: pulumi.String(region),

		Template: &cloudrun.ServiceTemplateArgs{

			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				Annotations: pulumi.StringMap{
					// Enable Identity Platform (Firebase) authentication
					"run.googleapis.com/launch-stage":      pulumi.String("BETA"),
					"run.googleapis.com/identity-provider": pulumi.String("firebase"),

					"autoscaling.knative.dev/minScale": pulumi.String(minScale),
					"autoscaling.knative.dev/maxScale": pulumi.String(maxScale),

					"run.googleapis.com/cpu":    pulumi.String(cpu),
					"run.googleapis.com/memory": pulumi.String(memory),

					"run.googleapis.com/cpu-throttling":        pulumi.String("true"),
					"run.googleapis.com/container-concurrency": pulumi.String(concurrency),
				},
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: sa.Email,
				TimeoutSeconds:     pulumi.Int(timeout),

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: envs,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

// createWorkerService runs the cron worker as a single always-allocated instance.
// The worker serves no traffic, so the port only satisfies the startup probe.
func createWorkerService(ctx *pulumi.Context,
	img *docker.Image,
	sa *serviceaccount.Account,
	envs cloudrun.ServiceTemplateSpecContainerEnvArray,
	prov *gcp.Provider,
	res ...pulumi.Resource) (*cloudrun.Service, error) {
	gcpCfg := config.New(ctx, "gcp")
	workerCfg := config.New(ctx, "worker")

	region := gcpCfg.Require("region")
	workerEnvs := append(cloudrun.ServiceTemplateSpecContainerEnvArray{}, envs...)
	workerEnvs = append(workerEnvs,
		plainEnv("WORKERSCHEDULE", workerCfg.Get("schedule")),
		plainEnv("WORKERCONCURRENCY", workerCfg.Get("concurrency")),
		plainEnv("WORKERRATE", workerCfg.Get("rate")),
	)

	return cloudrun.NewService(ctx, "workerService", &cloudrun.ServiceArgs{
		Location: pulumi.String(region),

		Template: &cloudrun.ServiceTemplateArgs{
			Metadata: &cloudrun.ServiceTemplateMetadataArgs{
				Annotations: pulumi.StringMap{
					"autoscaling.knative.dev/minScale":  pulumi.String("1"),
					"autoscaling.knative.dev/maxScale":  pulumi.String("1"),
					"run.googleapis.com/cpu-throttling": pulumi.String("false"),
				},
			},

			Spec: &cloudrun.ServiceTemplateSpecArgs{
				ServiceAccountName: sa.Email,

				Containers: cloudrun.ServiceTemplateSpecContainerArray{
					&cloudrun.ServiceTemplateSpecContainerArgs{
						Image: img.ImageName,
						Ports: cloudrun.ServiceTemplateSpecContainerPortArray{
							&cloudrun.ServiceTemplateSpecContainerPortArgs{
								ContainerPort: pulumi.Int(8080),
							},
						},
						Envs: workerEnvs,
					},
				},
			},
		},
	},
		pulumi.Provider(prov),
		pulumi.DependsOn(res),
	)
}

func setIAMAccessPolicy(ctx *pulumi.Context, svc *cloudrun.Service, prov *gcp.Provider) error {
	gcpCfg := config.New(ctx, "gcp")
	region := gcpCfg.Require("region")

	_, err := cloudrun.NewIamMember(ctx, "apiInvoker", &cloudrun.IamMemberArgs{
		Service:  svc.Name,
		Location: pulumi.String(region),
		Role:     pulumi.String("roles/run.invoker"),

		// Firebase tokens and Stripe signatures are checked by the api itself
		Member: pulumi.String("allUsers"),
	},
		pulumi.Provider(prov),
	)
	return err
}

func createSecrets(ctx *pulumi.Context) (*secretRefs, error) {
	var err error
	sr := new(secretRefs)

	stripeCfg := config.New(ctx, "stripe")
	smtpCfg := config.New(ctx, "smtp")

	sr.stripeSecretKeyName, err = secret.AddSecret(ctx, "stripeSecretKeySecret", "stripeSecretKey", stripeCfg.RequireSecret("secretKey"))
	if err != nil {
		return nil, err
	}

	sr.stripeWebhookSecretName, err = secret.AddSecret(ctx, "stripeWebhookSecretSecret", "stripeWebhookSecret", stripeCfg.RequireSecret("webhookSecret"))
	if err != nil {
		return nil, err
	}

	sr.smtpPasswordName, err = secret.AddSecret(ctx, "smtpPasswordSecret", "smtpPassword", smtpCfg.RequireSecret("password"))
	if err != nil {
		return nil, err
	}

	return sr, nil
}
