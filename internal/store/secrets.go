package store

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
)

// Secrets path
// projects/{project}/secrets/{name}/versions/latest

type secretsStore struct {
	client    *secretmanager.Client
	projectID string
}

func NewSecretsStore(client *secretmanager.Client, projectID string) *secretsStore {
	return &secretsStore{
		client:    client,
		projectID: projectID,
	}
}

func (s *secretsStore) secretName(name string) string {
	if strings.HasPrefix(name, "projects/") {
		return name
	}
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, name)
}

// Access returns the latest version of the named secret.
func (s *secretsStore) Access(ctx context.Context, name string) (string, error) {
	res, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", s.secretName(name)),
	})
	if err != nil {
		return "", errs.NewExternalServiceError("secretmanager", fmt.Sprintf("failed to access secret %s", name), false, err)
	}
	return string(res.Payload.Data), nil
}
