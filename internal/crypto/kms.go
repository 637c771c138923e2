package crypto

import (
	"context"
	"encoding/base64"

	gcpkms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"

	"github.com/GregMSThompson/cardwise-backend/internal/errs"
)

// kms seals per-user values (Stripe customer ids) with a Cloud KMS key. The uid is
// bound as additional authenticated data so a ciphertext copied onto another user
// does not decrypt.
type kms struct {
	client  *gcpkms.KeyManagementClient
	keyName string
}

func NewKMS(client *gcpkms.KeyManagementClient, keyName string) *kms {
	return &kms{client: client, keyName: keyName}
}

func (k *kms) Seal(ctx context.Context, uid, plaintext string) (string, error) {
	resp, err := k.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:                        k.keyName,
		Plaintext:                   []byte(plaintext),
		AdditionalAuthenticatedData: []byte(uid),
	})
	if err != nil {
		return "", errs.NewEncryptionError("failed to encrypt value", err)
	}
	return base64.StdEncoding.EncodeToString(resp.Ciphertext), nil
}

func (k *kms) Open(ctx context.Context, uid, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errs.NewEncryptionError("ciphertext is not base64", err)
	}
	resp, err := k.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:                        k.keyName,
		Ciphertext:                  raw,
		AdditionalAuthenticatedData: []byte(uid),
	})
	if err != nil {
		return "", errs.NewEncryptionError("failed to decrypt value", err)
	}
	return string(resp.Plaintext), nil
}
