package service

import (
	"context"
	"fmt"
	"hash/crc32"

	"app/internal/config"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretManagerService stores and retrieves per-user provider API keys in
// Google Secret Manager. Users without a shared platform key can bring their
// own; the interpreter falls back to these.
type SecretManagerService interface {
	APIKeySource
	StoreUserAPIKey(ctx context.Context, userID, provider, apiKey string) error
	DeleteUserAPIKey(ctx context.Context, userID, provider string) error
}

type secretManagerService struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerService creates a Secret Manager backed key store.
func NewSecretManagerService(ctx context.Context, cfg *config.Config) (SecretManagerService, error) {
	if cfg.GCPProjectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set for the current environment")
	}

	var opts []option.ClientOption
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}

	return &secretManagerService{
		client:    client,
		projectID: cfg.GCPProjectID,
	}, nil
}

func (s *secretManagerService) secretName(userID, provider string) string {
	return fmt.Sprintf("user-%s-%s-key", userID, provider)
}

func (s *secretManagerService) secretPath(userID, provider string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", s.projectID, s.secretName(userID, provider))
}

// StoreUserAPIKey creates the secret if needed and adds a new version.
func (s *secretManagerService) StoreUserAPIKey(ctx context.Context, userID, provider, apiKey string) error {
	secretPath := s.secretPath(userID, provider)

	secretExists := true
	if _, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: secretPath}); err != nil {
		secretExists = false
	}

	if !secretExists {
		createReq := &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", s.projectID),
			SecretId: s.secretName(userID, provider),
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
			},
		}
		if _, err := s.client.CreateSecret(ctx, createReq); err != nil {
			return fmt.Errorf("failed to create secret: %w", err)
		}
	}

	checksum := int64(crc32.Checksum([]byte(apiKey), crc32.MakeTable(crc32.Castagnoli)))
	addVersionReq := &secretmanagerpb.AddSecretVersionRequest{
		Parent: secretPath,
		Payload: &secretmanagerpb.SecretPayload{
			Data:       []byte(apiKey),
			DataCrc32C: &checksum,
		},
	}
	if _, err := s.client.AddSecretVersion(ctx, addVersionReq); err != nil {
		return fmt.Errorf("failed to add secret version: %w", err)
	}
	return nil
}

// GetUserAPIKey returns the latest stored key for the user and provider.
func (s *secretManagerService) GetUserAPIKey(ctx context.Context, userID, provider string) (string, error) {
	accessReq := &secretmanagerpb.AccessSecretVersionRequest{
		Name: s.secretPath(userID, provider) + "/versions/latest",
	}
	result, err := s.client.AccessSecretVersion(ctx, accessReq)
	if err != nil {
		return "", fmt.Errorf("failed to access secret version: %w", err)
	}
	return string(result.Payload.Data), nil
}

// DeleteUserAPIKey removes the secret entirely.
func (s *secretManagerService) DeleteUserAPIKey(ctx context.Context, userID, provider string) error {
	deleteReq := &secretmanagerpb.DeleteSecretRequest{
		Name: s.secretPath(userID, provider),
	}
	if err := s.client.DeleteSecret(ctx, deleteReq); err != nil {
		return fmt.Errorf("failed to delete secret: %w", err)
	}
	return nil
}
