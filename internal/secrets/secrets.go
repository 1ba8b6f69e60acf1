// Package secrets provides the API token used to fetch agent configuration.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// ErrEmptySecret is returned when a secret has no string value.
var ErrEmptySecret = errors.New("secret has no string value")

// CredentialSource yields the token presented to the platform API.
type CredentialSource interface {
	Token(ctx context.Context) (string, error)
}

// SecretsManagerAPI is the subset of the Secrets Manager client we use.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerSource reads the token from an AWS Secrets Manager secret.
// The value is fetched on every call unless caching is enabled.
type SecretsManagerSource struct {
	client   SecretsManagerAPI
	secretID string
	cache    bool

	mu    sync.Mutex
	token string
}

// NewSecretsManagerSource creates a source reading secretID through client.
func NewSecretsManagerSource(client SecretsManagerAPI, secretID string) *SecretsManagerSource {
	return &SecretsManagerSource{client: client, secretID: secretID}
}

// Cached makes the source keep the first successfully read token for the
// lifetime of the process, as a warm Lambda container would.
func (s *SecretsManagerSource) Cached() *SecretsManagerSource {
	s.cache = true
	return s
}

// Token returns the secret string.
func (s *SecretsManagerSource) Token(ctx context.Context) (string, error) {
	if s.cache {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.token != "" {
			return s.token, nil
		}
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.secretID),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %s: %w", s.secretID, err)
	}
	token := aws.ToString(out.SecretString)
	if token == "" {
		return "", fmt.Errorf("secret %s: %w", s.secretID, ErrEmptySecret)
	}

	if s.cache {
		s.token = token
	}
	return token, nil
}

// StaticSource returns a fixed token. Used for local runs.
type StaticSource string

// Token returns the static token, or ErrEmptySecret when it is empty.
func (s StaticSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrEmptySecret
	}
	return string(s), nil
}
