// Package secrets reads credentials from Secrets Manager or SSM Parameter Store.
package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"studentrecords/internal/apperrors"
)

const ssmPrefix = "ssm:"

// Provider returns the raw text of the secret identified by id.
type Provider interface {
	GetSecret(ctx context.Context, id string) (string, error)
}

type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type ParameterStoreAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Store routes ids to the backing service: "ssm:<name>" and SSM parameter
// ARNs go to Parameter Store, everything else to Secrets Manager.
type Store struct {
	sm SecretsManagerAPI
	ps ParameterStoreAPI
}

func New(sm SecretsManagerAPI, ps ParameterStoreAPI) *Store {
	return &Store{sm: sm, ps: ps}
}

func NewFromConfig(cfg aws.Config) *Store {
	return New(secretsmanager.NewFromConfig(cfg), ssm.NewFromConfig(cfg))
}

func (s *Store) GetSecret(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("empty secret id: %w", apperrors.ErrConfiguration)
	}

	if name, ok := parameterName(id); ok {
		return s.getParameter(ctx, name)
	}
	return s.getSecretValue(ctx, id)
}

func parameterName(id string) (string, bool) {
	if strings.HasPrefix(id, ssmPrefix) {
		return strings.TrimPrefix(id, ssmPrefix), true
	}
	if strings.HasPrefix(id, "arn:") && strings.Contains(id, ":ssm:") {
		return id, true
	}
	return "", false
}

func (s *Store) getSecretValue(ctx context.Context, id string) (string, error) {
	if s.sm == nil {
		return "", fmt.Errorf("secrets manager client not configured: %w", apperrors.ErrConfiguration)
	}
	out, err := s.sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		return "", fmt.Errorf("get secret value: %w: %w", apperrors.ErrConfiguration, err)
	}
	v := aws.ToString(out.SecretString)
	if v == "" {
		return "", fmt.Errorf("secret has no SecretString: %w", apperrors.ErrConfiguration)
	}
	return v, nil
}

func (s *Store) getParameter(ctx context.Context, name string) (string, error) {
	if s.ps == nil {
		return "", fmt.Errorf("parameter store client not configured: %w", apperrors.ErrConfiguration)
	}
	out, err := s.ps.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter: %w: %w", apperrors.ErrConfiguration, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", fmt.Errorf("parameter has no value: %w", apperrors.ErrConfiguration)
	}
	return aws.ToString(out.Parameter.Value), nil
}
