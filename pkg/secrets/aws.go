package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
)

// AWSPrefix marks a connection string stored in AWS Secrets Manager:
// "aws-sm:<secret id or arn>" or "aws-sm:<id>#<json key>".
const AWSPrefix = "aws-sm:"

// SecretsManagerAPI is the subset of *secretsmanager.Client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWS reads connection strings from Secrets Manager.
type AWS struct {
	client SecretsManagerAPI
}

func NewAWS(client SecretsManagerAPI) *AWS {
	return &AWS{client: client}
}

// NewAWSFromEnv builds a client from the default credential chain.
func NewAWSFromEnv(ctx context.Context, region string) (*AWS, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewAWS(secretsmanager.NewFromConfig(cfg)), nil
}

// Reveal implements Backend.
func (a *AWS) Reveal(ctx context.Context, ref string) (string, error) {
	id, key, _ := strings.Cut(strings.TrimPrefix(ref, AWSPrefix), "#")
	if id == "" {
		return "", fmt.Errorf("%w: empty secret id", ErrSecretNotFound)
	}

	out, err := a.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(id),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return "", errors.Join(ErrSecretNotFound, fmt.Errorf("secret %s: %w", mask(id), err))
		}
		return "", fmt.Errorf("get secret %s: %w", mask(id), err)
	}

	if out.SecretString == nil {
		return "", fmt.Errorf("%w: secret %s", ErrSecretUnreadable, mask(id))
	}
	if key == "" {
		return *out.SecretString, nil
	}

	var fields map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &fields); err != nil {
		return "", errors.Join(ErrSecretUnreadable, fmt.Errorf("secret %s is not a JSON object: %w", mask(id), err))
	}
	v, ok := fields[key]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: secret %s has no %q field", ErrSecretNotFound, mask(id), key)
	}
	return v, nil
}

// mask keeps only the tail of an id for error messages.
func mask(id string) string {
	if len(id) <= 12 {
		return "***"
	}
	return "..." + id[len(id)-8:]
}
