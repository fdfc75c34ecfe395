package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/tidwall/gjson"
)

// SecretAPIKeyField is read from secrets stored as JSON objects.
const SecretAPIKeyField = "EVERYACTION_API_KEY"

// SecretResolver turns a secret id into its value.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, secretID string) (string, error)
}

// SecretsManagerAPI is the subset of the Secrets Manager client used here.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretResolver reads the API key from AWS Secrets Manager using the
// default credential chain. API may be set to substitute the client.
type AWSSecretResolver struct {
	API SecretsManagerAPI
}

func (r AWSSecretResolver) ResolveSecret(ctx context.Context, secretID string) (string, error) {
	api := r.API
	if api == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		api = secretsmanager.NewFromConfig(cfg)
	}

	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "ResourceNotFoundException":
				return "", fmt.Errorf("secret not found: %w", err)
			case "AccessDeniedException":
				return "", fmt.Errorf("%w: access denied reading secret: %v", ErrUnauthorized, err)
			}
		}
		return "", err
	}

	value := aws.ToString(out.SecretString)
	if value == "" {
		return "", errors.New("secret has no string value")
	}
	// secrets may hold a JSON object of several keys
	if parsed := gjson.Parse(value); parsed.IsObject() {
		field := parsed.Get(SecretAPIKeyField)
		if !field.Exists() || field.String() == "" {
			return "", fmt.Errorf("secret is a JSON object without a %s field", SecretAPIKeyField)
		}
		return field.String(), nil
	}
	return value, nil
}
