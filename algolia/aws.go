package algolia

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
)

// SecretsManagerClient is the subset of the Secrets Manager client used here.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecrets reads credentials stored at "{env}/algolia" as JSON with
// app_id and write_api_key fields.
func AWSSecrets(ctx context.Context, client SecretsManagerClient, env string) FetchSecrets {
	return func() (Secrets, error) {
		return fetchSecret(ctx, client, env+"/algolia")
	}
}

// AWSSecretsFromARN reads credentials from the secret with the given ARN.
func AWSSecretsFromARN(ctx context.Context, client SecretsManagerClient, secretARN string) FetchSecrets {
	return func() (Secrets, error) {
		return fetchSecret(ctx, client, secretARN)
	}
}

func fetchSecret(ctx context.Context, client SecretsManagerClient, secretID string) (Secrets, error) {
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return Secrets{}, errors.Wrapf(err, "failed to get secret %s", secretID)
	}
	if result.SecretString == nil {
		return Secrets{}, errors.Wrapf(cautela.ErrMissingConfig, "secret %s has no string value", secretID)
	}

	var secrets Secrets
	if err := json.Unmarshal([]byte(aws.ToString(result.SecretString)), &secrets); err != nil {
		return Secrets{}, errors.Wrapf(errors.Mark(err, cautela.ErrMissingConfig), "failed to decode secret %s", secretID)
	}
	return secrets, nil
}
