// Package mainconfig builds the AWS SDK configuration used by the SES email
// sender.
package mainconfig

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"

	appconfig "github.com/clinicbook/clinicbook-api/internal/config"
)

// sesMaxAttempts is 1: notifications are fire-and-forget and never retried,
// including inside the SDK.
const sesMaxAttempts = 1

// LoadAWSConfig resolves region and credentials for SES. Static keys win over
// the default chain when both halves are set. AWS_ENDPOINT_OVERRIDE points
// the client at a local SES emulator.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
		config.WithRetryMaxAttempts(sesMaxAttempts),
	}
	if provider, ok := staticCredentials(cfg); ok {
		opts = append(opts, config.WithCredentialsProvider(provider))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("mainconfig: load aws config: %w", err)
	}
	if endpoint := strings.TrimRight(strings.TrimSpace(cfg.AWSEndpointOverride), "/"); endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(endpoint)
	}
	return awsCfg, nil
}

func staticCredentials(cfg *appconfig.Config) (aws.CredentialsProvider, bool) {
	id := strings.TrimSpace(cfg.AWSAccessKeyID)
	secret := strings.TrimSpace(cfg.AWSSecretAccessKey)
	if id == "" || secret == "" {
		return nil, false
	}
	return credentials.NewStaticCredentialsProvider(id, secret, ""), true
}
