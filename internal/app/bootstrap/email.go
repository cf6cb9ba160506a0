package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/clinicbook/clinicbook-api/internal/config"
	"github.com/clinicbook/clinicbook-api/internal/notify"
	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// AWSConfigLoader loads SDK configuration; cmd/mainconfig.LoadAWSConfig in
// production.
type AWSConfigLoader func(ctx context.Context, cfg *appconfig.Config) (aws.Config, error)

// BuildEmailSender selects the outbound email provider. "auto" prefers
// SendGrid when an API key is set, then SES when a sender address is set.
// Anything unusable falls back to the log-only sender so bookings never fail on
// email configuration.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, loadAWS AWSConfigLoader) notify.EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewLogSender(logger)
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.EmailProvider))
	if provider == "" || provider == "auto" {
		switch {
		case cfg.SendGridAPIKey != "":
			provider = "sendgrid"
		case cfg.SESFromEmail != "":
			provider = "ses"
		default:
			provider = "stub"
		}
	}

	switch provider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey: cfg.SendGridAPIKey,
			From:   notify.From{Email: cfg.SendGridFromEmail, Name: cfg.SendGridFromName},
		}, logger)
		if sender != nil {
			logger.Info("email provider configured", "provider", "sendgrid")
			return sender
		}
		logger.Warn("sendgrid selected without SENDGRID_API_KEY; using log-only sender")
	case "ses":
		if loadAWS == nil || cfg.SESFromEmail == "" {
			logger.Warn("ses selected without SES_FROM_EMAIL; using log-only sender")
			break
		}
		awsCfg, err := loadAWS(ctx, cfg)
		if err != nil {
			logger.Warn("failed to load AWS config for SES; using log-only sender", "error", err)
			break
		}
		logger.Info("email provider configured", "provider", "ses", "region", awsCfg.Region)
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			From:             notify.From{Email: cfg.SESFromEmail, Name: cfg.SESFromName},
			ConfigurationSet: cfg.SESConfigSet,
		}, logger)
	case "stub":
	default:
		logger.Warn("unknown email provider; using log-only sender", "provider", provider)
	}
	return notify.NewLogSender(logger)
}
