package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

// SESAPI is satisfied by *sesv2.Client.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures the SES sender. ConfigurationSet is optional and
// routes delivery events to the clinic's SES event destination.
type SESConfig struct {
	From             From
	ConfigurationSet string
}

// SESSender delivers clinic email through SES v2.
type SESSender struct {
	client SESAPI
	cfg    SESConfig
	logger *logging.Logger
}

func NewSESSender(client SESAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg.From = cfg.From.withDefaults()
	return &SESSender{client: client, cfg: cfg, logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: ses sender not configured")
	}

	out, err := s.client.SendEmail(ctx, s.input(msg))
	if err != nil {
		return fmt.Errorf("notify: ses %s: %w", msg.Kind, err)
	}
	s.logger.Debug("ses accepted email", "kind", msg.Kind, "booking_id", msg.BookingID, "message_id", aws.ToString(out.MessageId))
	return nil
}

func (s *SESSender) input(msg EmailMessage) *sesv2.SendEmailInput {
	body := &types.Body{}
	if msg.Body != "" {
		body.Text = utf8Content(msg.Body)
	}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.cfg.From.address()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
		EmailTags: messageTags(msg),
	}
	if set := strings.TrimSpace(s.cfg.ConfigurationSet); set != "" {
		in.ConfigurationSetName = aws.String(set)
	}
	return in
}

func messageTags(msg EmailMessage) []types.MessageTag {
	var tags []types.MessageTag
	if msg.Kind != "" {
		tags = append(tags, types.MessageTag{Name: aws.String("kind"), Value: aws.String(msg.Kind)})
	}
	if msg.BookingID != "" {
		tags = append(tags, types.MessageTag{Name: aws.String("booking_id"), Value: aws.String(msg.BookingID)})
	}
	return tags
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)
