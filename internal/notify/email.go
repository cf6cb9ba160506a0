package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/clinicbook/clinicbook-api/pkg/logging"
)

const defaultFromName = "Clinic Booking"

// EmailSender hands one patient email to a delivery provider.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a rendered patient email. Kind and BookingID travel to the
// provider as category/tag metadata so bounces can be traced to a booking.
type EmailMessage struct {
	To        string
	ToName    string
	Subject   string
	Body      string
	HTML      string
	Kind      string
	BookingID string
}

// From is the clinic's sending identity.
type From struct {
	Email string
	Name  string
}

func (f From) withDefaults() From {
	if strings.TrimSpace(f.Name) == "" {
		f.Name = defaultFromName
	}
	return f
}

func (f From) address() string {
	return fmt.Sprintf("%s <%s>", f.Name, f.Email)
}

// SendGridConfig configures the SendGrid v3 sender.
type SendGridConfig struct {
	APIKey string
	From   From
}

// SendGridSender delivers clinic email through SendGrid.
type SendGridSender struct {
	client *sendgrid.Client
	from   From
	logger *logging.Logger
}

// NewSendGridSender returns nil without an API key so callers can fall back.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(cfg.APIKey),
		from:   cfg.From.withDefaults(),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid sender not configured")
	}

	message := sendGridMessage(s.from, msg)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid %s: %w", msg.Kind, err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("sendgrid rejected email", "kind", msg.Kind, "booking_id", msg.BookingID, "status", resp.StatusCode)
		return fmt.Errorf("notify: sendgrid %s: status %d", msg.Kind, resp.StatusCode)
	}
	s.logger.Debug("sendgrid accepted email", "kind", msg.Kind, "booking_id", msg.BookingID)
	return nil
}

func sendGridMessage(from From, msg EmailMessage) *mail.SGMailV3 {
	html := msg.HTML
	if html == "" {
		html = msg.Body
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(from.Name, from.Email),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		html,
	)
	if msg.Kind != "" {
		message.AddCategories(msg.Kind)
	}
	if msg.BookingID != "" {
		message.SetCustomArg("booking_id", msg.BookingID)
	}
	return message
}

// LogSender records emails in the log instead of delivering them. It stands
// in whenever no provider is configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email not delivered: no provider configured",
		"kind", msg.Kind, "booking_id", msg.BookingID, "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*LogSender)(nil)
)
