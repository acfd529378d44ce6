package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is a single outbound email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// Mailer delivers email messages. Delivery is synchronous; retry and
// fan-out are handled by the outbox workers calling it.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds sender identity and backend selection.
type Config struct {
	FromName    string
	FromAddress string
	SendgridKey string
}

// New picks the SendGrid backend when a key is configured and falls back to
// the console backend otherwise.
func New(cfg Config, logger *zap.Logger) Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendgridKey != "" {
		return &sendgridMailer{cfg: cfg, logger: logger}
	}
	return &consoleMailer{cfg: cfg, logger: logger}
}

// consoleMailer writes the message to the log instead of sending it.
type consoleMailer struct {
	cfg    Config
	logger *zap.Logger
}

func (m *consoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Sugar().Infow("email (console backend)",
		"from", fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.FromAddress),
		"to", fmt.Sprintf("%s <%s>", msg.ToName, msg.ToAddress),
		"subject", msg.Subject,
		"body", msg.TextBody,
	)
	return nil
}

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridMailer struct {
	cfg    Config
	logger *zap.Logger
}

func (m *sendgridMailer) Send(_ context.Context, msg Message) error {
	from := sgmail.NewEmail(m.cfg.FromName, m.cfg.FromAddress)
	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)

	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(to)

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	if msg.HTMLBody != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}

	req := sendgrid.GetRequest(m.cfg.SendgridKey, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(v3)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
