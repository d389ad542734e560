package email

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	DefaultHost  = "https://api.sendgrid.com"
	sendEndpoint = "/v3/mail/send"
)

// ErrRejected is returned when SendGrid answers with a non-2xx status
var ErrRejected = goerr.New("email rejected by provider")

// SendGrid delivers email through the SendGrid v3 mail API
type SendGrid struct {
	apiKey   string
	host     string
	fromName string
}

var _ interfaces.EmailSender = &SendGrid{}

type Option func(*SendGrid)

// WithHost overrides the API host
func WithHost(host string) Option {
	return func(s *SendGrid) {
		s.host = host
	}
}

// WithFromName sets the display name shown with the sender address
func WithFromName(name string) Option {
	return func(s *SendGrid) {
		s.fromName = name
	}
}

func New(apiKey string, opts ...Option) (*SendGrid, error) {
	if apiKey == "" {
		return nil, goerr.New("SendGrid API key is required")
	}

	s := &SendGrid{
		apiKey: apiKey,
		host:   DefaultHost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *SendGrid) Send(ctx context.Context, msg *model.EmailMessage) (*model.EmailResult, error) {
	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(s.fromName, msg.From))
	m.Subject = msg.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", msg.To))
	m.AddPersonalizations(p)

	// text/plain must precede text/html
	if msg.Text != "" {
		m.AddContent(mail.NewContent("text/plain", msg.Text))
	}
	if msg.HTML != "" {
		m.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	req := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	req.Method = "POST"
	req.Body = mail.GetRequestBody(m)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call SendGrid", goerr.V("to", msg.To))
	}

	result := &model.EmailResult{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(resp.Body),
		MessageID:  firstHeader(resp.Headers, "X-Message-Id"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, goerr.Wrap(ErrRejected, "SendGrid returned an error status",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", result.Body),
			goerr.V("to", msg.To))
	}

	logging.From(ctx).Info("email sent",
		slog.Int("status", resp.StatusCode),
		slog.String("message_id", result.MessageID))
	return result, nil
}

func firstHeader(headers map[string][]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
