package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/service/email"
	"github.com/urfave/cli/v3"
)

// SendGrid configures transactional email
type SendGrid struct {
	apiKey   string
	from     string
	fromName string
}

func (x *SendGrid) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sendgrid-api-key",
			Usage:       "SendGrid API key",
			Category:    "Email",
			Sources:     cli.EnvVars("PAWNOTES_SENDGRID_API_KEY"),
			Destination: &x.apiKey,
		},
		&cli.StringFlag{
			Name:        "email-from",
			Usage:       "Default sender address",
			Category:    "Email",
			Sources:     cli.EnvVars("PAWNOTES_EMAIL_FROM"),
			Destination: &x.from,
		},
		&cli.StringFlag{
			Name:        "email-from-name",
			Usage:       "Display name of the default sender",
			Category:    "Email",
			Value:       "PawNotes",
			Sources:     cli.EnvVars("PAWNOTES_EMAIL_FROM_NAME"),
			Destination: &x.fromName,
		},
	}
}

func (x SendGrid) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.apiKey != ""),
		slog.String("from", x.from),
	)
}

// From returns the default sender address
func (x *SendGrid) From() string {
	return x.from
}

// Configure creates the sender. Returns nil without an API key.
func (x *SendGrid) Configure() (*email.SendGrid, error) {
	if x.apiKey == "" {
		return nil, nil
	}

	sender, err := email.New(x.apiKey, email.WithFromName(x.fromName))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create SendGrid sender")
	}
	return sender, nil
}
