package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

// Slack configures case notifications to a Slack channel
type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for case notifications",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("PAWNOTES_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID receiving case notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("PAWNOTES_SLACK_CHANNEL_ID"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel-id", x.channelID),
	)
}

// IsConfigured checks if Slack configuration is complete
func (x *Slack) IsConfigured() bool {
	return x.botToken != "" && x.channelID != ""
}

// Configure creates the notifier. Returns nil when Slack is not
// configured; a partial configuration is an error.
func (x *Slack) Configure(baseURL string) (*slack.Notifier, error) {
	if x.botToken == "" && x.channelID == "" {
		return nil, nil
	}
	if !x.IsConfigured() {
		return nil, goerr.Wrap(ErrMissingConfiguration, "both --slack-bot-token and --slack-channel-id are required for notifications")
	}

	notifier, err := slack.New(x.botToken, x.channelID, slack.WithBaseURL(baseURL))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Slack notifier")
	}
	return notifier, nil
}
