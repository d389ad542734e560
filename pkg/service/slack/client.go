package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// maxSectionBytes is the Block Kit limit for a section text object
const maxSectionBytes = 3000

// Notifier posts case events to a single Slack channel
type Notifier struct {
	api       *slack.Client
	channelID string
	baseURL   string
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*options)

type options struct {
	baseURL   string
	slackOpts []slack.Option
}

// WithBaseURL sets the frontend URL used to link to cases
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(url, "/")
	}
}

// WithAPIURL points the client at a different Slack API endpoint
func WithAPIURL(url string) Option {
	return func(o *options) {
		o.slackOpts = append(o.slackOpts, slack.OptionAPIURL(url))
	}
}

// New creates a Notifier posting with the given bot token
func New(token, channelID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	return &Notifier{
		api:       slack.New(token, o.slackOpts...),
		channelID: channelID,
		baseURL:   o.baseURL,
	}, nil
}

// NotifyStatusChanged posts a status transition for c
func (n *Notifier) NotifyStatusChanged(ctx context.Context, c *model.Case, from types.CaseStatus) error {
	text := fmt.Sprintf("Case %s moved from %s to %s", c.Name, from, c.Status)
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*%s* moved from `%s` to `%s`", n.caseTitle(c), from, c.Status), false, false),
			nil, nil),
		n.contextBlock(c),
	}
	return n.post(ctx, c, blocks, text)
}

// NotifyNoteGenerated posts the generated SOAP note for c
func (n *Notifier) NotifyNoteGenerated(ctx context.Context, c *model.Case, note *model.SOAPNote) error {
	text := fmt.Sprintf("SOAP note generated for %s", c.Name)
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "SOAP note: "+c.Name, false, false)),
	}
	for _, sec := range []struct {
		title string
		body  string
	}{
		{"Subjective", note.Subjective},
		{"Objective", note.Objective},
		{"Assessment", note.Assessment},
		{"Plan", note.Plan},
	} {
		body := strings.TrimSpace(sec.body)
		if body == "" {
			body = "_none_"
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				truncateToMaxBytes(fmt.Sprintf("*%s*\n%s", sec.title, body), maxSectionBytes), false, false),
			nil, nil))
	}
	blocks = append(blocks, n.contextBlock(c))
	return n.post(ctx, c, blocks, text)
}

func (n *Notifier) post(ctx context.Context, c *model.Case, blocks []slack.Block, text string) error {
	_, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post Slack message",
			goerr.V("channel_id", n.channelID),
			goerr.V("case_id", c.ID))
	}

	logging.From(ctx).Debug("posted Slack notification",
		slog.String("case_id", c.ID.String()),
		slog.String("ts", ts))
	return nil
}

func (n *Notifier) caseTitle(c *model.Case) string {
	if n.baseURL == "" {
		return c.Name
	}
	return fmt.Sprintf("<%s/cases/%s|%s>", n.baseURL, c.ID, c.Name)
}

func (n *Notifier) contextBlock(c *model.Case) slack.Block {
	parts := []string{string(c.Type)}
	if len(c.AssignedStaff) > 0 {
		parts = append(parts, strings.Join(c.AssignedStaff, ", "))
	}
	if !c.Timestamp.IsZero() {
		parts = append(parts, c.Timestamp.Format("2006-01-02 15:04"))
	}
	return slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(parts, " | "), false, false))
}

// truncateToMaxBytes cuts s to at most maxBytes without splitting a
// UTF-8 sequence, appending an ellipsis when truncated
func truncateToMaxBytes(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	const ellipsis = "…"
	limit := maxBytes - len(ellipsis)
	if limit <= 0 {
		return ""
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + ellipsis
}
