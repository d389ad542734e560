package soap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
)

// ErrEmptyResponse is returned when the LLM answers with no text
var ErrEmptyResponse = goerr.New("LLM returned an empty response")

// Client generates SOAP notes and answers staff questions with an LLM
type Client struct {
	llmClient       gollem.LLMClient
	assistantPrompt string
}

var (
	_ interfaces.NoteGenerator = &Client{}
	_ interfaces.Assistant     = &Client{}
)

// Option is a functional option for client configuration
type Option func(*Client)

// WithAssistantPrompt replaces the system prompt used by Ask
func WithAssistantPrompt(prompt string) Option {
	return func(c *Client) {
		c.assistantPrompt = prompt
	}
}

// New creates a SOAP note service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (*Client, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &Client{
		llmClient:       llmClient,
		assistantPrompt: defaultAssistantPrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GenerateSOAP summarizes transcript into a SOAP note following tmpl
func (c *Client) GenerateSOAP(ctx context.Context, tmpl *model.NoteTemplate, cs *model.Case, transcript string) (*model.SOAPNote, error) {
	if tmpl == nil {
		return nil, goerr.New("note template is required")
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(soapSchema()),
		gollem.WithSessionSystemPrompt(buildSystemPrompt(tmpl)),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(buildUserPrompt(cs, transcript))})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate SOAP note", goerr.V("template_id", tmpl.ID))
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, goerr.Wrap(ErrEmptyResponse, "no SOAP note returned", goerr.V("template_id", tmpl.ID))
	}

	var note model.SOAPNote
	raw := strings.Join(resp.Texts, "")
	if err := json.Unmarshal([]byte(trimCodeFence(raw)), &note); err != nil {
		return nil, goerr.Wrap(err, "failed to parse SOAP note", goerr.V("response", raw))
	}

	logging.From(ctx).Debug("SOAP note generated",
		slog.String("template_id", tmpl.ID),
		slog.Int("transcript_length", len(transcript)))
	return &note, nil
}

// Ask answers a free-form question from clinic staff
func (c *Client) Ask(ctx context.Context, message string) (string, error) {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionSystemPrompt(c.assistantPrompt),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(message)})
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate assistant response")
	}
	if resp == nil {
		return "", goerr.Wrap(ErrEmptyResponse, "no assistant response")
	}

	answer := strings.TrimSpace(strings.Join(resp.Texts, "\n"))
	if answer == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "no assistant response")
	}
	return answer, nil
}

const defaultAssistantPrompt = `You are an assistant for staff at a veterinary clinic.
Answer questions about animal health, clinical procedures, medications and clinic workflow concisely.
When a question needs an in-person examination or a diagnosis you cannot make from text, say so.
Do not invent dosages; state the usual range only when you are confident and recommend confirming with a formulary.`

var sectionOrder = []string{"subjective", "objective", "assessment", "plan"}

// buildSystemPrompt creates the system prompt from the template's
// instructions and per-section guidance
func buildSystemPrompt(tmpl *model.NoteTemplate) string {
	var sb strings.Builder

	sb.WriteString("You are a veterinary scribe. Convert the consultation transcript into a SOAP note.\n\n")
	sb.WriteString("## Rules:\n\n")
	sb.WriteString("1. Use only information present in the transcript. Leave a section empty if the transcript has nothing for it.\n")
	sb.WriteString("2. Write in the same language as the transcript.\n")
	sb.WriteString("3. Use concise clinical wording. Bullet points are allowed inside a section.\n")

	if tmpl.Instructions != "" {
		sb.WriteString("\n## Template: ")
		sb.WriteString(tmpl.Name)
		sb.WriteString("\n\n")
		sb.WriteString(tmpl.Instructions)
		sb.WriteString("\n")
	}

	if len(tmpl.Sections) > 0 {
		sb.WriteString("\n## Section guidance:\n\n")
		for _, key := range orderedSections(tmpl.Sections) {
			fmt.Fprintf(&sb, "- %s: %s\n", key, tmpl.Sections[key])
		}
	}

	return sb.String()
}

// orderedSections returns the SOAP keys first in S-O-A-P order followed
// by any extra keys sorted by name
func orderedSections(sections map[string]string) []string {
	keys := make([]string, 0, len(sections))
	seen := make(map[string]bool)
	for _, k := range sectionOrder {
		if _, ok := sections[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range sections {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

func buildUserPrompt(cs *model.Case, transcript string) string {
	var sb strings.Builder

	if cs != nil {
		sb.WriteString("## Case:\n\n")
		fmt.Fprintf(&sb, "**Patient:** %s\n", cs.Name)
		fmt.Fprintf(&sb, "**Encounter type:** %s\n", cs.Type)
		if !cs.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "**Date:** %s\n", cs.Timestamp.Format("2006-01-02 15:04"))
		}
		if len(cs.AssignedStaff) > 0 {
			fmt.Fprintf(&sb, "**Staff:** %s\n", strings.Join(cs.AssignedStaff, ", "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Transcript:\n\n")
	sb.WriteString(transcript)
	sb.WriteString("\n")

	return sb.String()
}

func soapSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "SOAPNote",
		Description: "A veterinary SOAP note",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"subjective": {
				Type:        gollem.TypeString,
				Description: "History and owner-reported signs",
				Required:    true,
			},
			"objective": {
				Type:        gollem.TypeString,
				Description: "Examination findings, vitals and test results",
				Required:    true,
			},
			"assessment": {
				Type:        gollem.TypeString,
				Description: "Diagnosis or differential diagnoses",
				Required:    true,
			},
			"plan": {
				Type:        gollem.TypeString,
				Description: "Treatment, medication, follow-up and client instructions",
				Required:    true,
			},
		},
	}
}

// trimCodeFence strips a ```json fence some models wrap JSON output in
func trimCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
