package model

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// EmailMessage is an outbound transactional email. At least one of HTML
// or Text must be set.
type EmailMessage struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

// ErrInvalidEmail is the base error for EmailMessage.Validate failures
var ErrInvalidEmail = goerr.New("invalid email message")

func (m *EmailMessage) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return goerr.Wrap(ErrInvalidEmail, "invalid recipient address", goerr.V("to", m.To))
	}
	if _, err := mail.ParseAddress(m.From); err != nil {
		return goerr.Wrap(ErrInvalidEmail, "invalid sender address", goerr.V("from", m.From))
	}
	if strings.TrimSpace(m.Subject) == "" {
		return goerr.Wrap(ErrInvalidEmail, "subject is required")
	}
	if strings.TrimSpace(m.HTML) == "" && strings.TrimSpace(m.Text) == "" {
		return goerr.Wrap(ErrInvalidEmail, "html or text body is required")
	}
	return nil
}

// EmailRecord is the log entry kept for every send attempt
type EmailRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Success   bool      `json:"success"`
	Response  string    `json:"response,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewEmailRecord(userID string, msg *EmailMessage) *EmailRecord {
	return &EmailRecord{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		To:        msg.To,
		Subject:   msg.Subject,
		CreatedAt: time.Now().UTC(),
	}
}

// EmailResult is what a provider reports after accepting or rejecting a send
type EmailResult struct {
	StatusCode int
	Body       string
	MessageID  string
}
