package interfaces

import (
	"context"

	"github.com/pawnotes/pawnotes/pkg/domain/model"
)

// EmailRepository keeps the log of email send attempts
type EmailRepository interface {
	Create(ctx context.Context, record *model.EmailRecord) error
	// ListByUser returns records for userID, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.EmailRecord, error)
}

// EmailSender delivers a message through a hosted email provider
type EmailSender interface {
	Send(ctx context.Context, msg *model.EmailMessage) (*model.EmailResult, error)
}
