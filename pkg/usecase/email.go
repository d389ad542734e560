package usecase

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/utils/errutil"
)

const defaultEmailListLimit = 50

type EmailUseCase struct {
	repo   interfaces.Repository
	sender interfaces.EmailSender
	from   string
}

func NewEmailUseCase(repo interfaces.Repository, sender interfaces.EmailSender, from string) *EmailUseCase {
	return &EmailUseCase{
		repo:   repo,
		sender: sender,
		from:   from,
	}
}

// Send validates and delivers msg, and logs the attempt. The returned
// record describes the provider's answer even when sending failed.
func (uc *EmailUseCase) Send(ctx context.Context, msg *model.EmailMessage) (*model.EmailRecord, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	if uc.sender == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "email sending is not configured")
	}

	m := *msg
	if m.From == "" {
		m.From = uc.from
	}
	if err := m.Validate(); err != nil {
		return nil, goerr.Wrap(ErrValidation, err.Error())
	}

	record := model.NewEmailRecord(user.Sub, &m)
	result, sendErr := uc.sender.Send(ctx, &m)
	record.Response = describeEmailResult(result)
	if sendErr != nil {
		record.Error = sendErr.Error()
	} else {
		record.Success = true
	}

	if err := uc.repo.Email().Create(ctx, record); err != nil {
		errutil.Handle(ctx, goerr.Wrap(err, "failed to store email record", goerr.V("email_id", record.ID)), "email log write failed")
	}

	if sendErr != nil {
		return record, goerr.Wrap(ErrUpstream, "failed to send email",
			goerr.V("email_id", record.ID),
			goerr.V("error", sendErr.Error()))
	}
	return record, nil
}

// List returns the current user's send log, newest first
func (uc *EmailUseCase) List(ctx context.Context, limit int) ([]*model.EmailRecord, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultEmailListLimit
	}

	records, err := uc.repo.Email().ListByUser(ctx, user.Sub, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list email records", goerr.V(UserIDKey, user.Sub))
	}
	return records, nil
}

func describeEmailResult(result *model.EmailResult) string {
	if result == nil {
		return ""
	}
	if result.MessageID != "" {
		return fmt.Sprintf("%d %s", result.StatusCode, result.MessageID)
	}
	return fmt.Sprintf("%d", result.StatusCode)
}
