package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
)

type AssistantUseCase struct {
	assistant interfaces.Assistant
}

func NewAssistantUseCase(assistant interfaces.Assistant) *AssistantUseCase {
	return &AssistantUseCase{assistant: assistant}
}

// Ask forwards a staff question to the assistant and returns its answer
func (uc *AssistantUseCase) Ask(ctx context.Context, message string) (string, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return "", err
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", goerr.Wrap(ErrValidation, "message is required")
	}
	if uc.assistant == nil {
		return "", goerr.Wrap(ErrNotConfigured, "assistant is not configured")
	}

	answer, err := uc.assistant.Ask(ctx, message)
	if err != nil {
		return "", goerr.Wrap(ErrUpstream, "assistant request failed",
			goerr.V(UserIDKey, user.Sub),
			goerr.V("error", err.Error()))
	}
	return answer, nil
}
