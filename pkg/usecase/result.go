package usecase

import "errors"

// Result is the uniform outcome envelope of every server-side action.
// Handlers embed it in their response bodies.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func Succeeded() Result {
	return Result{Success: true}
}

// Failed builds a failure result with a message safe to show to users.
func Failed(err error) Result {
	return Result{Error: ErrorMessage(err)}
}

// ErrorMessage returns the user-facing message for err. Errors outside
// the taxonomy are reported as an internal error without detail.
func ErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return ErrUnauthorized.Error()
	case errors.Is(err, ErrUpstream):
		return ErrUpstream.Error()
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInvalidStatusTransition),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrCaseNotFound),
		errors.Is(err, ErrTemplateNotFound),
		errors.Is(err, ErrCaptureInProgress),
		errors.Is(err, ErrNoActiveCapture),
		errors.Is(err, ErrCaptureAborted),
		errors.Is(err, ErrMicrophone),
		errors.Is(err, ErrNothingToSummarize),
		errors.Is(err, ErrNotConfigured):
		return err.Error()
	default:
		return "internal server error"
	}
}
