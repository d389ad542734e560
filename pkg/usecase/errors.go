package usecase

import "errors"

// Sentinel errors for use case layer. The HTTP controller maps each of
// them to a status code.
var (
	// Authentication and authorization
	ErrUnauthorized = errors.New("unauthorized")
	ErrAccessDenied = errors.New("access denied to private case")

	// Input validation
	ErrValidation              = errors.New("validation failed")
	ErrInvalidStatusTransition = errors.New("invalid case status transition")

	// Not found
	ErrCaseNotFound     = errors.New("case not found")
	ErrTemplateNotFound = errors.New("note template not found")

	// External service failures
	ErrUpstream = errors.New("upstream service failed")

	// Capture session
	ErrCaptureInProgress  = errors.New("capture already in progress")
	ErrNoActiveCapture    = errors.New("no active capture")
	ErrCaptureAborted     = errors.New("capture aborted before recording started")
	ErrMicrophone         = errors.New("microphone unavailable")
	ErrNothingToSummarize = errors.New("no transcript to summarize")

	// Features left unconfigured
	ErrNotConfigured = errors.New("feature not configured")
)

// Context keys for error values
const (
	CaseIDKey     = "case_id"
	ActionIDKey   = "action_id"
	TemplateIDKey = "template_id"
	UserIDKey     = "user_id"
	StatusKey     = "status"
)
