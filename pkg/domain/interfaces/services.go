package interfaces

import (
	"context"

	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

// CaptureSink receives capture session notifications. Calls are
// serialized by the controller.
type CaptureSink interface {
	StateChanged(state types.CaptureState, reason types.CaptureReason)
	TranscriptChanged(display string)
	ElapsedChanged(seconds int)
	CaptureError(code types.CaptureErrorCode, detail string)
	ActionCommitted(action model.CaseAction)
}

// NoteGenerator turns a consultation transcript into a SOAP note
type NoteGenerator interface {
	GenerateSOAP(ctx context.Context, tmpl *model.NoteTemplate, c *model.Case, transcript string) (*model.SOAPNote, error)
}

// Assistant answers free-form questions from clinic staff
type Assistant interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Notifier posts case events to a chat channel
type Notifier interface {
	NotifyStatusChanged(ctx context.Context, c *model.Case, from types.CaseStatus) error
	NotifyNoteGenerated(ctx context.Context, c *model.Case, note *model.SOAPNote) error
}

// Archiver writes a case export to object storage and returns its location
type Archiver interface {
	Export(ctx context.Context, c *model.Case) (string, error)
}
