package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

// ActionID identifies a case action
type ActionID string

func NewActionID() ActionID {
	return ActionID(uuid.Must(uuid.NewV7()).String())
}

func (id ActionID) String() string {
	return string(id)
}

// SOAPNote is a structured clinical note
type SOAPNote struct {
	Subjective string `json:"subjective"`
	Objective  string `json:"objective"`
	Assessment string `json:"assessment"`
	Plan       string `json:"plan"`
}

// IsEmpty reports whether all four sections are blank
func (n SOAPNote) IsEmpty() bool {
	return strings.TrimSpace(n.Subjective+n.Objective+n.Assessment+n.Plan) == ""
}

// CaseAction is an entry in a case's action history. Exactly one body is
// set, selected by Kind.
type CaseAction struct {
	ID         ActionID         `json:"id"`
	Kind       types.ActionKind `json:"kind"`
	CreatedAt  time.Time        `json:"created_at"`
	Transcript string           `json:"transcript,omitempty"`
	SOAP       *SOAPNote        `json:"soap,omitempty"`
}

// NewRecordingAction creates a recording action holding transcript.
func NewRecordingAction(transcript string) CaseAction {
	return CaseAction{
		ID:         NewActionID(),
		Kind:       types.ActionKindRecording,
		CreatedAt:  time.Now().UTC(),
		Transcript: transcript,
	}
}

// NewSOAPNoteAction creates a soap_note action holding note.
func NewSOAPNoteAction(note SOAPNote) CaseAction {
	return CaseAction{
		ID:        NewActionID(),
		Kind:      types.ActionKindSOAPNote,
		CreatedAt: time.Now().UTC(),
		SOAP:      &note,
	}
}

// ErrInvalidAction is the base error for CaseAction.Validate failures
var ErrInvalidAction = goerr.New("invalid case action")

func (a CaseAction) Validate() error {
	if a.ID == "" {
		return goerr.Wrap(ErrInvalidAction, "action ID is required")
	}
	switch a.Kind {
	case types.ActionKindRecording:
		if a.SOAP != nil {
			return goerr.Wrap(ErrInvalidAction, "recording action must not carry a SOAP note", goerr.V("id", a.ID))
		}
	case types.ActionKindSOAPNote:
		if a.SOAP == nil {
			return goerr.Wrap(ErrInvalidAction, "soap_note action requires a SOAP note", goerr.V("id", a.ID))
		}
		if a.Transcript != "" {
			return goerr.Wrap(ErrInvalidAction, "soap_note action must not carry a transcript", goerr.V("id", a.ID))
		}
	default:
		return goerr.Wrap(ErrInvalidAction, "unknown action kind", goerr.V("id", a.ID), goerr.V("kind", a.Kind))
	}
	return nil
}

// CopyActions returns a deep copy of actions. A nil slice stays nil.
func CopyActions(actions []CaseAction) []CaseAction {
	if actions == nil {
		return nil
	}
	copied := make([]CaseAction, len(actions))
	for i, a := range actions {
		copied[i] = a
		if a.SOAP != nil {
			note := *a.SOAP
			copied[i].SOAP = &note
		}
	}
	return copied
}
