package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

type CaptureUseCase struct {
	provider interfaces.TranscriptionProvider
	cases    *CaseUseCase
	notes    *NoteUseCase
	opts     []CaptureOption
}

func NewCaptureUseCase(provider interfaces.TranscriptionProvider, cases *CaseUseCase, notes *NoteUseCase, opts ...CaptureOption) *CaptureUseCase {
	return &CaptureUseCase{
		provider: provider,
		cases:    cases,
		notes:    notes,
		opts:     opts,
	}
}

// Open prepares a capture session on a case owned by the current user.
// Audio comes from mic and notifications go to sink.
func (uc *CaptureUseCase) Open(ctx context.Context, caseID model.CaseID, mic interfaces.Microphone, sink interfaces.CaptureSink) (*CaptureSession, error) {
	if uc.provider == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "speech recognition is not configured")
	}

	c, err := uc.cases.getOwned(ctx, caseID)
	if err != nil {
		return nil, err
	}

	history := NewActionHistory(c.Actions)
	opts := make([]CaptureOption, 0, len(uc.opts)+1)
	opts = append(opts, uc.opts...)
	if sink != nil {
		opts = append(opts, WithCaptureSink(sink))
	}

	return &CaptureSession{
		caseID:     c.ID,
		controller: NewCaptureController(mic, uc.provider, history, opts...),
		history:    history,
		cases:      uc.cases,
		notes:      uc.notes,
	}, nil
}

// CaptureSession binds a capture controller to one case with its
// unsaved action history.
type CaptureSession struct {
	caseID     model.CaseID
	controller *CaptureController
	history    *ActionHistory
	cases      *CaseUseCase
	notes      *NoteUseCase
}

func (s *CaptureSession) CaseID() model.CaseID {
	return s.caseID
}

func (s *CaptureSession) Controller() *CaptureController {
	return s.controller
}

func (s *CaptureSession) History() *ActionHistory {
	return s.history
}

func (s *CaptureSession) Start(ctx context.Context) error {
	return s.controller.Start(ctx)
}

func (s *CaptureSession) Stop(ctx context.Context) (*model.CaseAction, error) {
	return s.controller.Stop(ctx)
}

// GenerateNote summarizes the newest recording of the session's history
// and prepends the resulting soap_note action.
func (s *CaptureSession) GenerateNote(ctx context.Context, templateID string) (*model.CaseAction, error) {
	if s.notes == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "note generation is not configured")
	}

	recording, ok := s.history.Latest(types.ActionKindRecording)
	if !ok {
		return nil, goerr.Wrap(ErrNothingToSummarize, "no recording in case history", goerr.V(CaseIDKey, s.caseID))
	}

	action, err := s.notes.GenerateSOAPNote(ctx, s.caseID, templateID, recording.Transcript)
	if err != nil {
		return nil, err
	}

	s.history.Prepend(*action)
	return action, nil
}

// Save persists the session's action history to the case
func (s *CaptureSession) Save(ctx context.Context) (*model.Case, error) {
	saved, err := s.cases.SaveActions(ctx, s.caseID, s.history.Snapshot())
	if err != nil {
		return nil, err
	}
	s.history.Replace(saved.Actions)
	return saved, nil
}

// Close stops a recording that is still running. Its transcript is
// committed to the history but not saved.
func (s *CaptureSession) Close(ctx context.Context) error {
	if s.controller.State() == types.CaptureStateIdle {
		return nil
	}
	if _, err := s.controller.Stop(ctx); err != nil && !errors.Is(err, ErrNoActiveCapture) {
		return err
	}
	return nil
}
