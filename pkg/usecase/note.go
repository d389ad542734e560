package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/utils/async"
)

type NoteUseCase struct {
	cases      *CaseUseCase
	generator  interfaces.NoteGenerator
	templates  *model.TemplateRegistry
	notifier   interfaces.Notifier
	dispatcher *async.Dispatcher
}

func NewNoteUseCase(cases *CaseUseCase, generator interfaces.NoteGenerator, templates *model.TemplateRegistry, notifier interfaces.Notifier, dispatcher *async.Dispatcher) *NoteUseCase {
	if templates == nil {
		templates = model.NewTemplateRegistry()
	}
	if dispatcher == nil {
		dispatcher = async.NewDispatcher()
	}
	return &NoteUseCase{
		cases:      cases,
		generator:  generator,
		templates:  templates,
		notifier:   notifier,
		dispatcher: dispatcher,
	}
}

// GenerateSOAPNote summarizes transcript into a soap_note action for the
// case. The action is returned, not persisted; callers add it to the
// case's history and save it. An empty templateID selects the default
// template.
func (uc *NoteUseCase) GenerateSOAPNote(ctx context.Context, caseID model.CaseID, templateID string, transcript string) (*model.CaseAction, error) {
	if uc.generator == nil {
		return nil, goerr.Wrap(ErrNotConfigured, "note generation is not configured")
	}

	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, goerr.Wrap(ErrNothingToSummarize, "transcript is empty", goerr.V(CaseIDKey, caseID))
	}

	c, err := uc.cases.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}

	tmpl, err := uc.template(templateID)
	if err != nil {
		return nil, err
	}

	note, err := uc.generator.GenerateSOAP(ctx, tmpl, c, transcript)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "failed to generate SOAP note",
			goerr.V(CaseIDKey, caseID),
			goerr.V(TemplateIDKey, tmpl.ID),
			goerr.V("error", err.Error()))
	}
	if note == nil || note.IsEmpty() {
		return nil, goerr.Wrap(ErrUpstream, "generated SOAP note is empty",
			goerr.V(CaseIDKey, caseID),
			goerr.V(TemplateIDKey, tmpl.ID))
	}

	action := model.NewSOAPNoteAction(*note)

	if uc.notifier != nil {
		notified := c.Copy()
		generated := *note
		uc.dispatcher.Dispatch(ctx, "notify_note_generated", func(ctx context.Context) error {
			return uc.notifier.NotifyNoteGenerated(ctx, notified, &generated)
		})
	}

	return &action, nil
}

// Templates returns the registered note templates
func (uc *NoteUseCase) Templates() []*model.NoteTemplate {
	return uc.templates.List()
}

func (uc *NoteUseCase) template(id string) (*model.NoteTemplate, error) {
	if id == "" {
		tmpl := uc.templates.Default()
		if tmpl == nil {
			return nil, goerr.Wrap(ErrTemplateNotFound, "no note template is registered")
		}
		return tmpl, nil
	}

	tmpl, err := uc.templates.Get(id)
	if err != nil {
		if errors.Is(err, model.ErrTemplateNotFound) {
			return nil, goerr.Wrap(ErrTemplateNotFound, "note template not found", goerr.V(TemplateIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get note template", goerr.V(TemplateIDKey, id))
	}
	return tmpl, nil
}
