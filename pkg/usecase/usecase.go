package usecase

import (
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/utils/async"
)

type UseCases struct {
	repo       interfaces.Repository
	templates  *model.TemplateRegistry
	notifier   interfaces.Notifier
	archiver   interfaces.Archiver
	generator  interfaces.NoteGenerator
	assistant  interfaces.Assistant
	sender     interfaces.EmailSender
	emailFrom  string
	provider   interfaces.TranscriptionProvider
	captureOpt []CaptureOption
	dispatcher *async.Dispatcher

	Case      *CaseUseCase
	Note      *NoteUseCase
	Email     *EmailUseCase
	Assistant *AssistantUseCase
	Capture   *CaptureUseCase
	Auth      AuthUseCaseInterface
}

type Option func(*UseCases)

// WithTemplates sets the note templates available for SOAP generation
func WithTemplates(registry *model.TemplateRegistry) Option {
	return func(uc *UseCases) {
		uc.templates = registry
	}
}

// WithNotifier enables chat notifications for case events
func WithNotifier(notifier interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

// WithArchiver enables case export
func WithArchiver(archiver interfaces.Archiver) Option {
	return func(uc *UseCases) {
		uc.archiver = archiver
	}
}

// WithNoteGenerator enables SOAP note generation
func WithNoteGenerator(generator interfaces.NoteGenerator) Option {
	return func(uc *UseCases) {
		uc.generator = generator
	}
}

// WithAssistant enables the staff assistant
func WithAssistant(assistant interfaces.Assistant) Option {
	return func(uc *UseCases) {
		uc.assistant = assistant
	}
}

// WithEmailSender enables transactional email. from is used when a
// message does not carry its own sender.
func WithEmailSender(sender interfaces.EmailSender, from string) Option {
	return func(uc *UseCases) {
		uc.sender = sender
		uc.emailFrom = from
	}
}

// WithTranscriptionProvider enables live capture sessions
func WithTranscriptionProvider(provider interfaces.TranscriptionProvider, opts ...CaptureOption) Option {
	return func(uc *UseCases) {
		uc.provider = provider
		uc.captureOpt = opts
	}
}

// WithDispatcher sets the dispatcher for background notifications
func WithDispatcher(d *async.Dispatcher) Option {
	return func(uc *UseCases) {
		uc.dispatcher = d
	}
}

func WithAuth(auth AuthUseCaseInterface) Option {
	return func(uc *UseCases) {
		uc.Auth = auth
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.templates == nil {
		uc.templates = model.NewTemplateRegistry()
	}
	if uc.dispatcher == nil {
		uc.dispatcher = async.NewDispatcher()
	}
	if uc.Auth == nil {
		uc.Auth = NewNoAuthnUseCase(nil)
	}

	uc.Case = NewCaseUseCase(repo, uc.notifier, uc.archiver, uc.dispatcher)
	uc.Note = NewNoteUseCase(uc.Case, uc.generator, uc.templates, uc.notifier, uc.dispatcher)
	uc.Email = NewEmailUseCase(repo, uc.sender, uc.emailFrom)
	uc.Assistant = NewAssistantUseCase(uc.assistant)
	uc.Capture = NewCaptureUseCase(uc.provider, uc.Case, uc.Note, uc.captureOpt...)

	return uc
}

// Templates returns the registered note templates
func (uc *UseCases) Templates() []*model.NoteTemplate {
	return uc.templates.List()
}

// Dispatcher returns the dispatcher running background notifications
func (uc *UseCases) Dispatcher() *async.Dispatcher {
	return uc.dispatcher
}
