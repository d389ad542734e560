package model

import (
	"github.com/m-mizutani/goerr/v2"
)

// NoteTemplate configures how a SOAP note is generated from a transcript
type NoteTemplate struct {
	ID           string
	Name         string
	Description  string
	Instructions string
	// Sections holds per-section guidance keyed by subjective, objective,
	// assessment or plan.
	Sections map[string]string
}

// ErrTemplateNotFound is returned when a template is not found in the registry
var ErrTemplateNotFound = goerr.New("note template not found")

// TemplateRegistry holds note templates in registration order.
type TemplateRegistry struct {
	entries map[string]*NoteTemplate
	order   []string
}

func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		entries: make(map[string]*NoteTemplate),
	}
}

// Register adds a template, replacing any template with the same ID
func (r *TemplateRegistry) Register(tmpl *NoteTemplate) {
	if _, exists := r.entries[tmpl.ID]; !exists {
		r.order = append(r.order, tmpl.ID)
	}
	r.entries[tmpl.ID] = tmpl
}

// Get retrieves a template by ID
func (r *TemplateRegistry) Get(id string) (*NoteTemplate, error) {
	tmpl, ok := r.entries[id]
	if !ok {
		return nil, goerr.Wrap(ErrTemplateNotFound, "note template not found",
			goerr.V("template_id", id))
	}
	return tmpl, nil
}

// Default returns the first registered template, or nil when empty
func (r *TemplateRegistry) Default() *NoteTemplate {
	if len(r.order) == 0 {
		return nil
	}
	return r.entries[r.order[0]]
}

// List returns all templates in registration order
func (r *TemplateRegistry) List() []*NoteTemplate {
	result := make([]*NoteTemplate, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.entries[id])
	}
	return result
}
