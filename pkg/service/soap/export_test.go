package soap

import "github.com/pawnotes/pawnotes/pkg/domain/model"

var (
	BuildSystemPrompt = buildSystemPrompt
	BuildUserPrompt   = buildUserPrompt
	TrimCodeFence     = trimCodeFence
)

func OrderedSections(tmpl *model.NoteTemplate) []string {
	return orderedSections(tmpl.Sections)
}

var SOAPSchema = soapSchema
