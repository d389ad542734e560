package memory

import (
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
)

// ErrNotFound is wrapped when a record does not exist
var ErrNotFound = interfaces.ErrNotFound

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory keeps every record in process memory. It backs tests and the
// local development server.
type Memory struct {
	cases  *caseRepository
	emails *emailRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		cases:  newCaseRepository(),
		emails: newEmailRepository(),
	}
}

func (m *Memory) Case() interfaces.CaseRepository {
	return m.cases
}

func (m *Memory) Email() interfaces.EmailRepository {
	return m.emails
}

func (m *Memory) Close() error {
	return nil
}
