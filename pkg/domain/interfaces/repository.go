package interfaces

import "errors"

// ErrNotFound is wrapped by every repository implementation when a
// record does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the interface for data persistence
type Repository interface {
	Case() CaseRepository
	Email() EmailRepository

	// Close releases backend connections
	Close() error
}
