package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

// CaseID identifies a case. New IDs are UUIDv7 so that they sort by
// creation time.
type CaseID string

func NewCaseID() CaseID {
	return CaseID(uuid.Must(uuid.NewV7()).String())
}

func (id CaseID) String() string {
	return string(id)
}

// Case is a single veterinary encounter and its recorded work
type Case struct {
	ID            CaseID           `json:"id"`
	Name          string           `json:"name"`
	Timestamp     time.Time        `json:"timestamp"`
	AssignedStaff []string         `json:"assigned_staff"`
	Type          types.CaseType   `json:"type"`
	Status        types.CaseStatus `json:"status"`
	Visibility    types.Visibility `json:"visibility"`
	OwnerID       string           `json:"owner_id"`
	Actions       []CaseAction     `json:"actions"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ErrInvalidCase is the base error for Case.Validate failures
var ErrInvalidCase = goerr.New("invalid case")

// Validate checks the fields a user supplies when saving a case.
func (c *Case) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return goerr.Wrap(ErrInvalidCase, "case name is required")
	}
	if c.Timestamp.IsZero() {
		return goerr.Wrap(ErrInvalidCase, "case timestamp is required", goerr.V("name", c.Name))
	}
	if !c.Type.IsValid() {
		return goerr.Wrap(ErrInvalidCase, "invalid case type", goerr.V("type", c.Type))
	}
	if !c.Status.Normalize().IsValid() {
		return goerr.Wrap(ErrInvalidCase, "invalid case status", goerr.V("status", c.Status))
	}
	if !c.Visibility.Normalize().IsValid() {
		return goerr.Wrap(ErrInvalidCase, "invalid visibility", goerr.V("visibility", c.Visibility))
	}
	for _, a := range c.Actions {
		if err := a.Validate(); err != nil {
			return goerr.Wrap(err, "invalid case action", goerr.V("action_id", a.ID))
		}
	}
	return nil
}

// Copy returns a deep copy of c.
func (c *Case) Copy() *Case {
	copied := *c
	if c.AssignedStaff != nil {
		copied.AssignedStaff = append([]string(nil), c.AssignedStaff...)
	}
	copied.Actions = CopyActions(c.Actions)
	return &copied
}

// IsCaseAccessible reports whether userID may read c. Owners can always
// read their cases; other users only see public ones.
func IsCaseAccessible(c *Case, userID string) bool {
	if c == nil {
		return false
	}
	if c.Visibility.Normalize() == types.VisibilityPublic {
		return true
	}
	return c.OwnerID == userID
}

// IsCaseOwner reports whether userID may modify c.
func IsCaseOwner(c *Case, userID string) bool {
	return c != nil && userID != "" && c.OwnerID == userID
}
