package interfaces

import (
	"context"

	"github.com/pawnotes/pawnotes/pkg/domain/model"
)

// CaseRepository defines the interface for Case data access. Cases are
// never physically deleted, so there is no Delete.
type CaseRepository interface {
	// Create stores a new case. ID, CreatedAt and UpdatedAt are assigned by
	// the repository when empty.
	Create(ctx context.Context, c *model.Case) (*model.Case, error)

	// Get retrieves a case by ID
	Get(ctx context.Context, id model.CaseID) (*model.Case, error)

	// List retrieves cases ordered by Timestamp descending
	List(ctx context.Context, opts ...ListCaseOption) ([]*model.Case, error)

	// Update replaces an existing case including its actions
	Update(ctx context.Context, c *model.Case) (*model.Case, error)

	// SaveActions replaces the action history of a case
	SaveActions(ctx context.Context, id model.CaseID, actions []model.CaseAction) (*model.Case, error)
}
