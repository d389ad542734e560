package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
)

type caseRepository struct {
	mu    sync.RWMutex
	cases map[model.CaseID]*model.Case
}

func newCaseRepository() *caseRepository {
	return &caseRepository{
		cases: make(map[model.CaseID]*model.Case),
	}
}

func (r *caseRepository) Create(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := c.Copy()
	if created.ID == "" {
		created.ID = model.NewCaseID()
	}
	if _, exists := r.cases[created.ID]; exists {
		return nil, goerr.New("case already exists", goerr.V("id", created.ID))
	}
	if created.Actions == nil {
		created.Actions = []model.CaseAction{}
	}
	created.Status = created.Status.Normalize()
	created.Visibility = created.Visibility.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.cases[created.ID] = created
	return created.Copy(), nil
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}

	return c.Copy(), nil
}

func (r *caseRepository) List(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	cfg := interfaces.BuildListCaseConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	cases := make([]*model.Case, 0, len(r.cases))
	for _, c := range r.cases {
		if cfg.Match(c) {
			cases = append(cases, c.Copy())
		}
	}

	sort.Slice(cases, func(i, j int) bool {
		if cases[i].Timestamp.Equal(cases[j].Timestamp) {
			return cases[i].ID > cases[j].ID
		}
		return cases[i].Timestamp.After(cases[j].Timestamp)
	})

	if limit := cfg.Limit(); limit > 0 && len(cases) > limit {
		cases = cases[:limit]
	}
	return cases, nil
}

func (r *caseRepository) Update(ctx context.Context, c *model.Case) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[c.ID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", c.ID))
	}

	updated := c.Copy()
	if updated.Actions == nil {
		updated.Actions = []model.CaseAction{}
	}
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = nextUpdatedAt(existing.UpdatedAt)

	r.cases[updated.ID] = updated
	return updated.Copy(), nil
}

func (r *caseRepository) SaveActions(ctx context.Context, id model.CaseID, actions []model.CaseAction) (*model.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}

	updated := existing.Copy()
	updated.Actions = model.CopyActions(actions)
	if updated.Actions == nil {
		updated.Actions = []model.CaseAction{}
	}
	updated.UpdatedAt = nextUpdatedAt(existing.UpdatedAt)

	r.cases[id] = updated
	return updated.Copy(), nil
}

// nextUpdatedAt returns the current time, bumped past prev when the
// clock has not advanced.
func nextUpdatedAt(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}
