package interfaces

import (
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

// ListCaseOption is a functional option for filtering cases in List
type ListCaseOption func(*listCaseConfig)

type listCaseConfig struct {
	status   *types.CaseStatus
	caseType *types.CaseType
	viewerID *string
	limit    int
}

// WithStatus filters cases by status
func WithStatus(status types.CaseStatus) ListCaseOption {
	return func(c *listCaseConfig) {
		c.status = &status
	}
}

// WithType filters cases by encounter type
func WithType(caseType types.CaseType) ListCaseOption {
	return func(c *listCaseConfig) {
		c.caseType = &caseType
	}
}

// WithViewer restricts results to cases the user owns or public cases
func WithViewer(userID string) ListCaseOption {
	return func(c *listCaseConfig) {
		c.viewerID = &userID
	}
}

// WithLimit caps the number of returned cases. Zero means no limit.
func WithLimit(n int) ListCaseOption {
	return func(c *listCaseConfig) {
		c.limit = n
	}
}

// BuildListCaseConfig builds a listCaseConfig from options
func BuildListCaseConfig(opts ...ListCaseOption) *listCaseConfig {
	cfg := &listCaseConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Status returns the status filter value, or nil if not set
func (c *listCaseConfig) Status() *types.CaseStatus {
	return c.status
}

// Type returns the type filter value, or nil if not set
func (c *listCaseConfig) Type() *types.CaseType {
	return c.caseType
}

// ViewerID returns the viewer filter value, or nil if not set
func (c *listCaseConfig) ViewerID() *string {
	return c.viewerID
}

func (c *listCaseConfig) Limit() int {
	return c.limit
}

// Match reports whether cs passes every filter. Backends that cannot
// express a filter natively use it to post-filter.
func (c *listCaseConfig) Match(cs *model.Case) bool {
	if c.status != nil && cs.Status.Normalize() != *c.status {
		return false
	}
	if c.caseType != nil && cs.Type != *c.caseType {
		return false
	}
	if c.viewerID != nil && !model.IsCaseAccessible(cs, *c.viewerID) {
		return false
	}
	return true
}
