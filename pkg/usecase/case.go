package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/utils/async"
)

const dashboardRecentCases = 5

// CaseInput carries the user-editable fields of a case
type CaseInput struct {
	Name          string
	Timestamp     time.Time
	AssignedStaff []string
	Type          types.CaseType
	Visibility    types.Visibility
}

type CaseUseCase struct {
	repo       interfaces.Repository
	notifier   interfaces.Notifier
	archiver   interfaces.Archiver
	dispatcher *async.Dispatcher
}

func NewCaseUseCase(repo interfaces.Repository, notifier interfaces.Notifier, archiver interfaces.Archiver, dispatcher *async.Dispatcher) *CaseUseCase {
	if dispatcher == nil {
		dispatcher = async.NewDispatcher()
	}
	return &CaseUseCase{
		repo:       repo,
		notifier:   notifier,
		archiver:   archiver,
		dispatcher: dispatcher,
	}
}

// currentUser returns the authenticated identity or ErrUnauthorized
func currentUser(ctx context.Context) (*auth.Token, error) {
	token, err := auth.TokenFromContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(ErrUnauthorized, "no authenticated user")
	}
	return token, nil
}

func (uc *CaseUseCase) CreateCase(ctx context.Context, in CaseInput) (*model.Case, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	c := &model.Case{
		Name:          strings.TrimSpace(in.Name),
		Timestamp:     in.Timestamp,
		AssignedStaff: uniqueStrings(in.AssignedStaff),
		Type:          in.Type,
		Status:        types.CaseStatusOngoing,
		Visibility:    in.Visibility.Normalize(),
		OwnerID:       user.Sub,
		Actions:       []model.CaseAction{},
	}
	if err := c.Validate(); err != nil {
		return nil, goerr.Wrap(ErrValidation, err.Error())
	}

	created, err := uc.repo.Case().Create(ctx, c)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case", goerr.V(UserIDKey, user.Sub))
	}
	return created, nil
}

func (uc *CaseUseCase) UpdateCase(ctx context.Context, id model.CaseID, in CaseInput) (*model.Case, error) {
	existing, err := uc.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := existing.Copy()
	updated.Name = strings.TrimSpace(in.Name)
	updated.Timestamp = in.Timestamp
	updated.AssignedStaff = uniqueStrings(in.AssignedStaff)
	updated.Type = in.Type
	updated.Visibility = in.Visibility.Normalize()
	if err := updated.Validate(); err != nil {
		return nil, goerr.Wrap(ErrValidation, err.Error(), goerr.V(CaseIDKey, id))
	}

	saved, err := uc.repo.Case().Update(ctx, updated)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case", goerr.V(CaseIDKey, id))
	}
	return saved, nil
}

// GetCase returns a case the current user may read. Private cases of
// other users are reported as ErrAccessDenied.
func (uc *CaseUseCase) GetCase(ctx context.Context, id model.CaseID) (*model.Case, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	c, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.IsCaseAccessible(c, user.Sub) {
		return nil, goerr.Wrap(ErrAccessDenied, "case is private", goerr.V(CaseIDKey, id), goerr.V(UserIDKey, user.Sub))
	}
	return c, nil
}

// ListCases returns the cases the current user may read, newest encounter
// first.
func (uc *CaseUseCase) ListCases(ctx context.Context, opts ...interfaces.ListCaseOption) ([]*model.Case, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	opts = append(opts, interfaces.WithViewer(user.Sub))
	cases, err := uc.repo.Case().List(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list cases", goerr.V(UserIDKey, user.Sub))
	}
	return cases, nil
}

func (uc *CaseUseCase) ChangeStatus(ctx context.Context, id model.CaseID, status types.CaseStatus) (*model.Case, error) {
	if !status.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid case status", goerr.V(StatusKey, status))
	}

	existing, err := uc.getOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	from := existing.Status.Normalize()
	if !from.CanTransitionTo(status) {
		return nil, goerr.Wrap(ErrInvalidStatusTransition, "status change not allowed",
			goerr.V(CaseIDKey, id),
			goerr.V("from", from),
			goerr.V("to", status))
	}

	updated := existing.Copy()
	updated.Status = status
	saved, err := uc.repo.Case().Update(ctx, updated)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update case status", goerr.V(CaseIDKey, id))
	}

	if uc.notifier != nil {
		notified := saved.Copy()
		uc.dispatcher.Dispatch(ctx, "notify_status_changed", func(ctx context.Context) error {
			return uc.notifier.NotifyStatusChanged(ctx, notified, from)
		})
	}

	return saved, nil
}

// SaveActions persists the action history of a case, newest first.
func (uc *CaseUseCase) SaveActions(ctx context.Context, id model.CaseID, actions []model.CaseAction) (*model.Case, error) {
	if _, err := uc.getOwned(ctx, id); err != nil {
		return nil, err
	}

	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return nil, goerr.Wrap(ErrValidation, err.Error(), goerr.V(CaseIDKey, id), goerr.V(ActionIDKey, a.ID))
		}
	}
	if actions == nil {
		actions = []model.CaseAction{}
	}

	saved, err := uc.repo.Case().SaveActions(ctx, id, actions)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save case actions", goerr.V(CaseIDKey, id))
	}
	return saved, nil
}

// ExportCase writes the case to the archive and returns the export
// location. A reviewed case moves to exported.
func (uc *CaseUseCase) ExportCase(ctx context.Context, id model.CaseID) (string, *model.Case, error) {
	if uc.archiver == nil {
		return "", nil, goerr.Wrap(ErrNotConfigured, "case export is not configured")
	}

	c, err := uc.getOwned(ctx, id)
	if err != nil {
		return "", nil, err
	}

	location, err := uc.archiver.Export(ctx, c)
	if err != nil {
		return "", nil, goerr.Wrap(ErrUpstream, "failed to export case", goerr.V(CaseIDKey, id), goerr.V("error", err.Error()))
	}

	if !c.Status.Normalize().CanTransitionTo(types.CaseStatusExported) {
		return location, c, nil
	}

	updated := c.Copy()
	updated.Status = types.CaseStatusExported
	saved, err := uc.repo.Case().Update(ctx, updated)
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to mark case exported", goerr.V(CaseIDKey, id))
	}
	return location, saved, nil
}

// Dashboard summarizes the cases visible to the current user
func (uc *CaseUseCase) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	cases, err := uc.ListCases(ctx)
	if err != nil {
		return nil, err
	}

	d := &model.Dashboard{
		Total:    len(cases),
		ByStatus: make(map[types.CaseStatus]int),
		ByType:   make(map[types.CaseType]int),
		Recent:   []*model.Case{},
	}
	for _, s := range types.AllCaseStatuses() {
		d.ByStatus[s] = 0
	}
	for _, t := range types.AllCaseTypes() {
		d.ByType[t] = 0
	}

	for _, c := range cases {
		d.ByStatus[c.Status.Normalize()]++
		d.ByType[c.Type]++
		d.Actions += len(c.Actions)
	}

	recent := make([]*model.Case, len(cases))
	copy(recent, cases)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UpdatedAt.After(recent[j].UpdatedAt)
	})
	if len(recent) > dashboardRecentCases {
		recent = recent[:dashboardRecentCases]
	}
	d.Recent = recent

	return d, nil
}

func (uc *CaseUseCase) get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	c, err := uc.repo.Case().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(CaseIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(CaseIDKey, id))
	}
	return c, nil
}

// getOwned loads a case the current user is allowed to modify
func (uc *CaseUseCase) getOwned(ctx context.Context, id model.CaseID) (*model.Case, error) {
	user, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	c, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.IsCaseOwner(c, user.Sub) {
		return nil, goerr.Wrap(ErrAccessDenied, "only the owner can modify a case",
			goerr.V(CaseIDKey, id),
			goerr.V(UserIDKey, user.Sub))
	}
	return c, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
