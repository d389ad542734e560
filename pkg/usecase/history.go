package usecase

import (
	"sync"

	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

// ActionHistory is the in-memory, newest-first action log of one case.
// It is mutated by capture and note generation and persisted explicitly
// with CaseUseCase.SaveActions.
type ActionHistory struct {
	mu      sync.RWMutex
	actions []model.CaseAction
	dirty   bool
}

// NewActionHistory seeds the history with a case's persisted actions.
func NewActionHistory(actions []model.CaseAction) *ActionHistory {
	return &ActionHistory{actions: model.CopyActions(actions)}
}

// Prepend adds action to the front of the history.
func (h *ActionHistory) Prepend(action model.CaseAction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = append([]model.CaseAction{action}, h.actions...)
	h.dirty = true
}

// Snapshot returns a copy of the history, newest first.
func (h *ActionHistory) Snapshot() []model.CaseAction {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.actions == nil {
		return []model.CaseAction{}
	}
	return model.CopyActions(h.actions)
}

func (h *ActionHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.actions)
}

// Latest returns the newest action of the given kind.
func (h *ActionHistory) Latest(kind types.ActionKind) (model.CaseAction, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, a := range h.actions {
		if a.Kind == kind {
			return model.CopyActions([]model.CaseAction{a})[0], true
		}
	}
	return model.CaseAction{}, false
}

// Replace swaps the whole history, typically after a save returned the
// persisted record, and marks it clean.
func (h *ActionHistory) Replace(actions []model.CaseAction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.actions = model.CopyActions(actions)
	h.dirty = false
}

// Dirty reports whether the history has unsaved actions.
func (h *ActionHistory) Dirty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dirty
}
