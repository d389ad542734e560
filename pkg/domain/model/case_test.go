package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

func TestIsCaseAccessible(t *testing.T) {
	tests := []struct {
		name     string
		c        *model.Case
		userID   string
		expected bool
	}{
		{
			name:     "public case is accessible to anyone",
			c:        &model.Case{OwnerID: "u-1", Visibility: types.VisibilityPublic},
			userID:   "u-2",
			expected: true,
		},
		{
			name:     "private case is accessible to owner",
			c:        &model.Case{OwnerID: "u-1", Visibility: types.VisibilityPrivate},
			userID:   "u-1",
			expected: true,
		},
		{
			name:     "private case is hidden from other users",
			c:        &model.Case{OwnerID: "u-1", Visibility: types.VisibilityPrivate},
			userID:   "u-2",
			expected: false,
		},
		{
			name:     "empty visibility is treated as private",
			c:        &model.Case{OwnerID: "u-1"},
			userID:   "u-2",
			expected: false,
		},
		{
			name:     "nil case is not accessible",
			c:        nil,
			userID:   "u-1",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.IsCaseAccessible(tt.c, tt.userID)).Equal(tt.expected)
		})
	}
}

func TestIsCaseOwner(t *testing.T) {
	c := &model.Case{OwnerID: "u-1", Visibility: types.VisibilityPublic}
	gt.B(t, model.IsCaseOwner(c, "u-1")).True()
	gt.B(t, model.IsCaseOwner(c, "u-2")).False()
	gt.B(t, model.IsCaseOwner(&model.Case{}, "")).False()
}

func newValidCase() *model.Case {
	return &model.Case{
		ID:            model.NewCaseID(),
		Name:          "Bella - annual checkup",
		Timestamp:     time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		AssignedStaff: []string{"Dr. Tanaka"},
		Type:          types.CaseTypeCheckup,
		Status:        types.CaseStatusOngoing,
		Visibility:    types.VisibilityPrivate,
		OwnerID:       "u-1",
	}
}

func TestCase_Validate(t *testing.T) {
	t.Run("valid case", func(t *testing.T) {
		c := newValidCase()
		c.Actions = []model.CaseAction{model.NewRecordingAction("heart rate normal")}
		gt.NoError(t, c.Validate())
	})

	t.Run("empty status and visibility are accepted", func(t *testing.T) {
		c := newValidCase()
		c.Status = ""
		c.Visibility = ""
		gt.NoError(t, c.Validate())
	})

	tests := []struct {
		name   string
		mutate func(c *model.Case)
	}{
		{name: "blank name", mutate: func(c *model.Case) { c.Name = "   " }},
		{name: "zero timestamp", mutate: func(c *model.Case) { c.Timestamp = time.Time{} }},
		{name: "unknown type", mutate: func(c *model.Case) { c.Type = "grooming" }},
		{name: "unknown status", mutate: func(c *model.Case) { c.Status = "closed" }},
		{name: "unknown visibility", mutate: func(c *model.Case) { c.Visibility = "team" }},
		{name: "invalid action", mutate: func(c *model.Case) {
			c.Actions = []model.CaseAction{{ID: "a-1", Kind: types.ActionKindSOAPNote}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newValidCase()
			tt.mutate(c)
			gt.Error(t, c.Validate())
		})
	}
}

func TestCase_Copy(t *testing.T) {
	c := newValidCase()
	c.Actions = []model.CaseAction{
		model.NewSOAPNoteAction(model.SOAPNote{Subjective: "owner reports limping"}),
	}

	copied := c.Copy()
	copied.AssignedStaff[0] = "Dr. Sato"
	copied.Actions[0].SOAP.Subjective = "changed"

	gt.Value(t, c.AssignedStaff[0]).Equal("Dr. Tanaka")
	gt.Value(t, c.Actions[0].SOAP.Subjective).Equal("owner reports limping")
}
