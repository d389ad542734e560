package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

func TestCaseStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status types.CaseStatus
		want   bool
	}{
		{name: "ongoing", status: types.CaseStatusOngoing, want: true},
		{name: "completed", status: types.CaseStatusCompleted, want: true},
		{name: "reviewed", status: types.CaseStatusReviewed, want: true},
		{name: "exported", status: types.CaseStatusExported, want: true},
		{name: "invalid status", status: types.CaseStatus("archived"), want: false},
		{name: "empty status", status: types.CaseStatus(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.status.IsValid()).Equal(tt.want)
		})
	}
}

func TestParseCaseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.CaseStatus
		wantErr bool
	}{
		{name: "valid ongoing", input: "ongoing", want: types.CaseStatusOngoing},
		{name: "valid exported", input: "exported", want: types.CaseStatusExported},
		{name: "upper case is rejected", input: "ONGOING", wantErr: true},
		{name: "empty status", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseCaseStatus(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
			} else {
				gt.NoError(t, err)
				gt.V(t, got).Equal(tt.want)
			}
		})
	}
}

func TestCaseStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from types.CaseStatus
		to   types.CaseStatus
		want bool
	}{
		{from: types.CaseStatusOngoing, to: types.CaseStatusCompleted, want: true},
		{from: types.CaseStatusOngoing, to: types.CaseStatusReviewed, want: false},
		{from: types.CaseStatusCompleted, to: types.CaseStatusReviewed, want: true},
		{from: types.CaseStatusCompleted, to: types.CaseStatusOngoing, want: true},
		{from: types.CaseStatusReviewed, to: types.CaseStatusExported, want: true},
		{from: types.CaseStatusReviewed, to: types.CaseStatusCompleted, want: true},
		{from: types.CaseStatusExported, to: types.CaseStatusOngoing, want: false},
		{from: types.CaseStatusExported, to: types.CaseStatusReviewed, want: false},
		{from: types.CaseStatus(""), to: types.CaseStatusCompleted, want: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			gt.Value(t, tt.from.CanTransitionTo(tt.to)).Equal(tt.want)
		})
	}
}

func TestAllCaseStatuses(t *testing.T) {
	statuses := types.AllCaseStatuses()
	gt.A(t, statuses).Length(4)

	for _, status := range statuses {
		gt.B(t, status.IsValid()).
			Describef("Status %s should be valid", status).
			True()
	}
}
