package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

func TestNewRecordingAction(t *testing.T) {
	a := model.NewRecordingAction("patient is alert")
	gt.Value(t, a.Kind).Equal(types.ActionKindRecording)
	gt.Value(t, a.Transcript).Equal("patient is alert")
	gt.Value(t, a.SOAP).Nil()
	gt.String(t, a.ID.String()).NotEqual("")
	gt.Bool(t, a.CreatedAt.IsZero()).False()
	gt.NoError(t, a.Validate())
}

func TestNewSOAPNoteAction(t *testing.T) {
	a := model.NewSOAPNoteAction(model.SOAPNote{Plan: "recheck in two weeks"})
	gt.Value(t, a.Kind).Equal(types.ActionKindSOAPNote)
	gt.Value(t, a.SOAP.Plan).Equal("recheck in two weeks")
	gt.NoError(t, a.Validate())
}

func TestNewActionID_Unique(t *testing.T) {
	seen := map[model.ActionID]bool{}
	for range 100 {
		id := model.NewActionID()
		gt.B(t, seen[id]).False()
		seen[id] = true
	}
}

func TestCaseAction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		action  model.CaseAction
		wantErr bool
	}{
		{
			name:    "missing ID",
			action:  model.CaseAction{Kind: types.ActionKindRecording},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			action:  model.CaseAction{ID: "a-1", Kind: "photo"},
			wantErr: true,
		},
		{
			name:    "recording with SOAP body",
			action:  model.CaseAction{ID: "a-1", Kind: types.ActionKindRecording, SOAP: &model.SOAPNote{}},
			wantErr: true,
		},
		{
			name:    "soap note with transcript",
			action:  model.CaseAction{ID: "a-1", Kind: types.ActionKindSOAPNote, SOAP: &model.SOAPNote{}, Transcript: "x"},
			wantErr: true,
		},
		{
			name:   "empty recording transcript is allowed",
			action: model.CaseAction{ID: "a-1", Kind: types.ActionKindRecording},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr {
				gt.Error(t, err).Is(model.ErrInvalidAction)
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestSOAPNote_IsEmpty(t *testing.T) {
	gt.B(t, model.SOAPNote{}.IsEmpty()).True()
	gt.B(t, model.SOAPNote{Assessment: " "}.IsEmpty()).True()
	gt.B(t, model.SOAPNote{Assessment: "otitis externa"}.IsEmpty()).False()
}
