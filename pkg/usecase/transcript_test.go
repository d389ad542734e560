package usecase_test

import (
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/usecase"
)

func final(text string) model.TranscriptEvent {
	return model.TranscriptEvent{Text: text, IsFinal: true}
}

func interim(text string) model.TranscriptEvent {
	return model.TranscriptEvent{Text: text}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name   string
		events []model.TranscriptEvent
		want   string
	}{
		{
			name:   "interims superseded by final",
			events: []model.TranscriptEvent{interim("Patient"), interim("Patient is"), final("Patient is vomiting")},
			want:   "Patient is vomiting",
		},
		{
			name:   "finals without overlap are space joined",
			events: []model.TranscriptEvent{final("Temperature is normal."), final("Weight 12 kilograms."), final("No lameness.")},
			want:   "Temperature is normal. Weight 12 kilograms. No lameness.",
		},
		{
			name:   "one word overlap",
			events: []model.TranscriptEvent{final("the dog has"), final("has a fever")},
			want:   "the dog has a fever",
		},
		{
			name:   "four word overlap",
			events: []model.TranscriptEvent{final("owner says the cat was eating"), final("the cat was eating less since monday")},
			want:   "owner says the cat was eating less since monday",
		},
		{
			name:   "five word overlap is beyond the scan window",
			events: []model.TranscriptEvent{final("a b c d e"), final("a b c d e f")},
			want:   "a b c d e a b c d e f",
		},
		{
			name:   "smallest overlap wins",
			events: []model.TranscriptEvent{final("x y y"), final("y y z")},
			want:   "x y y y z",
		},
		{
			name:   "duplicate final is discarded",
			events: []model.TranscriptEvent{final("heart sounds normal"), final("heart sounds normal")},
			want:   "heart sounds normal",
		},
		{
			name:   "duplicate check respects word boundaries",
			events: []model.TranscriptEvent{final("perhaps"), final("has")},
			want:   "perhaps has",
		},
		{
			name:   "fragments are trimmed",
			events: []model.TranscriptEvent{final("  ears clean  "), final("\teyes clear\n")},
			want:   "ears clean eyes clear",
		},
		{
			name:   "whitespace fragments are ignored",
			events: []model.TranscriptEvent{final("   "), interim("\n"), final("")},
			want:   "",
		},
		{
			name:   "interim only never commits",
			events: []model.TranscriptEvent{interim("maybe"), interim("maybe a tumor")},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, usecase.Reconcile(tt.events)).Equal(tt.want)
		})
	}
}

func TestTranscriptAccumulator_NonOverlappingFinals(t *testing.T) {
	fragments := []string{"alpha one", "bravo two", "charlie three", "delta four"}

	acc := usecase.NewTranscriptAccumulator()
	for _, f := range fragments {
		acc.Apply(final(f))
	}
	gt.Value(t, acc.Transcript()).Equal(strings.Join(fragments, " "))
}

func TestTranscriptAccumulator_Interim(t *testing.T) {
	t.Run("interim extends display but not transcript", func(t *testing.T) {
		acc := usecase.NewTranscriptAccumulator()
		acc.Apply(final("the dog"))

		display, changed := acc.Apply(interim("is limping"))
		gt.Bool(t, changed).True()
		gt.Value(t, display).Equal("the dog is limping")
		gt.Value(t, acc.Transcript()).Equal("the dog")
	})

	t.Run("identical interim does not change display", func(t *testing.T) {
		acc := usecase.NewTranscriptAccumulator()
		_, changed := acc.Apply(interim("left ear"))
		gt.Bool(t, changed).True()

		display, changed := acc.Apply(interim("left ear"))
		gt.Bool(t, changed).False()
		gt.Value(t, display).Equal("left ear")
	})

	t.Run("final clears pending interim", func(t *testing.T) {
		acc := usecase.NewTranscriptAccumulator()
		acc.Apply(interim("left"))
		display, _ := acc.Apply(final("left ear inflamed"))
		gt.Value(t, display).Equal("left ear inflamed")

		// the same interim text is shown again after a final
		display, changed := acc.Apply(interim("left"))
		gt.Bool(t, changed).True()
		gt.Value(t, display).Equal("left ear inflamed left")
	})

	t.Run("duplicate final drops stale interim from display", func(t *testing.T) {
		acc := usecase.NewTranscriptAccumulator()
		acc.Apply(final("vaccines up to date"))
		acc.Apply(interim("vaccines"))

		display, changed := acc.Apply(final("vaccines up to date"))
		gt.Bool(t, changed).True()
		gt.Value(t, display).Equal("vaccines up to date")
		gt.Value(t, acc.Transcript()).Equal("vaccines up to date")
	})

	t.Run("whitespace event reports no change", func(t *testing.T) {
		acc := usecase.NewTranscriptAccumulator()
		acc.Apply(interim("wag"))
		display, changed := acc.Apply(interim("   "))
		gt.Bool(t, changed).False()
		gt.Value(t, display).Equal("wag")
	})
}

func TestTranscriptAccumulator_NeverShrinks(t *testing.T) {
	events := []model.TranscriptEvent{
		interim("the"), final("the cat"), interim("the cat"), final("the cat"),
		final("cat is"), interim("hungry"), final("is hungry"), final(" "),
	}

	acc := usecase.NewTranscriptAccumulator()
	prev := ""
	for _, ev := range events {
		acc.Apply(ev)
		gt.Bool(t, strings.HasPrefix(acc.Transcript(), prev)).True()
		prev = acc.Transcript()
	}
	gt.Value(t, acc.Transcript()).Equal("the cat is hungry")
}

func TestTranscriptAccumulator_Reset(t *testing.T) {
	acc := usecase.NewTranscriptAccumulator()
	acc.Apply(final("first visit"))
	acc.Apply(interim("second"))
	acc.Reset()

	gt.Value(t, acc.Transcript()).Equal("")
	gt.Value(t, acc.Display()).Equal("")

	_, changed := acc.Apply(interim("second"))
	gt.Bool(t, changed).True()
}
