package usecase

import (
	"strings"

	"github.com/pawnotes/pawnotes/pkg/domain/model"
)

// maxOverlapWords bounds the boundary overlap scan between the committed
// transcript and a new final fragment.
const maxOverlapWords = 4

// TranscriptAccumulator folds recognizer fragments into one transcript.
// Final fragments are committed with boundary de-duplication; interim
// fragments only affect the display string. It is not safe for concurrent
// use.
type TranscriptAccumulator struct {
	committed   string
	lastInterim string
	display     string
}

func NewTranscriptAccumulator() *TranscriptAccumulator {
	return &TranscriptAccumulator{}
}

// Apply folds ev into the accumulator and returns the display string and
// whether it changed.
func (a *TranscriptAccumulator) Apply(ev model.TranscriptEvent) (string, bool) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return a.display, false
	}

	before := a.display
	if ev.IsFinal {
		a.commit(text)
		a.lastInterim = ""
		a.display = a.committed
	} else {
		if text == a.lastInterim {
			return a.display, false
		}
		a.lastInterim = text
		a.display = joinSpace(a.committed, text)
	}

	return a.display, a.display != before
}

func (a *TranscriptAccumulator) commit(text string) {
	if endsWithPhrase(a.committed, text) {
		return
	}

	words := strings.Fields(text)
	if k := overlapWords(a.committed, words); k > 0 {
		if rest := words[k:]; len(rest) > 0 {
			a.committed = joinSpace(a.committed, strings.Join(rest, " "))
		}
		return
	}

	a.committed = joinSpace(a.committed, text)
}

// Transcript returns the committed transcript.
func (a *TranscriptAccumulator) Transcript() string {
	return a.committed
}

// Display returns the committed transcript followed by the pending
// interim fragment, if any.
func (a *TranscriptAccumulator) Display() string {
	return a.display
}

// Reset clears all session state.
func (a *TranscriptAccumulator) Reset() {
	a.committed = ""
	a.lastInterim = ""
	a.display = ""
}

// Reconcile folds events in order and returns the committed transcript.
func Reconcile(events []model.TranscriptEvent) string {
	acc := NewTranscriptAccumulator()
	for _, ev := range events {
		acc.Apply(ev)
	}
	return acc.Transcript()
}

// endsWithPhrase reports whether s ends with phrase on a word boundary.
func endsWithPhrase(s, phrase string) bool {
	if s == phrase {
		return true
	}
	return strings.HasSuffix(s, " "+phrase)
}

// overlapWords returns the smallest k in 1..maxOverlapWords such that the
// last k words of committed equal the first k words of fragment, or 0.
func overlapWords(committed string, fragment []string) int {
	tail := strings.Fields(committed)
	for k := 1; k <= maxOverlapWords; k++ {
		if k > len(tail) || k > len(fragment) {
			break
		}
		if equalWords(tail[len(tail)-k:], fragment[:k]) {
			return k
		}
	}
	return 0
}

func equalWords(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinSpace(head, tail string) string {
	if head == "" {
		return tail
	}
	return head + " " + tail
}
