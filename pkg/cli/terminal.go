package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
)

// terminalSink renders capture notifications on a terminal. On a TTY the
// live transcript line is redrawn in place; otherwise only state changes
// and committed transcripts are printed.
type terminalSink struct {
	mu   sync.Mutex
	w    io.Writer
	live bool

	elapsed int
	display string
}

func newTerminalSink(w io.Writer) *terminalSink {
	live := false
	if f, ok := w.(*os.File); ok {
		live = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &terminalSink{w: w, live: live}
}

var (
	stateColor   = color.New(color.FgCyan, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	timerColor   = color.New(color.FgYellow)
	interimColor = color.New(color.Faint)
	headingColor = color.New(color.FgGreen, color.Bold)
)

func (s *terminalSink) StateChanged(state types.CaptureState, reason types.CaptureReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLine()
	fmt.Fprintf(s.w, "%s %s\n", stateColor.Sprintf("[%s]", state), reason)
}

func (s *terminalSink) TranscriptChanged(display string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = display
	s.redraw()
}

func (s *terminalSink) ElapsedChanged(seconds int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = seconds
	s.redraw()
}

func (s *terminalSink) CaptureError(code types.CaptureErrorCode, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLine()
	fmt.Fprintf(s.w, "%s %s\n", errorColor.Sprintf("error(%s)", code), detail)
}

func (s *terminalSink) ActionCommitted(action model.CaseAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLine()
	fmt.Fprintf(s.w, "%s\n%s\n", headingColor.Sprint("Transcript"), action.Transcript)
}

func (s *terminalSink) redraw() {
	if !s.live {
		return
	}
	s.clearLine()
	fmt.Fprintf(s.w, "%s %s", timerColor.Sprint(formatElapsed(s.elapsed)), interimColor.Sprint(tail(s.display, 100)))
}

func (s *terminalSink) clearLine() {
	if s.live {
		fmt.Fprint(s.w, "\r\033[K")
	}
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// tail keeps the last n runes of s so the live line fits the terminal
func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return "…" + string(r[len(r)-n+1:])
}

func printSOAPNote(w io.Writer, note *model.SOAPNote) {
	sections := []struct {
		title string
		body  string
	}{
		{"Subjective", note.Subjective},
		{"Objective", note.Objective},
		{"Assessment", note.Assessment},
		{"Plan", note.Plan},
	}
	for _, sec := range sections {
		fmt.Fprintf(w, "%s\n%s\n\n", headingColor.Sprint(sec.title), sec.body)
	}
}
