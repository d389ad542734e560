package model

// TranscriptEvent is one fragment reported by a streaming recognizer.
// Interim fragments may be revised later; final fragments are stable.
type TranscriptEvent struct {
	Text    string
	IsFinal bool
}
