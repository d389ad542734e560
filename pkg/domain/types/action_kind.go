package types

import "fmt"

// ActionKind discriminates the body of a case action
type ActionKind string

const (
	ActionKindRecording ActionKind = "recording"
	ActionKindSOAPNote  ActionKind = "soap_note"
)

func (k ActionKind) IsValid() bool {
	return k == ActionKindRecording || k == ActionKindSOAPNote
}

func (k ActionKind) String() string {
	return string(k)
}

func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("invalid action kind: %s", s)
	}
	return k, nil
}
