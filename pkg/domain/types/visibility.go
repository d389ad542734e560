package types

import "fmt"

// Visibility controls whether users other than the owner may read a case
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) IsValid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

// Normalize treats empty visibility as private.
func (v Visibility) Normalize() Visibility {
	if v == "" {
		return VisibilityPrivate
	}
	return v
}

func (v Visibility) String() string {
	return string(v)
}

func ParseVisibility(s string) (Visibility, error) {
	v := Visibility(s)
	if !v.IsValid() {
		return "", fmt.Errorf("invalid visibility: %s", s)
	}
	return v, nil
}
