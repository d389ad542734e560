package types

import "fmt"

// CaseType is the kind of veterinary encounter a case records
type CaseType string

const (
	CaseTypeCheckup   CaseType = "checkup"
	CaseTypeEmergency CaseType = "emergency"
	CaseTypeSurgery   CaseType = "surgery"
	CaseTypeFollowUp  CaseType = "follow-up"
)

func AllCaseTypes() []CaseType {
	return []CaseType{
		CaseTypeCheckup,
		CaseTypeEmergency,
		CaseTypeSurgery,
		CaseTypeFollowUp,
	}
}

func (t CaseType) IsValid() bool {
	switch t {
	case CaseTypeCheckup, CaseTypeEmergency, CaseTypeSurgery, CaseTypeFollowUp:
		return true
	}
	return false
}

func (t CaseType) String() string {
	return string(t)
}

func ParseCaseType(s string) (CaseType, error) {
	t := CaseType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid case type: %s", s)
	}
	return t, nil
}
