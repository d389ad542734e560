package types

import "fmt"

// CaseStatus represents the lifecycle status of a case
type CaseStatus string

const (
	CaseStatusOngoing   CaseStatus = "ongoing"
	CaseStatusCompleted CaseStatus = "completed"
	CaseStatusReviewed  CaseStatus = "reviewed"
	CaseStatusExported  CaseStatus = "exported"
)

// AllCaseStatuses returns all valid case statuses in lifecycle order
func AllCaseStatuses() []CaseStatus {
	return []CaseStatus{
		CaseStatusOngoing,
		CaseStatusCompleted,
		CaseStatusReviewed,
		CaseStatusExported,
	}
}

// IsValid checks if the case status is valid
func (s CaseStatus) IsValid() bool {
	switch s {
	case CaseStatusOngoing,
		CaseStatusCompleted,
		CaseStatusReviewed,
		CaseStatusExported:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as CaseStatusOngoing.
func (s CaseStatus) Normalize() CaseStatus {
	if s == "" {
		return CaseStatusOngoing
	}
	return s
}

// CanTransitionTo reports whether a case in status s may move to next.
// Exported is terminal; a completed case may be reopened.
func (s CaseStatus) CanTransitionTo(next CaseStatus) bool {
	switch s.Normalize() {
	case CaseStatusOngoing:
		return next == CaseStatusCompleted
	case CaseStatusCompleted:
		return next == CaseStatusReviewed || next == CaseStatusOngoing
	case CaseStatusReviewed:
		return next == CaseStatusExported || next == CaseStatusCompleted
	default:
		return false
	}
}

// String returns the string representation of the case status
func (s CaseStatus) String() string {
	return string(s)
}

// ParseCaseStatus parses a string into a CaseStatus
func ParseCaseStatus(s string) (CaseStatus, error) {
	status := CaseStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid case status: %s", s)
	}
	return status, nil
}
