package model

import "github.com/pawnotes/pawnotes/pkg/domain/types"

// Dashboard summarizes the cases visible to a user
type Dashboard struct {
	Total    int
	ByStatus map[types.CaseStatus]int
	ByType   map[types.CaseType]int
	Actions  int
	Recent   []*Case
}
