// Package view implements the derived, filtered, sorted projection of the
// circuit/proposal collection together with the store that owns it.
package view

import (
	"strings"

	"github.com/hylla/krets/internal/domain"
)

// FilterSpec describes the two independent filter axes. An empty Term
// matches everything; both status flags false means no status filtering,
// not an empty result.
type FilterSpec struct {
	Term             string
	AwaitingApproval bool
	ActionRequired   bool
	ActorID          string
}

// IsZero reports whether the spec filters nothing out.
func (s FilterSpec) IsZero() bool {
	return strings.TrimSpace(s.Term) == "" && !s.AwaitingApproval && !s.ActionRequired
}

// FilterByTerm returns the records whose id, management type, comments,
// member ids, or roster service types contain term case-insensitively. An
// empty term returns the input unchanged.
func FilterByTerm(records []domain.Record, term string) []domain.Record {
	term = strings.TrimSpace(term)
	if term == "" {
		return records
	}
	needle := strings.ToLower(term)
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if matchesTerm(rec, needle) {
			out = append(out, rec)
		}
	}
	return out
}

// matchesTerm reports whether any searchable field contains needle.
// needle must already be lowercased.
func matchesTerm(rec domain.Record, needle string) bool {
	if strings.Contains(strings.ToLower(rec.ID), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(rec.ManagementType), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(rec.Comments), needle) {
		return true
	}
	for _, member := range rec.Members {
		if strings.Contains(strings.ToLower(member), needle) {
			return true
		}
	}
	for _, svc := range rec.Roster {
		if strings.Contains(strings.ToLower(svc.ServiceType), needle) {
			return true
		}
	}
	return false
}

// FilterByStatus returns the records matching the opt-in status flags. With
// both flags false every record matches; with both set the flags compose
// with OR, so a record needs to satisfy only one of them.
func FilterByStatus(records []domain.Record, spec FilterSpec) []domain.Record {
	if !spec.AwaitingApproval && !spec.ActionRequired {
		return records
	}
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if spec.AwaitingApproval && rec.AwaitingApproval() {
			out = append(out, rec)
			continue
		}
		if spec.ActionRequired && rec.ActionRequired(spec.ActorID) {
			out = append(out, rec)
		}
	}
	return out
}

// Apply evaluates both filter axes against the original collection and
// intersects the results. Filtering each axis independently keeps the
// visible set insensitive to the order the filters were activated in.
func Apply(records []domain.Record, spec FilterSpec) []domain.Record {
	byTerm := FilterByTerm(records, spec.Term)
	byStatus := FilterByStatus(records, spec)

	if len(byTerm) == len(records) {
		return byStatus
	}
	if len(byStatus) == len(records) {
		return byTerm
	}

	inStatus := make(map[string]struct{}, len(byStatus))
	for _, rec := range byStatus {
		inStatus[rec.ID] = struct{}{}
	}
	out := make([]domain.Record, 0, len(byTerm))
	for _, rec := range byTerm {
		if _, ok := inStatus[rec.ID]; ok {
			out = append(out, rec)
		}
	}
	return out
}
