package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hylla/krets/internal/domain"
)

// SortKey identifies a supported sort column.
type SortKey string

// Supported sort keys.
const (
	SortByID             SortKey = "id"
	SortByManagementType SortKey = "managementType"
	SortByServiceCount   SortKey = "serviceCount"
	SortByComments       SortKey = "comments"
)

// SortKeys lists the supported keys in display order.
func SortKeys() []SortKey {
	return []SortKey{SortByID, SortByManagementType, SortByServiceCount, SortByComments}
}

// SortSpec pairs a sort key with a direction.
type SortSpec struct {
	Key       SortKey
	Ascending bool
}

// ValidationError flags a malformed filter or sort specification. It marks
// a programmer error at the dispatch surface, not a runtime condition.
type ValidationError struct {
	Field string
	Value string
}

// Error formats the validation failure.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// Less builds a strict-weak-order comparator for spec. Ties compare equal
// in both directions, so sorting with sort.SliceStable is idempotent: an
// already-sorted sequence comes back unchanged. The comments key keeps the
// "N/A" sentinel last regardless of direction; Ascending reorders only the
// non-sentinel values.
func Less(spec SortSpec) (func(a, b domain.Record) bool, error) {
	switch spec.Key {
	case SortByID:
		return directed(spec.Ascending, func(a, b domain.Record) int {
			return strings.Compare(a.ID, b.ID)
		}), nil
	case SortByManagementType:
		return directed(spec.Ascending, func(a, b domain.Record) int {
			return strings.Compare(a.ManagementType, b.ManagementType)
		}), nil
	case SortByServiceCount:
		return directed(spec.Ascending, func(a, b domain.Record) int {
			return a.DistinctServiceTypes() - b.DistinctServiceTypes()
		}), nil
	case SortByComments:
		cmp := directed(spec.Ascending, func(a, b domain.Record) int {
			return strings.Compare(a.Comments, b.Comments)
		})
		return func(a, b domain.Record) bool {
			aSentinel := a.Comments == domain.CommentsSentinel
			bSentinel := b.Comments == domain.CommentsSentinel
			if aSentinel != bSentinel {
				return bSentinel
			}
			if aSentinel {
				return false
			}
			return cmp(a, b)
		}, nil
	default:
		return nil, &ValidationError{Field: "sort key", Value: string(spec.Key)}
	}
}

// directed lifts a three-way comparison into a direction-aware less func.
func directed(ascending bool, cmp func(a, b domain.Record) int) func(a, b domain.Record) bool {
	return func(a, b domain.Record) bool {
		c := cmp(a, b)
		if ascending {
			return c < 0
		}
		return c > 0
	}
}

// Sort orders records in place per spec using a stable sort.
func Sort(records []domain.Record, spec SortSpec) error {
	less, err := Less(spec)
	if err != nil {
		return err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return less(records[i], records[j])
	})
	return nil
}
