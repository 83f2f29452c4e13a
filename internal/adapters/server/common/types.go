// Package common holds the engine-facing ports and request shapes shared
// by the HTTP and MCP serve adapters.
package common

import (
	"context"
	"strconv"
	"strings"

	"github.com/hylla/krets/internal/domain"
	"github.com/hylla/krets/internal/view"
)

// CollectionSource exposes read access to the synchronized collection.
// Both methods return snapshots; adapters never observe store internals.
type CollectionSource interface {
	Collection() []domain.Record
	VisibleView() []domain.Record
	Populated() bool
}

// Resolver resolves one record across the circuit and proposal namespaces.
type Resolver interface {
	ResolveOne(context.Context, string) (domain.Record, error)
}

// ListRequest captures the query surface of the list endpoints. A zero
// request returns the engine's current visible view; any set field switches
// to an ad-hoc projection over the unfiltered collection so serve clients
// cannot disturb the interactive session's specs.
type ListRequest struct {
	Term             string
	AwaitingApproval bool
	ActionRequired   bool
	ActorID          string
	SortKey          string
	Order            string
}

// IsZero reports whether the request carries no projection overrides.
func (r ListRequest) IsZero() bool {
	return strings.TrimSpace(r.Term) == "" &&
		!r.AwaitingApproval && !r.ActionRequired &&
		strings.TrimSpace(r.SortKey) == "" &&
		strings.TrimSpace(r.Order) == ""
}

// ParseBoolParam interprets a query-parameter style boolean. Empty means
// false; anything strconv refuses is reported to the caller.
func ParseBoolParam(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

// ListRecords materializes one list request against the source. Unknown
// sort keys surface the view engine's validation error unchanged.
func ListRecords(source CollectionSource, req ListRequest) ([]domain.Record, error) {
	if req.IsZero() {
		return source.VisibleView(), nil
	}

	spec := view.FilterSpec{
		Term:             strings.TrimSpace(req.Term),
		AwaitingApproval: req.AwaitingApproval,
		ActionRequired:   req.ActionRequired,
		ActorID:          strings.TrimSpace(req.ActorID),
	}
	records := view.Apply(source.Collection(), spec)

	sortSpec := view.SortSpec{Key: view.SortByID, Ascending: true}
	if key := strings.TrimSpace(req.SortKey); key != "" {
		sortSpec.Key = view.SortKey(key)
	}
	switch strings.TrimSpace(strings.ToLower(req.Order)) {
	case "", "asc", "ascending":
		sortSpec.Ascending = true
	case "desc", "descending":
		sortSpec.Ascending = false
	default:
		return nil, &view.ValidationError{Field: "order", Value: req.Order}
	}

	sorted := make([]domain.Record, len(records))
	copy(sorted, records)
	if err := view.Sort(sorted, sortSpec); err != nil {
		return nil, err
	}
	return sorted, nil
}
