package view

import (
	"testing"

	"github.com/hylla/krets/internal/domain"
)

func sampleRecords() []domain.Record {
	return []domain.Record{
		domain.RecordFromCircuit(domain.Circuit{
			ID:             "circuit-alpha",
			ManagementType: "gameroom",
			Comments:       "weekly trade lane",
			Members:        []string{"node-acme", "node-bubba"},
			Roster:         []domain.Service{{ServiceID: "s1", ServiceType: "scabbard"}},
		}),
		domain.RecordFromProposal(domain.Proposal{
			ID:             "proposal-beta",
			ManagementType: "grid",
			Members:        []string{"node-acme", "node-cargill"},
			Roster:         []domain.Service{{ServiceID: "s2", ServiceType: "private-xo"}},
			RequesterID:    "org-acme",
		}),
		domain.RecordFromProposal(domain.Proposal{
			ID:             "proposal-gamma",
			ManagementType: "grid",
			Comments:       "expansion lane",
			Members:        []string{"node-bubba"},
			Roster:         []domain.Service{{ServiceID: "s3", ServiceType: "scabbard"}},
			RequesterID:    "org-bubba",
			Votes:          []domain.VoteRecord{{VoterID: "org-acme", Vote: domain.VoteAccept}},
		}),
	}
}

func idsOf(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.ID
	}
	return out
}

func equalIDs(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterByTermEmptyIsIdentity(t *testing.T) {
	records := sampleRecords()
	got := FilterByTerm(records, "")
	if !equalIDs(idsOf(got), idsOf(records)) {
		t.Fatalf("empty term changed the collection: %v", idsOf(got))
	}
	got = FilterByTerm(records, "   ")
	if !equalIDs(idsOf(got), idsOf(records)) {
		t.Fatalf("blank term changed the collection: %v", idsOf(got))
	}
}

func TestFilterByTermMatchesAnyField(t *testing.T) {
	records := sampleRecords()
	cases := []struct {
		term string
		want []string
	}{
		{"ALPHA", []string{"circuit-alpha"}},                      // id, case-insensitive
		{"gameroom", []string{"circuit-alpha"}},                   // management type
		{"lane", []string{"circuit-alpha", "proposal-gamma"}},     // comments
		{"cargill", []string{"proposal-beta"}},                    // member id
		{"private-xo", []string{"proposal-beta"}},                 // roster service type
		{"n/a", []string{"proposal-beta"}},                        // comments sentinel is searchable
		{"node-acme", []string{"circuit-alpha", "proposal-beta"}}, // shared member
		{"nomatch", nil},
		{"grid", []string{"proposal-beta", "proposal-gamma"}},
	}
	for _, tc := range cases {
		got := idsOf(FilterByTerm(records, tc.term))
		if !equalIDs(got, tc.want) {
			t.Fatalf("FilterByTerm(%q) = %v, want %v", tc.term, got, tc.want)
		}
	}
}

func TestFilterByStatusDefaultsToMatchAll(t *testing.T) {
	records := sampleRecords()
	got := FilterByStatus(records, FilterSpec{ActorID: "org-acme"})
	if !equalIDs(idsOf(got), idsOf(records)) {
		t.Fatalf("both flags false must match everything, got %v", idsOf(got))
	}
}

func TestFilterByStatusAwaitingApproval(t *testing.T) {
	got := idsOf(FilterByStatus(sampleRecords(), FilterSpec{AwaitingApproval: true}))
	if !equalIDs(got, []string{"proposal-beta"}) {
		t.Fatalf("awaiting filter = %v, want proposal-beta only", got)
	}
}

func TestFilterByStatusActionRequired(t *testing.T) {
	// org-cargill never voted and requested neither proposal.
	got := idsOf(FilterByStatus(sampleRecords(), FilterSpec{ActionRequired: true, ActorID: "org-cargill"}))
	if !equalIDs(got, []string{"proposal-beta", "proposal-gamma"}) {
		t.Fatalf("action-required filter = %v", got)
	}

	// org-acme requested beta and already voted on gamma.
	got = idsOf(FilterByStatus(sampleRecords(), FilterSpec{ActionRequired: true, ActorID: "org-acme"}))
	if !equalIDs(got, nil) {
		t.Fatalf("expected no records for org-acme, got %v", got)
	}
}

func TestFilterByStatusFlagsComposeWithOr(t *testing.T) {
	spec := FilterSpec{AwaitingApproval: true, ActionRequired: true, ActorID: "org-cargill"}
	got := idsOf(FilterByStatus(sampleRecords(), spec))
	if !equalIDs(got, []string{"proposal-beta", "proposal-gamma"}) {
		t.Fatalf("combined status filter = %v", got)
	}
}

func TestApplyIntersectsIndependentAxes(t *testing.T) {
	records := sampleRecords()
	spec := FilterSpec{Term: "grid", AwaitingApproval: true}
	got := idsOf(Apply(records, spec))
	if !equalIDs(got, []string{"proposal-beta"}) {
		t.Fatalf("Apply = %v, want intersection proposal-beta", got)
	}
}

func TestApplyOrderIndependence(t *testing.T) {
	records := sampleRecords()
	spec := FilterSpec{Term: "lane", ActionRequired: true, ActorID: "org-cargill"}

	// Evaluating each axis against the original collection must yield the
	// same set as any sequential application order would.
	intersected := idsOf(Apply(records, spec))
	termThenStatus := idsOf(FilterByStatus(FilterByTerm(records, spec.Term), spec))
	statusThenTerm := idsOf(FilterByTerm(FilterByStatus(records, spec), spec.Term))
	if !equalIDs(intersected, termThenStatus) || !equalIDs(intersected, statusThenTerm) {
		t.Fatalf("composition is order dependent: %v vs %v vs %v", intersected, termThenStatus, statusThenTerm)
	}
}
