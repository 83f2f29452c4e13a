// Package domain holds the circuit and proposal record model shared by the
// view engine, the synchronizer, and the adapters.
package domain

import "time"

// Record is the merged view of a circuit or a proposal. Confirmed circuits
// and pending proposals live in distinct identifier namespaces and never
// share an ID, so one flat shape with a Proposed discriminator is enough to
// treat them uniformly while keeping the status predicates exact.
type Record struct {
	ID             string        `json:"id"`
	ManagementType string        `json:"circuit_management_type"`
	Comments       string        `json:"comments"`
	Members        []string      `json:"members"`
	Roster         []Service     `json:"roster"`
	Status         CircuitStatus `json:"status"`

	// Proposal-only fields; zero-valued on confirmed circuits.
	Proposed    bool         `json:"proposed"`
	RequesterID string       `json:"requester,omitempty"`
	Votes       []VoteRecord `json:"votes,omitempty"`
	CreatedAt   time.Time    `json:"created_time,omitzero"`
	UpdatedAt   time.Time    `json:"updated_time,omitzero"`
}

// RecordFromCircuit normalizes a raw circuit into a merged record.
func RecordFromCircuit(c Circuit) Record {
	c = normalizeCircuit(c)
	return Record{
		ID:             c.ID,
		ManagementType: c.ManagementType,
		Comments:       c.Comments,
		Members:        c.Members,
		Roster:         c.Roster,
		Status:         c.Status,
	}
}

// RecordFromProposal normalizes a raw proposal into a merged record.
func RecordFromProposal(p Proposal) Record {
	p = normalizeProposal(p)
	return Record{
		ID:             p.ID,
		ManagementType: p.ManagementType,
		Comments:       p.Comments,
		Members:        p.Members,
		Roster:         p.Roster,
		Status:         p.Status,
		Proposed:       true,
		RequesterID:    p.RequesterID,
		Votes:          p.Votes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// AwaitingApproval reports whether the record is a proposal that has
// received no decisive vote yet. Always false for confirmed circuits.
func (r Record) AwaitingApproval() bool {
	return r.Proposed && len(r.Votes) == 0
}

// ActionRequired reports whether actorID still owes a vote on this record:
// the record is a proposal, the actor is not its requester, and no vote
// from the actor is recorded.
func (r Record) ActionRequired(actorID string) bool {
	if !r.Proposed {
		return false
	}
	if actorID == r.RequesterID {
		return false
	}
	for _, vote := range r.Votes {
		if vote.VoterID == actorID {
			return false
		}
	}
	return true
}

// DistinctServiceTypes counts unique service types across the roster. A
// circuit hosting several services of one type counts that type once.
func (r Record) DistinctServiceTypes() int {
	seen := map[string]struct{}{}
	for _, svc := range r.Roster {
		seen[svc.ServiceType] = struct{}{}
	}
	return len(seen)
}

// Clone returns a deep copy so consumers cannot mutate shared snapshots.
func (r Record) Clone() Record {
	out := r
	out.Members = append([]string(nil), r.Members...)
	out.Votes = append([]VoteRecord(nil), r.Votes...)
	out.Roster = make([]Service, len(r.Roster))
	for i, svc := range r.Roster {
		svc.AllowedNodes = append([]string(nil), svc.AllowedNodes...)
		out.Roster[i] = svc
	}
	return out
}

// CloneRecords deep-copies a record slice.
func CloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, rec := range in {
		out[i] = rec.Clone()
	}
	return out
}
