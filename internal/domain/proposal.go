package domain

import (
	"strings"
	"time"
)

// Vote represents a recorded ballot value on a proposal.
type Vote string

// Vote values.
const (
	VoteAccept Vote = "accept"
	VoteReject Vote = "reject"
)

// VoteRecord stores one party's ballot on a pending proposal.
type VoteRecord struct {
	VoterID string    `json:"voter_id"`
	Vote    Vote      `json:"vote"`
	CastAt  time.Time `json:"cast_at"`
}

// Proposal is a pending, not-yet-confirmed circuit awaiting votes.
type Proposal struct {
	ID             string        `json:"id"`
	ManagementType string        `json:"circuit_management_type"`
	Comments       string        `json:"comments"`
	Members        []string      `json:"members"`
	Roster         []Service     `json:"roster"`
	Status         CircuitStatus `json:"status"`
	RequesterID    string        `json:"requester"`
	Votes          []VoteRecord  `json:"votes"`
	CreatedAt      time.Time     `json:"created_time"`
	UpdatedAt      time.Time     `json:"updated_time"`
}

// normalizeProposal trims identifier fields and drops malformed vote rows.
func normalizeProposal(p Proposal) Proposal {
	p.ID = strings.TrimSpace(p.ID)
	p.ManagementType = strings.TrimSpace(p.ManagementType)
	p.Comments = strings.TrimSpace(p.Comments)
	if p.Comments == "" {
		p.Comments = CommentsSentinel
	}
	p.Members = normalizeMemberList(p.Members)
	p.Roster = normalizeRoster(p.Roster)
	p.RequesterID = strings.TrimSpace(p.RequesterID)
	if p.Status == "" {
		p.Status = StatusPending
	}

	votes := make([]VoteRecord, 0, len(p.Votes))
	for _, vote := range p.Votes {
		vote.VoterID = strings.TrimSpace(vote.VoterID)
		vote.Vote = Vote(strings.TrimSpace(strings.ToLower(string(vote.Vote))))
		if vote.VoterID == "" {
			continue
		}
		if vote.Vote != VoteAccept && vote.Vote != VoteReject {
			continue
		}
		votes = append(votes, vote)
	}
	p.Votes = votes
	return p
}
