package domain

import "strings"

// CircuitStatus represents canonical circuit status values.
type CircuitStatus string

// Canonical circuit statuses.
const (
	StatusActive   CircuitStatus = "active"
	StatusPending  CircuitStatus = "pending"
	StatusRejected CircuitStatus = "rejected"
)

// CommentsSentinel marks a circuit created without comments.
const CommentsSentinel = "N/A"

// Service describes one service entry in a circuit roster.
type Service struct {
	ServiceID    string   `json:"service_id"`
	ServiceType  string   `json:"service_type"`
	AllowedNodes []string `json:"allowed_nodes"`
}

// Circuit is a confirmed, active multi-party collaboration record.
type Circuit struct {
	ID             string        `json:"id"`
	ManagementType string        `json:"circuit_management_type"`
	Comments       string        `json:"comments"`
	Members        []string      `json:"members"`
	Roster         []Service     `json:"roster"`
	Status         CircuitStatus `json:"status"`
}

// normalizeCircuit trims identifier fields and applies the comments sentinel.
func normalizeCircuit(c Circuit) Circuit {
	c.ID = strings.TrimSpace(c.ID)
	c.ManagementType = strings.TrimSpace(c.ManagementType)
	c.Comments = strings.TrimSpace(c.Comments)
	if c.Comments == "" {
		c.Comments = CommentsSentinel
	}
	c.Members = normalizeMemberList(c.Members)
	c.Roster = normalizeRoster(c.Roster)
	if c.Status == "" {
		c.Status = StatusActive
	}
	return c
}

// normalizeRoster trims roster entries and drops rows without a service id.
// An empty roster is tolerated; well-formed circuits carry at least one entry.
func normalizeRoster(in []Service) []Service {
	out := make([]Service, 0, len(in))
	for _, svc := range in {
		svc.ServiceID = strings.TrimSpace(svc.ServiceID)
		svc.ServiceType = strings.TrimSpace(svc.ServiceType)
		svc.AllowedNodes = normalizeMemberList(svc.AllowedNodes)
		if svc.ServiceID == "" {
			continue
		}
		out = append(out, svc)
	}
	return out
}

// normalizeMemberList trims and deduplicates node identifier lists.
func normalizeMemberList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, raw := range in {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
