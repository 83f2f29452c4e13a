package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hylla/krets/internal/domain"
)

func TestListCircuitsDecodesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/circuits" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Fatal("missing request id header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"id": "abcDE-01234",
					"circuit_management_type": "gameroom",
					"members": ["node-a", "node-b"],
					"roster": [
						{"service_id": "s1", "service_type": "scabbard", "allowed_nodes": ["node-a"]}
					]
				}
			],
			"paging": {"current": "/circuits?offset=0", "offset": 0, "limit": 100, "total": 1}
		}`))
	}))
	defer srv.Close()

	client := New(srv.URL)
	circuits, err := client.ListCircuits(context.Background())
	if err != nil {
		t.Fatalf("ListCircuits() error = %v", err)
	}
	if len(circuits) != 1 {
		t.Fatalf("got %d circuits, want 1", len(circuits))
	}
	if circuits[0].ID != "abcDE-01234" || circuits[0].ManagementType != "gameroom" {
		t.Fatalf("unexpected circuit %+v", circuits[0])
	}
	if len(circuits[0].Roster) != 1 || circuits[0].Roster[0].ServiceType != "scabbard" {
		t.Fatalf("unexpected roster %+v", circuits[0].Roster)
	}
}

func TestListProposalsUsesAdminEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/proposals" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"id": "p1", "requester": "org-a", "votes": []}]}`))
	}))
	defer srv.Close()

	proposals, err := New(srv.URL).ListProposals(context.Background())
	if err != nil {
		t.Fatalf("ListProposals() error = %v", err)
	}
	if len(proposals) != 1 || proposals[0].RequesterID != "org-a" {
		t.Fatalf("unexpected proposals %+v", proposals)
	}
}

func TestGetCircuitNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetCircuit(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a 404 must not read as a transport fault")
	}
}

func TestGetCircuitServerFaultIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetCircuit(context.Background(), "x1")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestGetProposalSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "invalid circuit id"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetProposal(context.Background(), "bad id")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("400 mapped onto the wrong taxonomy branch: %v", err)
	}
}

func TestConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := New(srv.URL).ListCircuits(context.Background())
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for refused connection, got %v", err)
	}
}

func TestNewTrimsBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/circuits/x1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x1"}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL + "/ ").GetCircuit(context.Background(), "x1"); err != nil {
		t.Fatalf("GetCircuit() error = %v", err)
	}
}
