package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/hylla/krets/internal/domain"
	"github.com/hylla/krets/internal/view"
)

type fakeRegistry struct {
	mu sync.Mutex

	circuits  []domain.Circuit
	proposals []domain.Proposal

	listCircuitsErr  error
	listProposalsErr error
	getCircuitErr    error
	getProposalErr   error

	getCircuitCalls  int
	getProposalCalls int

	// listCircuitsHook runs inside ListCircuits, before the stored result
	// is returned, to model slow or interleaved cycles.
	listCircuitsHook func()
}

func (f *fakeRegistry) ListCircuits(_ context.Context) ([]domain.Circuit, error) {
	f.mu.Lock()
	hook := f.listCircuitsHook
	circuits := append([]domain.Circuit(nil), f.circuits...)
	err := f.listCircuitsErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return circuits, nil
}

func (f *fakeRegistry) ListProposals(_ context.Context) ([]domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listProposalsErr != nil {
		return nil, f.listProposalsErr
	}
	return append([]domain.Proposal(nil), f.proposals...), nil
}

func (f *fakeRegistry) GetCircuit(_ context.Context, id string) (domain.Circuit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCircuitCalls++
	if f.getCircuitErr != nil {
		return domain.Circuit{}, f.getCircuitErr
	}
	for _, c := range f.circuits {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Circuit{}, domain.ErrNotFound
}

func (f *fakeRegistry) GetProposal(_ context.Context, id string) (domain.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getProposalCalls++
	if f.getProposalErr != nil {
		return domain.Proposal{}, f.getProposalErr
	}
	for _, p := range f.proposals {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Proposal{}, domain.ErrNotFound
}

func newTestService(registry *fakeRegistry) *Service {
	return NewService(registry, view.NewStore(view.SortSpec{}), nil, ServiceConfig{})
}

func TestRefreshAllMergesBothNamespaces(t *testing.T) {
	registry := &fakeRegistry{
		circuits:  []domain.Circuit{{ID: "c1"}, {ID: "c2"}},
		proposals: []domain.Proposal{{ID: "p1", RequesterID: "org-a"}},
	}
	svc := newTestService(registry)
	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}
	got := svc.Store().VisibleView()
	if len(got) != 3 {
		t.Fatalf("visible view has %d records, want 3", len(got))
	}
	for _, rec := range got {
		if rec.ID == "p1" && !rec.Proposed {
			t.Fatal("proposal lost its pending discrimination in the merge")
		}
	}
}

func TestRefreshAllFailureKeepsPreviousView(t *testing.T) {
	registry := &fakeRegistry{circuits: []domain.Circuit{{ID: "c1"}}}
	svc := newTestService(registry)
	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}

	registry.mu.Lock()
	registry.circuits = []domain.Circuit{{ID: "c1"}, {ID: "c2"}}
	registry.listProposalsErr = fmt.Errorf("%w: connection refused", domain.ErrUnavailable)
	registry.mu.Unlock()

	err := svc.RefreshAll(context.Background())
	if err == nil {
		t.Fatal("expected refresh failure")
	}
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected transport error, got %v", err)
	}
	got := svc.Store().VisibleView()
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("previous view not retained: %v", got)
	}
}

func TestRefreshAllNoPartialPopulation(t *testing.T) {
	registry := &fakeRegistry{
		circuits:        []domain.Circuit{{ID: "c1"}},
		listCircuitsErr: fmt.Errorf("%w: 503", domain.ErrUnavailable),
		proposals:       []domain.Proposal{{ID: "p1"}},
	}
	svc := newTestService(registry)
	if err := svc.RefreshAll(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}
	if svc.Store().Populated() {
		t.Fatal("failed refresh must not populate the store")
	}
}

func TestOverlappingCyclesNewestGenerationWins(t *testing.T) {
	registry := &fakeRegistry{circuits: []domain.Circuit{{ID: "old"}}}
	svc := newTestService(registry)

	slowDone := make(chan error, 1)
	release := make(chan struct{})
	registry.mu.Lock()
	registry.listCircuitsHook = func() { <-release }
	registry.mu.Unlock()
	go func() {
		slowDone <- svc.RefreshAll(context.Background())
	}()

	// Let the slow cycle claim its generation before starting the fast one.
	waitFor(t, func() bool {
		return svc.generation.Load() >= 1
	})

	registry.mu.Lock()
	registry.listCircuitsHook = nil
	registry.circuits = []domain.Circuit{{ID: "new-1"}, {ID: "new-2"}}
	registry.mu.Unlock()
	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("fast RefreshAll() error = %v", err)
	}

	close(release)
	if err := <-slowDone; err != nil {
		t.Fatalf("slow RefreshAll() error = %v", err)
	}

	got := svc.Store().VisibleView()
	if len(got) != 2 {
		t.Fatalf("stale cycle overwrote the newer snapshot: %v got", len(got))
	}
}

func TestResolveOnePrefersCircuitNamespace(t *testing.T) {
	registry := &fakeRegistry{
		circuits:  []domain.Circuit{{ID: "x1", ManagementType: "gameroom"}},
		proposals: []domain.Proposal{{ID: "p1"}},
	}
	svc := newTestService(registry)
	rec, err := svc.ResolveOne(context.Background(), "x1")
	if err != nil {
		t.Fatalf("ResolveOne() error = %v", err)
	}
	if rec.Proposed {
		t.Fatal("circuit resolved as proposal")
	}
	if registry.getProposalCalls != 0 {
		t.Fatal("proposal namespace queried despite circuit hit")
	}
}

func TestResolveOneFallsBackOnNotFound(t *testing.T) {
	registry := &fakeRegistry{
		proposals: []domain.Proposal{{ID: "x2", RequesterID: "org-a"}},
	}
	svc := newTestService(registry)
	rec, err := svc.ResolveOne(context.Background(), "x2")
	if err != nil {
		t.Fatalf("ResolveOne() error = %v", err)
	}
	if !rec.Proposed {
		t.Fatal("fallback hit lost its proposal discrimination")
	}
	if registry.getCircuitCalls != 1 || registry.getProposalCalls != 1 {
		t.Fatalf("unexpected call counts: circuits=%d proposals=%d", registry.getCircuitCalls, registry.getProposalCalls)
	}
}

func TestResolveOneTransportErrorShortCircuits(t *testing.T) {
	registry := &fakeRegistry{
		getCircuitErr: fmt.Errorf("%w: connection reset", domain.ErrUnavailable),
		proposals:     []domain.Proposal{{ID: "x3"}},
	}
	svc := newTestService(registry)
	_, err := svc.ResolveOne(context.Background(), "x3")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		t.Fatal("transport error must not masquerade as not found")
	}
	if registry.getProposalCalls != 0 {
		t.Fatal("proposal namespace queried after transport failure")
	}
}

func TestResolveOneMissingEverywhere(t *testing.T) {
	svc := newTestService(&fakeRegistry{})
	_, err := svc.ResolveOne(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveOneRequiresID(t *testing.T) {
	svc := newTestService(&fakeRegistry{})
	_, err := svc.ResolveOne(context.Background(), "   ")
	if err == nil {
		t.Fatal("expected error for blank id")
	}
	var validation *view.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if validation.Field != "record id" {
		t.Fatalf("unexpected field %q", validation.Field)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	registry := &fakeRegistry{circuits: []domain.Circuit{{ID: "c1"}}}
	svc := NewService(registry, view.NewStore(view.SortSpec{}), nil, ServiceConfig{RefreshInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	waitFor(t, svc.Store().Populated)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
