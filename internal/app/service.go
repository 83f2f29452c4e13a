// Package app drives synchronization between the remote registry and the
// view state store, and resolves single-record lookups across the circuit
// and proposal namespaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hylla/krets/internal/domain"
	"github.com/hylla/krets/internal/view"
)

// DefaultRefreshInterval is the cadence of periodic refresh cycles.
const DefaultRefreshInterval = 10 * time.Second

// Registry is the port to the remote node registry. List calls return the
// full collection for their namespace; Get calls fail with
// domain.ErrNotFound for a semantic miss and domain.ErrUnavailable-wrapped
// errors for transport faults.
type Registry interface {
	ListCircuits(context.Context) ([]domain.Circuit, error)
	ListProposals(context.Context) ([]domain.Proposal, error)
	GetCircuit(context.Context, string) (domain.Circuit, error)
	GetProposal(context.Context, string) (domain.Proposal, error)
}

// Clock returns the current time.
type Clock func() time.Time

// ServiceConfig holds configuration for the synchronizer.
type ServiceConfig struct {
	RefreshInterval time.Duration
}

// Service populates the view state store from the registry. Refresh cycles
// are not serialized: a slow cycle may overlap the next tick, and the
// store's generation guard decides which snapshot wins.
type Service struct {
	registry Registry
	store    *view.Store
	clock    Clock
	interval time.Duration

	// generation stamps each refresh cycle at start so the store can
	// discard responses from cycles that were superseded while in flight.
	generation atomic.Uint64
}

// NewService constructs a synchronizer over the given registry and store.
func NewService(registry Registry, store *view.Store, clock Clock, cfg ServiceConfig) *Service {
	if clock == nil {
		clock = time.Now
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	return &Service{
		registry: registry,
		store:    store,
		clock:    clock,
		interval: cfg.RefreshInterval,
	}
}

// Store exposes the view state store to consumers.
func (s *Service) Store() *view.Store {
	return s.store
}

// RefreshAll retrieves the circuit and proposal collections concurrently,
// merges them, and replaces the store collection. Failure of either fetch
// fails the whole refresh; the previously visible view stays untouched.
func (s *Service) RefreshAll(ctx context.Context) error {
	generation := s.generation.Add(1)
	started := s.clock()

	circuitsCh := make(chan fetchResult[domain.Circuit], 1)
	proposalsCh := make(chan fetchResult[domain.Proposal], 1)
	go func() {
		circuits, err := s.registry.ListCircuits(ctx)
		circuitsCh <- fetchResult[domain.Circuit]{items: circuits, err: err}
	}()
	go func() {
		proposals, err := s.registry.ListProposals(ctx)
		proposalsCh <- fetchResult[domain.Proposal]{items: proposals, err: err}
	}()
	circuits := <-circuitsCh
	proposals := <-proposalsCh

	if circuits.err != nil {
		return fmt.Errorf("list circuits: %w", circuits.err)
	}
	if proposals.err != nil {
		return fmt.Errorf("list proposals: %w", proposals.err)
	}

	records := make([]domain.Record, 0, len(circuits.items)+len(proposals.items))
	for _, circuit := range circuits.items {
		records = append(records, domain.RecordFromCircuit(circuit))
	}
	for _, proposal := range proposals.items {
		records = append(records, domain.RecordFromProposal(proposal))
	}

	if err := s.store.Dispatch(view.SetCollection{Records: records, Generation: generation}); err != nil {
		return fmt.Errorf("set collection: %w", err)
	}
	log.Debug("refresh applied",
		"generation", generation,
		"circuits", len(circuits.items),
		"proposals", len(proposals.items),
		"elapsed", s.clock().Sub(started),
	)
	return nil
}

// fetchResult carries one namespace fetch across its goroutine boundary.
type fetchResult[T any] struct {
	items []T
	err   error
}

// ResolveOne looks id up in the circuit namespace first and falls back to
// the proposal namespace only on a semantic miss. A transport error from
// the circuit namespace propagates immediately so an outage is never
// reported as a missing record. Missing from both namespaces yields
// domain.ErrNotFound.
func (s *Service) ResolveOne(ctx context.Context, id string) (domain.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		// Programmer error at the call surface, same class as a malformed
		// sort or filter spec.
		return domain.Record{}, &view.ValidationError{Field: "record id", Value: id}
	}

	circuit, err := s.registry.GetCircuit(ctx, id)
	if err == nil {
		return domain.RecordFromCircuit(circuit), nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Record{}, fmt.Errorf("get circuit %s: %w", id, err)
	}

	proposal, err := s.registry.GetProposal(ctx, id)
	if err == nil {
		return domain.RecordFromProposal(proposal), nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Record{}, fmt.Errorf("resolve %s: %w", id, domain.ErrNotFound)
	}
	return domain.Record{}, fmt.Errorf("get proposal %s: %w", id, err)
}

// Run performs an initial refresh and then re-runs RefreshAll on the
// configured interval until ctx is cancelled. Ticks fire independently of
// whether the previous cycle completed; each cycle runs in its own
// goroutine and carries a correlation id for log lines.
func (s *Service) Run(ctx context.Context) {
	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go s.runCycle(ctx)
		}
	}
}

// runCycle executes one refresh and logs its outcome.
func (s *Service) runCycle(ctx context.Context) {
	cycleID := uuid.NewString()
	if err := s.RefreshAll(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		// Stale-but-available beats empty: the store keeps the prior view.
		log.Warn("refresh failed, keeping previous view", "cycle_id", cycleID, "error", err)
		return
	}
	log.Debug("refresh cycle complete", "cycle_id", cycleID)
}
