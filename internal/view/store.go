package view

import (
	"fmt"
	"sync"

	"github.com/hylla/krets/internal/domain"
)

// Action is the single mutation surface of the store. All state changes
// arrive as one of the concrete action types below; nothing mutates store
// fields directly.
type Action interface {
	isAction()
}

// SetCollection replaces the unfiltered collection wholesale. Generation
// orders overlapping refresh cycles: a value lower than or equal to the
// last applied one is discarded so a slow cycle cannot overwrite a newer
// snapshot. Generation zero bypasses the guard.
type SetCollection struct {
	Records    []domain.Record
	Generation uint64
}

// ApplyTermFilter replaces the free-text filter term.
type ApplyTermFilter struct {
	Term string
}

// StatusFilter carries the opt-in status filter flags.
type StatusFilter struct {
	AwaitingApproval bool
	ActionRequired   bool
	ActorID          string
}

// ApplyStatusFilter replaces the status filter flags, leaving the term
// filter untouched.
type ApplyStatusFilter struct {
	Filter StatusFilter
}

// ApplySort replaces the active sort specification.
type ApplySort struct {
	Spec SortSpec
}

func (SetCollection) isAction()     {}
func (ApplyTermFilter) isAction()   {}
func (ApplyStatusFilter) isAction() {}
func (ApplySort) isAction()         {}

// Store owns the unfiltered collection, the active filter and sort specs,
// and the derived visible view. The view is a pure function of those three
// inputs and is recomputed in full on every change; it is never patched
// incrementally. There is no error state: a failed refresh simply never
// dispatches, leaving the previous view visible.
type Store struct {
	mu         sync.Mutex
	collection []domain.Record
	filter     FilterSpec
	sort       SortSpec
	visible    []domain.Record
	populated  bool
	generation uint64
}

// NewStore constructs an empty store with the given initial sort. A zero
// key falls back to sorting by id ascending.
func NewStore(initialSort SortSpec) *Store {
	if initialSort.Key == "" {
		initialSort = SortSpec{Key: SortByID, Ascending: true}
	}
	return &Store{sort: initialSort}
}

// Dispatch applies one action and recomputes the visible view. A malformed
// sort spec surfaces as a *ValidationError and leaves the store unchanged.
func (s *Store) Dispatch(action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch act := action.(type) {
	case SetCollection:
		if act.Generation != 0 && act.Generation <= s.generation {
			return nil
		}
		s.collection = domain.CloneRecords(act.Records)
		s.populated = true
		if act.Generation != 0 {
			s.generation = act.Generation
		}
	case ApplyTermFilter:
		s.filter.Term = act.Term
	case ApplyStatusFilter:
		s.filter.AwaitingApproval = act.Filter.AwaitingApproval
		s.filter.ActionRequired = act.Filter.ActionRequired
		s.filter.ActorID = act.Filter.ActorID
	case ApplySort:
		if _, err := Less(act.Spec); err != nil {
			return err
		}
		s.sort = act.Spec
	default:
		return fmt.Errorf("unsupported action %T", action)
	}
	return s.recompute()
}

// recompute derives the visible view from the unfiltered collection and
// the active specs. Callers must hold s.mu.
func (s *Store) recompute() error {
	filtered := Apply(s.collection, s.filter)
	visible := make([]domain.Record, len(filtered))
	copy(visible, filtered)
	if err := Sort(visible, s.sort); err != nil {
		return err
	}
	s.visible = visible
	return nil
}

// VisibleView returns a deep copy of the current filtered, sorted view.
func (s *Store) VisibleView() []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneRecords(s.visible)
}

// Populated reports whether at least one collection snapshot was applied.
func (s *Store) Populated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.populated
}

// Filter returns the active filter specification.
func (s *Store) Filter() FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Sort returns the active sort specification.
func (s *Store) Sort() SortSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

// Collection returns a deep copy of the unfiltered collection.
func (s *Store) Collection() []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneRecords(s.collection)
}

// Size returns the unfiltered collection length.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.collection)
}
