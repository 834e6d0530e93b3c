package view

import (
	"sync"

	"github.com/nhle/taskmaster/internal/model"
)

// State holds the current Query shared by the UI and the voice interpreter,
// plus whether the trash tray is open.
type State struct {
	mu        sync.RWMutex
	q         Query
	trashOpen bool
	onChange  func()
}

// NewState starts from DefaultQuery.
func NewState() *State {
	return &State{q: DefaultQuery()}
}

// SetOnChange registers the callback fired after any state change.
func (s *State) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Query returns the current query.
func (s *State) Query() Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q
}

// TrashOpen reports whether the deleted-items tray is shown.
func (s *State) TrashOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trashOpen
}

func (s *State) mutate(fn func()) {
	s.mu.Lock()
	fn()
	cb := s.onChange
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// SetStatus changes the status filter.
func (s *State) SetStatus(st Status) { s.mutate(func() { s.q.Status = st }) }

// SetPriority changes the priority filter.
func (s *State) SetPriority(p model.Priority) { s.mutate(func() { s.q.Priority = p }) }

// SetSearch changes the search text.
func (s *State) SetSearch(text string) { s.mutate(func() { s.q.Search = text }) }

// SetSort changes the sort mode.
func (s *State) SetSort(so Sort) { s.mutate(func() { s.q.Sort = so }) }

// SetTrashOpen opens or closes the deleted-items tray.
func (s *State) SetTrashOpen(open bool) { s.mutate(func() { s.trashOpen = open }) }

// CycleSort advances to the next sort mode.
func (s *State) CycleSort() {
	s.mutate(func() { s.q.Sort = next(Sorts, s.q.Sort) })
}

// CycleStatus advances to the next status filter.
func (s *State) CycleStatus() {
	s.mutate(func() { s.q.Status = next(Statuses, s.q.Status) })
}

// CyclePriority steps through all, high, medium, low.
func (s *State) CyclePriority() {
	order := append([]model.Priority{PriorityAll}, model.Priorities...)
	s.mutate(func() { s.q.Priority = next(order, s.q.Priority) })
}

func next[T comparable](cycle []T, cur T) T {
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}
