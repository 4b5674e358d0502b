package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/reactive"
)

// Selection adds single-item selection and an open/closed list state to a
// Search session, for combobox-style pickers.
//
// Open state and selection are independent: picking an item closes the
// list, and emptying the query clears the selection without touching the
// open state.
type Selection[T any] struct {
	mu                 sync.Mutex
	search             *Search[T]
	label              func(T) string
	open               *reactive.Cell[bool]
	selected           *reactive.Cell[*T]
	clock              clock.Clock
	closeDelay         time.Duration
	reopenCancelsClose bool
	closeTimer         *clock.Timer
	closeGen           uint64
	stopped            bool
}

// NewSelection creates a closed selection session with nothing selected.
// label renders a picked item into the query text.
func NewSelection[T any](source *reactive.Cell[[]T], matcher cautela.Matcher[T], label func(T) string, opts ...Option) *Selection[T] {
	cfg := newConfig(opts)
	return &Selection[T]{
		search:             NewSearch(source, matcher, opts...),
		label:              label,
		open:               reactive.NewCell(false),
		selected:           reactive.NewCell[*T](nil),
		clock:              cfg.clock,
		closeDelay:         cfg.closeDelay,
		reopenCancelsClose: cfg.reopenCancelsClose,
	}
}

// Search returns the underlying search session.
func (s *Selection[T]) Search() *Search[T] {
	return s.search
}

// Query returns the query cell of the underlying search session.
func (s *Selection[T]) Query() *reactive.Cell[string] {
	return s.search.Query()
}

// Results returns the result cell of the underlying search session.
func (s *Selection[T]) Results() *reactive.Cell[[]T] {
	return s.search.Results()
}

// Busy returns the busy cell of the underlying search session.
func (s *Selection[T]) Busy() *reactive.Cell[bool] {
	return s.search.Busy()
}

// OpenState returns the open/closed cell.
func (s *Selection[T]) OpenState() *reactive.Cell[bool] {
	return s.open
}

// Selection returns the selection cell; nil means nothing is selected.
func (s *Selection[T]) Selection() *reactive.Cell[*T] {
	return s.selected
}

// IsOpen reports whether the list is open.
func (s *Selection[T]) IsOpen() bool {
	return s.open.Get()
}

// Selected returns the current selection, if any.
func (s *Selection[T]) Selected() (T, bool) {
	if p := s.selected.Get(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Open opens the list, cancelling a pending deferred close unless the
// session was built with WithReopenCancelsClose(false).
func (s *Selection[T]) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.reopenCancelsClose {
		s.cancelCloseLocked()
	}
	s.open.Set(true)
}

// Close closes the list immediately.
func (s *Selection[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.cancelCloseLocked()
	s.open.Set(false)
}

// CloseDeferred closes the list after the close delay, giving a concurrent
// pick time to register first. A close that is already pending is kept.
func (s *Selection[T]) CloseDeferred() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.closeTimer != nil {
		return
	}
	s.closeGen++
	gen := s.closeGen
	s.closeTimer = s.clock.AfterFunc(s.closeDelay, func() {
		s.fireClose(gen)
	})
}

// Select stores item as the selection, renders it into the query and
// closes the list.
func (s *Selection[T]) Select(item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.selected.Set(&item)
	s.search.SetQuery(s.label(item))
	s.cancelCloseLocked()
	s.open.Set(false)
}

// Clear drops the selection, empties the query and closes the list.
func (s *Selection[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.selected.Set(nil)
	s.search.SetQuery("")
	s.cancelCloseLocked()
	s.open.Set(false)
}

// SetQuery overwrites the query. An empty text also clears the selection so
// it stays consistent with what is displayed. The open state is unchanged.
func (s *Selection[T]) SetQuery(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.search.SetQuery(text)
	if text == "" {
		s.selected.Set(nil)
	}
}

// Stop cancels a pending deferred close and stops the search session.
// Safe to call multiple times.
func (s *Selection[T]) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.cancelCloseLocked()
	s.mu.Unlock()

	s.search.Stop()
}

func (s *Selection[T]) fireClose(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || gen != s.closeGen {
		return
	}
	s.closeTimer = nil
	s.open.Set(false)
}

func (s *Selection[T]) cancelCloseLocked() {
	s.closeGen++
	if s.closeTimer != nil {
		s.closeTimer.Stop()
		s.closeTimer = nil
	}
}
