package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/reactive"
)

// Search keeps a result set in step with a query and a source collection.
//
// In synchronous mode every change recomputes immediately. In debounced
// mode a query change marks the session busy and schedules one recompute
// after the quiet period; further changes cancel and reschedule it, so
// only the last query of a burst is evaluated. Source changes always
// recompute immediately with the current query.
//
// Results and Busy are published after the session lock is released, so
// their subscribers may write the query.
type Search[T any] struct {
	mu          sync.Mutex
	matcher     cautela.Matcher[T]
	source      *reactive.Cell[[]T]
	query       *reactive.Cell[string]
	busy        *reactive.Cell[bool]
	results     *reactive.Cell[[]T]
	debounce    time.Duration
	clock       clock.Clock
	logger      *slog.Logger
	timer       *clock.Timer
	generation  uint64
	stopped     bool
	unsubscribe []func()
}

// NewSearch creates a search session over source using matcher.
// The initial result set is the full source.
func NewSearch[T any](source *reactive.Cell[[]T], matcher cautela.Matcher[T], opts ...Option) *Search[T] {
	cfg := newConfig(opts)
	s := &Search[T]{
		matcher:  matcher,
		source:   source,
		query:    reactive.NewCell(""),
		busy:     reactive.NewCell(false),
		debounce: cfg.debounce,
		clock:    cfg.clock,
		logger:   cfg.logger,
	}
	s.results = reactive.NewCell(matcher.Match(source.Get(), ""))
	s.unsubscribe = []func(){
		source.Subscribe(s.onSource),
		s.query.Subscribe(s.onQuery),
	}
	return s
}

// Query returns the caller-writable query cell.
func (s *Search[T]) Query() *reactive.Cell[string] {
	return s.query
}

// SetQuery overwrites the query.
func (s *Search[T]) SetQuery(q string) {
	s.query.Set(q)
}

// Results returns the derived result cell. Callers must not Set it.
func (s *Search[T]) Results() *reactive.Cell[[]T] {
	return s.results
}

// Busy returns a cell that is true while a debounced recompute is pending.
func (s *Search[T]) Busy() *reactive.Cell[bool] {
	return s.busy
}

// Source returns the source collection cell.
func (s *Search[T]) Source() *reactive.Cell[[]T] {
	return s.source
}

// Stop cancels any pending recompute and detaches from the source and
// query cells. Later changes are ignored. Safe to call multiple times.
// A cancelled recompute clears Busy.
func (s *Search[T]) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.generation++
	pending := s.timer != nil
	if pending {
		s.timer.Stop()
		s.timer = nil
	}
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, u := range unsubscribe {
		u()
	}
	if pending {
		s.busy.Set(false)
	}
}

func (s *Search[T]) onQuery(string) {
	if s.debounce <= 0 {
		s.mu.Lock()
		if s.stopped {
			s.mu.Unlock()
			return
		}
		results := s.recomputeLocked()
		s.mu.Unlock()

		s.results.Set(results)
		return
	}

	// Busy is raised before the timer exists, so the recompute that clears
	// it is always published after.
	s.busy.Set(true)

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.busy.Set(false)
		return
	}
	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.clock.AfterFunc(s.debounce, func() {
		s.flush(gen)
	})
	s.mu.Unlock()
}

func (s *Search[T]) onSource([]T) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	results := s.recomputeLocked()
	s.mu.Unlock()

	s.results.Set(results)
}

// flush runs a scheduled recompute unless a newer query superseded it.
func (s *Search[T]) flush(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded search recompute", slog.Uint64("generation", gen))
		return
	}
	s.timer = nil
	results := s.recomputeLocked()
	s.mu.Unlock()

	s.results.Set(results)

	// A results subscriber may have scheduled a newer recompute.
	s.mu.Lock()
	idle := s.timer == nil
	s.mu.Unlock()
	if idle {
		s.busy.Set(false)
	}
}

// recomputeLocked always reads the latest query and source. The caller
// publishes the returned set after releasing the lock.
func (s *Search[T]) recomputeLocked() []T {
	return s.matcher.Match(s.source.Get(), s.query.Get())
}
