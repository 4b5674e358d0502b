// Package duty tracks the person currently on duty at the equipment desk
// and persists the choice so it survives restarts.
package duty

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/cautela"
	"github.com/letmevibethatforyou/cautela/custody"
	"github.com/letmevibethatforyou/cautela/kv"
	"github.com/letmevibethatforyou/cautela/reactive"
	"github.com/segmentio/ksuid"
)

// DefaultKey is the store key holding the active shift.
const DefaultKey = "plantonista_ativo"

// Shift is one period with a defined on-duty person.
type Shift struct {
	ID        string         `json:"shift_id"`
	StartedAt time.Time      `json:"started_at"`
	Person    custody.Person `json:"pessoa"`
}

// Option configures a Session.
type Option func(*Session)

// WithKey overrides the store key.
func WithKey(key string) Option {
	return func(s *Session) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger used to report discarded state.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used to stamp new shifts.
func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// Session owns the on-duty state. Create one per desk and share it.
type Session struct {
	store   kv.Store
	key     string
	logger  *slog.Logger
	clock   clock.Clock
	current *reactive.Cell[*Shift]
}

// New creates a session with no active shift. Call Restore to load the
// persisted one.
func New(store kv.Store, opts ...Option) *Session {
	s := &Session{
		store:   store,
		key:     DefaultKey,
		logger:  slog.Default(),
		clock:   clock.New(),
		current: reactive.NewCell[*Shift](nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Changes returns the cell holding the active shift; nil means none.
func (s *Session) Changes() *reactive.Cell[*Shift] {
	return s.current
}

// Current returns the active shift, if any.
func (s *Session) Current() (Shift, bool) {
	if sh := s.current.Get(); sh != nil {
		return *sh, true
	}
	return Shift{}, false
}

// Define starts a new shift for p and persists it. The in-memory state
// only changes once the store accepted the write.
func (s *Session) Define(ctx context.Context, p custody.Person) (Shift, error) {
	now := s.clock.Now()
	id, err := ksuid.NewRandomWithTime(now)
	if err != nil {
		return Shift{}, errors.Wrap(err, "failed to generate shift id")
	}

	shift := Shift{
		ID:        id.String(),
		StartedAt: now.UTC(),
		Person:    p,
	}
	data, err := json.Marshal(shift)
	if err != nil {
		return Shift{}, errors.Wrap(err, "failed to encode shift")
	}
	if err := s.store.Set(ctx, s.key, string(data)); err != nil {
		return Shift{}, errors.Wrapf(err, "failed to persist shift under %q", s.key)
	}

	s.current.Set(&shift)
	return shift, nil
}

// Restore loads the persisted shift.
//
// A missing key leaves the state untouched. Unreadable content clears the
// state and is logged, not returned. Only store failures are errors.
func (s *Session) Restore(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return errors.Wrapf(err, "failed to read shift under %q", s.key)
	}
	if !ok || raw == "" {
		return nil
	}

	shift, err := decodeShift(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding unreadable duty state",
			slog.String("key", s.key),
			slog.String("error", err.Error()))
		s.current.Set(nil)
		return nil
	}

	s.current.Set(&shift)
	return nil
}

// Clear ends the active shift and removes it from the store.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, s.key); err != nil {
		return errors.Wrapf(err, "failed to delete shift under %q", s.key)
	}
	s.current.Set(nil)
	return nil
}

// decodeShift accepts the shift envelope and also a bare person record,
// the format written by earlier desk clients.
func decodeShift(raw string) (Shift, error) {
	var envelope struct {
		ID        string          `json:"shift_id"`
		StartedAt time.Time       `json:"started_at"`
		Person    *custody.Person `json:"pessoa"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return Shift{}, errors.Wrap(cautela.ErrInvalidRecord, err.Error())
	}
	if envelope.Person != nil {
		if envelope.Person.Name == "" {
			return Shift{}, errors.Wrap(cautela.ErrInvalidRecord, "shift without person name")
		}
		return Shift{ID: envelope.ID, StartedAt: envelope.StartedAt, Person: *envelope.Person}, nil
	}

	var p custody.Person
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Shift{}, errors.Wrap(cautela.ErrInvalidRecord, err.Error())
	}
	if p.Name == "" {
		return Shift{}, errors.Wrap(cautela.ErrInvalidRecord, "record has no person")
	}
	return Shift{Person: p}, nil
}
