package platform

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/creator/log"
	"github.com/ardnew/creator/macro"
)

// State is the state of a [Loader].
type State int

const (
	StateUnresolved State = iota // unresolved
	StateDetecting               // detecting
	StateLoaded                  // loaded
	StateError                   // error
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateDetecting:
		return "detecting"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Loader merges exactly one platform table into a store.
type Loader struct {
	registry Registry
	prober   Prober
	logger   log.Logger

	state State
	table string
	err   error
}

// Option configures a [Loader].
type Option func(*Loader)

// WithRegistry replaces the builtin tables.
func WithRegistry(r Registry) Option {
	return func(l *Loader) { l.registry = r }
}

// WithProber replaces the [ExecProber].
func WithProber(p Prober) Option {
	return func(l *Loader) { l.prober = p }
}

// WithLogger sets the logger for probe warnings.
func WithLogger(logger log.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader returns a loader in [StateUnresolved].
func NewLoader(opts ...Option) *Loader {
	l := &Loader{prober: ExecProber{}}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

// State returns the current state.
func (l *Loader) State() State { return l.state }

// Table returns the name of the loaded table.
func (l *Loader) Table() string { return l.table }

// Err returns the error that moved the loader to [StateError].
func (l *Loader) Err() error { return l.err }

// Load selects a table from the variables in s and defines its macros in
// s. Loading again is a no-op as long as the same table is selected.
func (l *Loader) Load(ctx context.Context, s *macro.Store) error {
	if l.state == StateError {
		return l.err
	}

	prev := l.state
	l.state = StateDetecting

	name, err := l.detect(s)

	if prev == StateLoaded {
		l.state = StateLoaded

		if err != nil {
			return err
		}

		if name != l.table {
			return ErrTableConflict.With(
				slog.String("loaded", l.table),
				slog.String("requested", name),
			)
		}

		return nil
	}

	if err != nil {
		return l.fail(err)
	}

	tables, err := l.registry.Resolve(name)
	if err != nil {
		return l.fail(err)
	}

	// A table that fails partway leaves s unchanged.
	staged := s.Scope()

	for _, t := range tables {
		if err := t.each(staged.Define); err != nil {
			return l.fail(ErrTable.Wrap(err).With(slog.String("table", t.Name)))
		}
	}

	s.Inherit(staged)

	for _, t := range tables {
		if t.Probe != nil {
			l.probe(ctx, s, t)
		}
	}

	l.state, l.table = StateLoaded, name

	l.logger.Debug("platform table loaded",
		slog.String("table", name),
		slog.Int("includes", len(tables)-1),
	)

	return nil
}

func (l *Loader) fail(err error) error {
	l.state, l.err = StateError, err

	return err
}

// detect returns the name of the table selected by s.
func (l *Loader) detect(s *macro.Store) (string, error) {
	if l.registry == nil {
		r, err := Builtin()
		if err != nil {
			return "", err
		}

		l.registry = r
	}

	override, err := lookup(s, VarOverride)
	if err != nil {
		return "", err
	}

	if override != "" {
		t, ok := l.registry.Lookup(override)
		if !ok {
			return "", ErrUnsupported.With(
				slog.String("override", override),
				slog.String("tables", strings.Join(l.registry.Names(), ",")),
			)
		}

		return t.Name, nil
	}

	id, err := lookup(s, VarPlatform)
	if err != nil {
		return "", err
	}

	if id == "" {
		id = Detect().Platform
	}

	if !slices.ContainsFunc(Supported, func(p string) bool { return strings.EqualFold(p, id) }) {
		return "", ErrUnsupported.With(
			slog.String("platform", id),
			slog.String("supported", strings.Join(Supported, ",")),
		)
	}

	t, ok := l.registry.Lookup(id)
	if !ok {
		return "", ErrUnknownTable.With(slog.String("platform", id))
	}

	return t.Name, nil
}

func lookup(s *macro.Store, name string) (string, error) {
	if !s.Defined(name) {
		return "", nil
	}

	return s.Get(name)
}

// probe runs the probe of t. Failures are logged and leave the probe
// variables undefined.
func (l *Loader) probe(ctx context.Context, s *macro.Store, t *Table) {
	vars, err := l.prober.Probe(ctx, t.Probe)
	if err == nil {
		for name, value := range vars {
			if err = s.DefineText(name, value); err != nil {
				break
			}
		}
	}

	if err != nil {
		l.logger.Warn("compiler probe failed",
			slog.String("table", t.Name),
			slog.Any("error", err),
		)
	}
}
