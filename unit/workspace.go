package unit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/creator/log"
	"github.com/ardnew/creator/macro"
	"github.com/ardnew/creator/pkg"
	"github.com/ardnew/creator/platform"
)

// Workspace is the root of a build session. It owns the global scope and
// every loaded unit.
type Workspace struct {
	cfg     config
	store   *macro.Store
	loader  *platform.Loader
	host    platform.Host
	units   map[string]*Unit
	order   []*Unit
	byStore map[*macro.Store]*Unit
	loading []string
}

// New creates a workspace. The host platform variables are defined in the
// global scope and the profile script, if configured, is run.
func New(ctx context.Context, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		cfg:     makeConfig(opts...),
		units:   make(map[string]*Unit),
		byStore: make(map[*macro.Store]*Unit),
	}

	mopts := []macro.Option{
		macro.WithStrict(w.cfg.strict),
		macro.WithQuoteStyle(w.cfg.quote),
		macro.WithResolver(w),
		macro.WithLogger(w.cfg.logger),
	}
	if w.cfg.environ != nil {
		mopts = append(mopts, macro.WithEnviron(w.cfg.environ))
	}

	w.store = macro.NewStore(mopts...)
	w.loader = platform.NewLoader(
		append([]platform.Option{platform.WithLogger(w.cfg.logger)}, w.cfg.loader...)...,
	)

	if w.cfg.host != nil {
		w.host = *w.cfg.host
	} else {
		w.host = platform.Detect()
	}

	if err := w.host.Define(w.store); err != nil {
		return nil, err
	}

	if err := w.runProfile(ctx); err != nil {
		return nil, err
	}

	return w, nil
}

// Store returns the global scope.
func (w *Workspace) Store() *macro.Store { return w.store }

// Host returns the host platform.
func (w *Workspace) Host() platform.Host { return w.host }

// Logger returns the workspace logger.
func (w *Workspace) Logger() log.Logger { return w.cfg.logger }

// Path returns the unit search path.
func (w *Workspace) Path() []string { return slices.Clone(w.cfg.path) }

// Platform returns the platform table loader.
func (w *Workspace) Platform() *platform.Loader { return w.loader }

// LoadPlatform loads the platform table into the global scope.
func (w *Workspace) LoadPlatform(ctx context.Context) error {
	return w.loader.Load(ctx, w.store)
}

// Define binds a global variable to literal text.
func (w *Workspace) Define(name, value string) error {
	return w.store.DefineText(name, value)
}

// DefineMacro binds a global variable to a macro expression.
func (w *Workspace) DefineMacro(name, value string) error {
	return w.store.Define(name, value)
}

// Units returns the loaded units sorted by identifier.
func (w *Workspace) Units() []*Unit {
	units := slices.Clone(w.order)
	slices.SortFunc(units, func(a, b *Unit) int { return strings.Compare(a.id, b.id) })

	return units
}

// Unit returns a loaded unit.
func (w *Workspace) Unit(id string) (*Unit, bool) {
	u, ok := w.units[id]

	return u, ok
}

// Namespace implements [macro.Resolver]. Aliases declared by the unit of
// from take precedence over unit identifiers.
func (w *Workspace) Namespace(from *macro.Store, ns string) (*macro.Store, bool) {
	for s := from; s != nil; s = s.Parent() {
		if u, ok := w.byStore[s]; ok {
			if id, ok := u.aliases[ns]; ok {
				if target, ok := w.units[id]; ok {
					return target.store, true
				}
			}

			break
		}
	}

	if u, ok := w.units[ns]; ok {
		return u.store, true
	}

	return nil, false
}

// Load finds, loads and runs the script of unit id. A unit is loaded at
// most once.
func (w *Workspace) Load(ctx context.Context, id string) (*Unit, error) {
	if err := validate("unit", id); err != nil {
		return nil, err
	}

	if err := w.checkCycle(id); err != nil {
		return nil, err
	}

	if u, ok := w.units[id]; ok {
		return u, nil
	}

	path, err := Find(id, w.cfg.path)
	if err != nil {
		return nil, err
	}

	return w.LoadFile(ctx, id, path)
}

// LoadFile runs the script at path as unit id.
func (w *Workspace) LoadFile(ctx context.Context, id, path string) (*Unit, error) {
	if err := validate("unit", id); err != nil {
		return nil, err
	}

	if err := w.checkCycle(id); err != nil {
		return nil, err
	}

	if u, ok := w.units[id]; ok {
		return u, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ErrScript.Wrap(err).With(slog.String("path", path))
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, ErrScript.Wrap(err).With(slog.String("path", abs))
	}

	u, err := w.newUnit(id, abs, w.store.Scope("self", id))
	if err != nil {
		return nil, err
	}

	w.register(u)
	w.loading = append(w.loading, id)

	defer func() { w.loading = w.loading[:len(w.loading)-1] }()

	w.cfg.logger.Debug("loading unit", slog.String("unit", id), slog.String("path", abs))

	if err := u.run(ctx, abs, src); err != nil {
		w.unregister(u)

		return nil, err
	}

	return u, nil
}

func (w *Workspace) checkCycle(id string) error {
	i := slices.Index(w.loading, id)
	if i < 0 {
		return nil
	}

	chain := strings.Join(append(slices.Clone(w.loading[i:]), id), " → ")

	return ErrLoadCycle.Wrap(errors.New(chain)).With(slog.String("chain", chain))
}

func (w *Workspace) register(u *Unit) {
	w.units[u.id] = u
	w.order = append(w.order, u)
	w.byStore[u.store] = u
}

func (w *Workspace) unregister(u *Unit) {
	delete(w.units, u.id)
	delete(w.byStore, u.store)
	w.order = slices.DeleteFunc(w.order, func(o *Unit) bool { return o == u })
}

// runProfile runs the profile script in the global scope.
func (w *Workspace) runProfile(ctx context.Context) error {
	if w.cfg.profile == "" {
		return nil
	}

	src, err := os.ReadFile(w.cfg.profile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return ErrScript.Wrap(err).With(slog.String("path", w.cfg.profile))
	}

	u, err := w.newUnit("profile", w.cfg.profile, w.store)
	if err != nil {
		return err
	}

	w.cfg.logger.Debug("running profile", slog.String("path", w.cfg.profile))

	return u.run(ctx, w.cfg.profile, src)
}

// Setup sets up every target of every loaded unit.
func (w *Workspace) Setup(ctx context.Context) error {
	for _, u := range w.order {
		for _, t := range u.Targets() {
			if err := t.Setup(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

// Targets returns all targets sorted by identifier.
func (w *Workspace) Targets() []*Target {
	var all []*Target

	for _, u := range w.Units() {
		all = append(all, u.Targets()...)
	}

	slices.SortFunc(all, func(a, b *Target) int {
		return strings.Compare(a.Identifier(), b.Identifier())
	})

	return all
}

// Target resolves a target reference relative to unit from. A reference
// without namespace names a target of from.
func (w *Workspace) Target(from *Unit, ref string) (*Target, error) {
	u, name, err := w.resolveRef(from, ref)
	if err != nil {
		return nil, err
	}

	if t, ok := u.targets[name]; ok {
		return t, nil
	}

	return nil, notFound(ErrTargetNotFound, u.id+":"+name, name, u.TargetNames())
}

// Task resolves a task reference relative to unit from.
func (w *Workspace) Task(from *Unit, ref string) (*Task, error) {
	u, name, err := w.resolveRef(from, ref)
	if err != nil {
		return nil, err
	}

	if t, ok := u.tasks[name]; ok {
		return t, nil
	}

	return nil, notFound(ErrTaskNotFound, u.id+":"+name, name, u.TaskNames())
}

func (w *Workspace) resolveRef(from *Unit, ref string) (*Unit, string, error) {
	ns, name, ok := strings.Cut(ref, ":")
	if !ok {
		if from == nil {
			return nil, "", ErrTargetNotFound.With(slog.String("target", ref))
		}

		return from, ref, nil
	}

	if from != nil {
		if id, ok := from.aliases[ns]; ok {
			ns = id
		}
	}

	u, ok := w.units[ns]
	if !ok {
		ids := make([]string, 0, len(w.order))
		for _, o := range w.order {
			ids = append(ids, o.id)
		}

		return nil, "", notFound(ErrUnitNotFound, ns, ns, ids)
	}

	return u, name, nil
}

// notFound decorates a lookup error with the closest candidate.
func notFound(sentinel *pkg.Error, ref, name string, candidates []string) error {
	attrs := []slog.Attr{slog.String("name", ref)}

	s := suggest(name, candidates)
	if s == "" {
		return sentinel.Wrap(fmt.Errorf("%q", ref)).With(attrs...)
	}

	attrs = append(attrs, slog.String("suggestion", s))

	return sentinel.Wrap(fmt.Errorf("%q (did you mean %q?)", ref, s)).With(attrs...)
}

// suggest returns the candidate that best matches name.
func suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}

	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		lower := strings.ToLower(name)
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c), lower) || strings.Contains(lower, strings.ToLower(c)) {
				return c
			}
		}

		return ""
	}

	return matches[0].Str
}
