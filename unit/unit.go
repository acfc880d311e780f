package unit

import (
	"context"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"

	"github.com/ardnew/creator/macro"
)

// Unit is a loaded unit script with its own scope, targets and tasks.
type Unit struct {
	id      string
	path    string
	dir     string
	ws      *Workspace
	store   *macro.Store
	aliases map[string]string
	targets map[string]*Target
	tasks   map[string]*Task
	decls   []string
}

func (w *Workspace) newUnit(id, path string, store *macro.Store) (*Unit, error) {
	u := &Unit{
		id:      id,
		path:    path,
		dir:     filepath.Dir(path),
		ws:      w,
		store:   store,
		aliases: make(map[string]string),
		targets: make(map[string]*Target),
		tasks:   make(map[string]*Task),
	}

	if err := u.defineLocals(); err != nil {
		return nil, err
	}

	return u, nil
}

// defineLocals binds the unit-local variables self and ProjectPath. The
// profile runs in the global scope and has none.
func (u *Unit) defineLocals() error {
	if u.store == u.ws.store {
		return nil
	}

	if err := u.store.DefineText("self", u.id); err != nil {
		return err
	}

	return u.store.DefineText("ProjectPath", u.dir)
}

// ID returns the unit identifier.
func (u *Unit) ID() string { return u.id }

// Path returns the script file.
func (u *Unit) Path() string { return u.path }

// ProjectPath returns the directory of the script file.
func (u *Unit) ProjectPath() string { return u.dir }

// Store returns the scope of the unit.
func (u *Unit) Store() *macro.Store { return u.store }

// Workspace returns the workspace the unit was loaded into.
func (u *Unit) Workspace() *Workspace { return u.ws }

// Alias maps a namespace of this unit to another unit identifier.
func (u *Unit) Alias(alias, id string) error {
	if err := validate("alias", alias); err != nil {
		return err
	}

	u.aliases[alias] = id

	return nil
}

// Eval expands text in the scope of the unit.
func (u *Unit) Eval(text string, args ...string) (string, error) {
	return u.store.Eval(text, args...)
}

// evalWith expands text in a child scope holding the literal vars.
func (u *Unit) evalWith(text string, vars map[string]string) (string, error) {
	if len(vars) == 0 {
		return u.store.Eval(text)
	}

	s := u.store.Scope()

	for _, name := range slices.Sorted(maps.Keys(vars)) {
		if err := s.DefineText(name, vars[name]); err != nil {
			return "", err
		}
	}

	return s.Eval(text)
}

// Targets returns the targets in declaration order.
func (u *Unit) Targets() []*Target {
	var out []*Target

	for _, name := range u.decls {
		if t, ok := u.targets[name]; ok {
			out = append(out, t)
		}
	}

	return out
}

// Tasks returns the tasks in declaration order.
func (u *Unit) Tasks() []*Task {
	var out []*Task

	for _, name := range u.decls {
		if t, ok := u.tasks[name]; ok {
			out = append(out, t)
		}
	}

	return out
}

// TargetNames returns the sorted target names.
func (u *Unit) TargetNames() []string { return slices.Sorted(maps.Keys(u.targets)) }

// TaskNames returns the sorted task names.
func (u *Unit) TaskNames() []string { return slices.Sorted(maps.Keys(u.tasks)) }

func (u *Unit) declare(name string) error {
	if err := validate("name", name); err != nil {
		return err
	}

	_, isTarget := u.targets[name]
	_, isTask := u.tasks[name]

	if isTarget || isTask {
		return ErrDuplicate.With(slog.String("unit", u.id), slog.String("name", name))
	}

	u.decls = append(u.decls, name)

	return nil
}

func (u *Unit) addTarget(t *Target) error {
	if err := u.declare(t.name); err != nil {
		return err
	}

	u.targets[t.name] = t

	return nil
}

func (u *Unit) addTask(t *Task) error {
	if err := u.declare(t.name); err != nil {
		return err
	}

	u.tasks[t.name] = t

	return nil
}

// run executes a parsed script in the scope of u.
func (u *Unit) run(ctx context.Context, path string, src []byte) error {
	s, err := parseScript(path, src)
	if err != nil {
		return err
	}

	return s.exec(ctx, u)
}
