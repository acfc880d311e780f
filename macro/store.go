package macro

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Store is a scope of variable definitions. Lookup walks from a store
// through its parents to the root.
type Store struct {
	parent  *Store
	aliases []string
	vars    map[string]*binding
	order   []string
	opts    *options
}

// NewStore returns an empty root store.
func NewStore(opts ...Option) *Store {
	return &Store{
		vars: make(map[string]*binding),
		opts: makeOptions(opts...),
	}
}

// Scope returns a child store. The aliases name the child as a namespace
// for references made from within it.
func (s *Store) Scope(aliases ...string) *Store {
	return &Store{
		parent:  s,
		aliases: slices.Clone(aliases),
		vars:    make(map[string]*binding),
		opts:    s.opts,
	}
}

// Parent returns the enclosing store, or nil for the root.
func (s *Store) Parent() *Store { return s.parent }

// Root returns the outermost store.
func (s *Store) Root() *Store {
	r := s
	for r.parent != nil {
		r = r.parent
	}

	return r
}

// Aliases returns the namespace names of s.
func (s *Store) Aliases() []string { return slices.Clone(s.aliases) }

// AddAlias registers another namespace name for s.
func (s *Store) AddAlias(alias string) {
	if !slices.Contains(s.aliases, alias) {
		s.aliases = append(s.aliases, alias)
	}
}

// QuoteStyle returns the quoting style of the store.
func (s *Store) QuoteStyle() QuoteStyle { return s.opts.quote }

// Strict reports whether undefined references are errors.
func (s *Store) Strict() bool { return s.opts.strict }

// Define parses value and binds it to name in s. References to name inside
// value refer to the previously visible definition.
func (s *Store) Define(name, value string) error {
	n, err := Parse(value)
	if err != nil {
		return err
	}

	return s.define(name, n, value)
}

// DefineText binds literal text to name.
func (s *Store) DefineText(name, text string) error {
	return s.define(name, Text(text), Text(text).String())
}

// DefineNode binds a parsed expression to name.
func (s *Store) DefineNode(name string, n Node) error {
	return s.define(name, n, n.String())
}

// DefineFunc binds a host function to name. It is called like a builtin.
func (s *Store) DefineFunc(name string, fn Func) error {
	return s.define(name, &funcNode{name: name, fn: fn}, "")
}

// Append extends the definition of name with value, separated by a space.
// It is equivalent to [Store.Define] if name is not defined.
func (s *Store) Append(name, value string) error {
	if !s.Defined(name) {
		return s.Define(name, value)
	}

	return s.Define(name, "${"+name+"} "+value)
}

// Default defines name only if it is not yet defined. It reports whether
// the definition was made.
func (s *Store) Default(name, value string) (bool, error) {
	if s.Defined(name) {
		return false, nil
	}

	return true, s.Define(name, value)
}

func (s *Store) define(name string, n Node, source string) error {
	target, local, err := s.target(name)
	if err != nil {
		return err
	}

	prev, _, err := target.resolve(local)
	if err != nil {
		return err
	}

	if prev == nil {
		prev = &binding{name: local, node: Text("")}
	}

	if m, changed := n.substitute(target.selfMatcher(local), prev); changed {
		n = m
	}

	if _, ok := target.vars[local]; !ok {
		target.order = append(target.order, local)
	}

	target.vars[local] = &binding{name: local, node: n, source: source}

	target.opts.logger.Trace("define",
		slog.String("name", local),
		slog.String("value", source),
	)

	return nil
}

// target splits a possibly qualified name and returns the store it is
// defined in.
func (s *Store) target(name string) (*Store, string, error) {
	ns, local, qualified := strings.Cut(name, ":")
	if !qualified {
		ns, local = "", ns
	}

	if err := validateName(local, name); err != nil {
		return nil, "", err
	}

	if !qualified {
		return s, local, nil
	}

	t, err := s.namespace(ns)
	if err != nil {
		return nil, "", err
	}

	return t, local, nil
}

func validateName(local, name string) error {
	reason := ""

	switch {
	case local == "":
		reason = "empty name"
	case strings.Trim(local, "0123456789") == "":
		reason = "positional parameters cannot be defined"
	default:
		for i := range len(local) {
			if c := local[i]; !isIdent(c) || c == ':' {
				reason = fmt.Sprintf("invalid character %q", c)

				break
			}
		}
	}

	if reason == "" {
		return nil
	}

	return ErrName.Wrap(fmt.Errorf("%q: %s", name, reason)).With(
		slog.String("name", name),
	)
}

// selfMatcher matches references to local as seen from s.
func (s *Store) selfMatcher(local string) func(string) bool {
	return func(ref string) bool {
		if ref == local {
			return true
		}

		ns, name, ok := strings.Cut(ref, ":")
		if !ok || name != local {
			return false
		}

		return slices.Contains(s.aliases, ns) || (ns == "" && s.parent == nil)
	}
}

// Undefine removes name from s. Definitions in parent stores are not
// affected.
func (s *Store) Undefine(name string) {
	if _, ok := s.vars[name]; !ok {
		return
	}

	delete(s.vars, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
}

// Defined reports whether name resolves from s.
func (s *Store) Defined(name string) bool {
	b, _, err := s.resolve(name)

	return err == nil && b != nil
}

// Local reports whether name is defined in s itself.
func (s *Store) Local(name string) bool {
	_, ok := s.vars[name]

	return ok
}

// Names returns the names defined in s in definition order.
func (s *Store) Names() []string { return slices.Clone(s.order) }

// Source returns the text name was defined with in s or its parents.
func (s *Store) Source(name string) (string, bool) {
	b, _, err := s.resolve(name)
	if err != nil || b == nil || b.isFunc() {
		return "", false
	}

	return b.source, true
}

// Inherit copies the definitions of from into s. Existing definitions in s
// are replaced.
func (s *Store) Inherit(from *Store) {
	for _, name := range from.order {
		if _, ok := s.vars[name]; !ok {
			s.order = append(s.order, name)
		}

		s.vars[name] = from.vars[name]
	}
}

// Eval expands expr in s. The args are available as $1..$n and $0.
func (s *Store) Eval(expr string, args ...string) (string, error) {
	n, err := Parse(expr)
	if err != nil {
		return "", err
	}

	return s.EvalNode(n, args...)
}

// EvalNode expands a parsed expression in s.
func (s *Store) EvalNode(n Node, args ...string) (string, error) {
	e := &evaluator{opts: s.opts}

	out, err := n.eval(e, frame{store: s, args: args})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

// Get expands the variable name with the given arguments, like
// "$(name args...)".
func (s *Store) Get(name string, args ...string) (string, error) {
	e := &evaluator{opts: s.opts}

	return e.call(name, args, frame{store: s}, Position{})
}

// resolve finds the definition of name visible from s and the store it
// must be expanded in. A nil binding means name is undefined.
func (s *Store) resolve(name string) (*binding, *Store, error) {
	from := s

	if ns, local, ok := strings.Cut(name, ":"); ok {
		t, err := s.namespace(ns)
		if err != nil {
			return nil, nil, err
		}

		from, name = t, local
	}

	for c := from; c != nil; c = c.parent {
		if b, ok := c.vars[name]; ok {
			return b, from, nil
		}
	}

	if b, ok := s.opts.builtins[name]; ok {
		return b, from, nil
	}

	if s.opts.environ != nil {
		if v, ok := s.opts.environ(name); ok {
			return &binding{name: name, node: Text(v), source: v}, from, nil
		}
	}

	return nil, from, nil
}

// namespace returns the store named ns as seen from s.
func (s *Store) namespace(ns string) (*Store, error) {
	if ns == "" {
		return s.Root(), nil
	}

	for c := s; c != nil; c = c.parent {
		if slices.Contains(c.aliases, ns) {
			return c, nil
		}
	}

	if r := s.opts.resolver; r != nil {
		if t, ok := r.Namespace(s, ns); ok {
			return t, nil
		}
	}

	return nil, ErrNamespace.With(slog.String("namespace", ns))
}
