package macro

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// evaluator carries the state of one top-level evaluation.
type evaluator struct {
	opts  *options
	stack []*binding
	depth int
}

// frame is the dynamic context of an expansion: the store names resolve
// from and the arguments of the innermost call.
type frame struct {
	store *Store
	args  []string
}

func (f frame) positional(name string) (string, bool) {
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 {
		return "", false
	}

	if i == 0 {
		return strings.Join(f.args, string(ListSep)), true
	}

	if i > len(f.args) {
		return "", true
	}

	return f.args[i-1], true
}

func (e *evaluator) quote() QuoteStyle { return e.opts.quote }

// call resolves name from the current frame and expands it with argv.
func (e *evaluator) call(name string, argv []string, f frame, pos Position) (string, error) {
	if s, ok := f.positional(name); ok {
		return s, nil
	}

	b, store, err := f.store.resolve(name)
	if err != nil {
		return "", err
	}

	if b == nil {
		if e.opts.strict {
			return "", ErrUndefined.With(
				slog.String("name", name),
				slog.Int("line", pos.Line),
				slog.Int("column", pos.Column),
			)
		}

		e.opts.logger.Trace("undefined variable", slog.String("name", name))

		return "", nil
	}

	return e.expand(b, store, argv)
}

// expand evaluates the definition b in store with the given arguments.
func (e *evaluator) expand(b *binding, store *Store, argv []string) (string, error) {
	if e.depth >= e.opts.maxDepth {
		return "", ErrMaxDepth.With(
			slog.Int("max", e.opts.maxDepth),
			slog.String("chain", e.chain(b)),
		)
	}

	fn := b.isFunc()

	if !fn {
		for _, s := range e.stack {
			if s == b {
				chain := e.chain(b)

				return "", ErrCycle.Wrap(fmt.Errorf("%s", chain)).With(
					slog.String("chain", chain),
				)
			}
		}

		e.stack = append(e.stack, b)
		defer func() { e.stack = e.stack[:len(e.stack)-1] }()
	}

	e.depth++
	defer func() { e.depth-- }()

	out, err := b.node.eval(e, frame{store: store, args: argv})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

// chain formats the names on the expansion stack followed by next.
func (e *evaluator) chain(next *binding) string {
	names := make([]string, 0, len(e.stack)+1)

	for _, b := range e.stack {
		names = append(names, b.name)
	}

	return strings.Join(append(names, next.name), " → ")
}

// Call is the invocation of a [Func].
type Call struct {
	// Name is the name the function was called by.
	Name string
	// Args are the expanded, trimmed arguments.
	Args []string

	e *evaluator
	f frame
}

// Store returns the store the call resolves names from.
func (c *Call) Store() *Store { return c.f.store }

// Quote quotes s in the configured shell style.
func (c *Call) Quote(s string) string { return c.e.quote().Quote(s) }

// Eval parses and expands text in the caller's context with new
// positional arguments.
func (c *Call) Eval(text string, args ...string) (string, error) {
	n, err := Parse(text)
	if err != nil {
		return "", err
	}

	out, err := n.eval(c.e, frame{store: c.f.store, args: args})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(out), nil
}

// Items returns all arguments joined and split as one list.
func (c *Call) Items() []string {
	return Split(strings.Join(c.Args, string(ListSep)))
}

// Arity fails with [ErrArgCount] unless the call has exactly n arguments.
func (c *Call) Arity(n int) error {
	if len(c.Args) == n {
		return nil
	}

	return ErrArgCount.Wrap(
		fmt.Errorf("%s requires %d arguments, got %d", c.Name, n, len(c.Args)),
	).With(
		slog.String("function", c.Name),
		slog.Int("want", n),
		slog.Int("got", len(c.Args)),
	)
}
