package macro

import (
	"strings"
)

// Position locates a token in macro source text. Line and Column are
// 1-based.
type Position struct {
	Offset int
	Line   int
	Column int
}

// Node is a parsed macro expression.
type Node interface {
	// String returns the expression in macro syntax.
	String() string

	eval(e *evaluator, f frame) (string, error)
	// substitute binds references matched by match to b. It reports
	// whether anything changed; unchanged nodes are returned as is.
	substitute(match func(string) bool, b *binding) (Node, bool)
}

// Mode selects a post-processing step applied to the expansion of a [Ref].
type Mode int

const (
	ModePlain Mode = iota // $name
	ModeQuote             // $"name
	ModeSplit             // $!name
)

func (m Mode) apply(s string, q QuoteStyle) string {
	switch m {
	case ModeQuote:
		items := Split(s)
		for i, item := range items {
			items[i] = q.Quote(item)
		}

		return strings.Join(items, " ")

	case ModeSplit:
		return strings.Join(Split(s), " ")

	default:
		return s
	}
}

func (m Mode) sigil() string {
	switch m {
	case ModeQuote:
		return `"`
	case ModeSplit:
		return "!"
	default:
		return ""
	}
}

// Text is literal text.
type Text string

func (t Text) String() string { return strings.ReplaceAll(string(t), "$", "$$") }

func (t Text) eval(*evaluator, frame) (string, error) { return string(t), nil }

func (t Text) substitute(func(string) bool, *binding) (Node, bool) {
	return t, false
}

// Concat evaluates its nodes in order and concatenates the results.
type Concat []Node

func (c Concat) String() string {
	var sb strings.Builder

	for _, n := range c {
		sb.WriteString(n.String())
	}

	return sb.String()
}

func (c Concat) eval(e *evaluator, f frame) (string, error) {
	var sb strings.Builder

	for _, n := range c {
		s, err := n.eval(e, f)
		if err != nil {
			return "", err
		}

		sb.WriteString(s)
	}

	return sb.String(), nil
}

func (c Concat) substitute(match func(string) bool, b *binding) (Node, bool) {
	out, changed := substituteAll(c, match, b)
	if !changed {
		return c, false
	}

	return Concat(out), true
}

// substituteAll applies substitute to each node, copying the slice only
// if some node changed.
func substituteAll(nodes []Node, match func(string) bool, b *binding) ([]Node, bool) {
	var out []Node

	for i, n := range nodes {
		m, changed := n.substitute(match, b)
		if changed && out == nil {
			out = make([]Node, len(nodes))
			copy(out, nodes[:i])
		}

		if out != nil {
			out[i] = m
		}
	}

	if out == nil {
		return nodes, false
	}

	return out, true
}

// Ref is a variable reference or macro call.
type Ref struct {
	Name string
	Args []Node
	Call bool
	Mode Mode
	Pos  Position

	// bound, when set, replaces name lookup. It is set when a definition
	// refers to its own name and is bound to the previous value.
	bound *binding
}

func (r *Ref) String() string {
	var sb strings.Builder

	sb.WriteByte('$')
	sb.WriteString(r.Mode.sigil())

	switch {
	case r.Call:
		sb.WriteByte('(')
		sb.WriteString(r.Name)

		for i, a := range r.Args {
			if i == 0 {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(", ")
			}

			sb.WriteString(a.String())
		}

		sb.WriteByte(')')

	case r.Mode == ModePlain:
		sb.WriteString("{" + r.Name + "}")

	default:
		sb.WriteString(r.Name)
	}

	return sb.String()
}

func (r *Ref) eval(e *evaluator, f frame) (string, error) {
	argv := make([]string, len(r.Args))

	for i, a := range r.Args {
		s, err := a.eval(e, f)
		if err != nil {
			return "", err
		}

		argv[i] = strings.TrimSpace(s)
	}

	var (
		out string
		err error
	)

	if r.bound != nil {
		out, err = e.expand(r.bound, f.store, argv)
	} else {
		out, err = e.call(r.Name, argv, f, r.Pos)
	}

	if err != nil {
		return "", err
	}

	return r.Mode.apply(out, e.quote()), nil
}

func (r *Ref) substitute(match func(string) bool, b *binding) (Node, bool) {
	args, changed := substituteAll(r.Args, match, b)

	bind := r.bound == nil && match(r.Name)
	if !changed && !bind {
		return r, false
	}

	c := *r
	c.Args = args

	if bind {
		c.bound = b
	}

	return &c, true
}

// Func is the implementation of a builtin or host-provided macro function.
type Func func(c *Call) (string, error)

type funcNode struct {
	name string
	fn   Func
}

func (n *funcNode) String() string { return "<func " + n.name + ">" }

func (n *funcNode) eval(e *evaluator, f frame) (string, error) {
	return n.fn(&Call{Name: n.name, Args: f.args, e: e, f: f})
}

func (n *funcNode) substitute(func(string) bool, *binding) (Node, bool) {
	return n, false
}

// binding associates a name with a parsed definition. Its address
// identifies the definition during cycle detection.
type binding struct {
	name   string
	node   Node
	source string
}

func (b *binding) isFunc() bool {
	_, ok := b.node.(*funcNode)

	return ok
}
