package macro

import (
	"fmt"
	"log/slog"
	"strings"
)

// Parse parses macro source text into an expression tree.
func Parse(text string) (Node, error) {
	p := parser{input: text, line: 1, col: 1}

	n, err := p.parseSeq("")
	if err != nil {
		return nil, err
	}

	return n, nil
}

// MustParse is like [Parse] but panics on error. It is intended for
// compile-time constant templates.
func MustParse(text string) Node {
	n, err := Parse(text)
	if err != nil {
		panic(err)
	}

	return n
}

// parser is a hand-written recursive-descent parser over macro text.
type parser struct {
	input string
	pos   int
	line  int
	col   int
}

func isIdent(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		strings.IndexByte("_.<@:", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// escapable lists the characters a backslash escapes. Elsewhere a
// backslash is literal, which keeps Windows paths and "\;" list escapes.
const escapable = `$\,()`

func (p *parser) eof() bool { return p.pos >= len(p.input) }

func (p *parser) peek() byte { return p.peekN(0) }

func (p *parser) peekN(n int) byte {
	if p.pos+n >= len(p.input) {
		return 0
	}

	return p.input[p.pos+n]
}

func (p *parser) advance() byte {
	if p.eof() {
		return 0
	}

	c := p.input[p.pos]
	p.pos++

	if c == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}

	return c
}

func (p *parser) position() Position {
	return Position{Offset: p.pos, Line: p.line, Column: p.col}
}

func (p *parser) skipSpace() {
	for !p.eof() && isSpace(p.peek()) {
		p.advance()
	}
}

func (p *parser) ident() string {
	start := p.pos

	for !p.eof() && isIdent(p.peek()) {
		p.advance()
	}

	return p.input[start:p.pos]
}

func (p *parser) errorf(at Position, format string, args ...any) error {
	reason := fmt.Sprintf(format, args...)

	return ErrSyntax.
		Wrap(fmt.Errorf("%s at line %d, column %d", reason, at.Line, at.Column)).
		With(
			slog.String("reason", reason),
			slog.Int("line", at.Line),
			slog.Int("column", at.Column),
			slog.String("source", p.input),
		)
}

// builder accumulates a sequence, merging adjacent text.
type builder struct {
	nodes Concat
	text  strings.Builder
}

func (b *builder) writeByte(c byte) { b.text.WriteByte(c) }

func (b *builder) add(n Node) {
	if t, ok := n.(Text); ok {
		b.text.WriteString(string(t))

		return
	}

	b.flush()
	b.nodes = append(b.nodes, n)
}

func (b *builder) flush() {
	if b.text.Len() > 0 {
		b.nodes = append(b.nodes, Text(b.text.String()))
		b.text.Reset()
	}
}

func (b *builder) node() Node {
	b.flush()

	switch len(b.nodes) {
	case 0:
		return Text("")
	case 1:
		return b.nodes[0]
	default:
		return b.nodes
	}
}

// parseSeq parses text up to end of input or, outside of balanced
// parentheses, one of the closers.
func (p *parser) parseSeq(closers string) (Node, error) {
	var (
		b     builder
		depth int
	)

	for !p.eof() {
		c := p.peek()
		if depth == 0 && strings.IndexByte(closers, c) >= 0 {
			break
		}

		switch c {
		case '$':
			n, err := p.parseDollar()
			if err != nil {
				return nil, err
			}

			b.add(n)

		case '\\':
			p.advance()

			if next := p.peek(); next != 0 && strings.IndexByte(escapable, next) >= 0 {
				b.writeByte(p.advance())
			} else {
				b.writeByte('\\')
			}

		case '(':
			if closers != "" {
				depth++
			}

			b.writeByte(p.advance())

		case ')':
			if depth > 0 {
				depth--
			}

			b.writeByte(p.advance())

		default:
			b.writeByte(p.advance())
		}
	}

	return b.node(), nil
}

func (p *parser) parseDollar() (Node, error) {
	start := p.position()
	p.advance() // '$'

	switch c := p.peek(); {
	case c == '$':
		p.advance()

		return Text("$"), nil

	case c == '(':
		return p.parseCall(start)

	case c == '{':
		return p.parseBraced(start)

	case (c == '"' || c == '!') && isIdent(p.peekN(1)):
		mode := ModeQuote
		if c == '!' {
			mode = ModeSplit
		}

		p.advance()

		return &Ref{Name: p.plainIdent(), Mode: mode, Pos: start}, nil

	case isIdent(c):
		return &Ref{Name: p.plainIdent(), Pos: start}, nil

	default:
		return Text("$"), nil
	}
}

// plainIdent reads an unbraced identifier. Trailing colons are left in the
// input so "$CC: done" refers to CC.
func (p *parser) plainIdent() string {
	name := p.ident()

	for len(name) > 1 && name[len(name)-1] == ':' {
		name = name[:len(name)-1]
		p.pos--
		p.col--
	}

	return name
}

func (p *parser) parseCall(start Position) (Node, error) {
	p.advance() // '('
	p.skipSpace()

	name := p.ident()
	if name == "" {
		if p.eof() {
			return nil, p.errorf(start, "unterminated macro call")
		}

		return nil, p.errorf(p.position(), "expected macro name, found %q", p.peek())
	}

	ref := &Ref{Name: name, Call: true, Pos: start}

	switch c := p.peek(); {
	case c == ')':
		p.advance()

		return ref, nil

	case isSpace(c):
		p.skipSpace()

	case p.eof():
		return nil, p.errorf(start, "unterminated macro call")

	default:
		return nil, p.errorf(p.position(), "unexpected %q after macro name %q", c, name)
	}

	if p.peek() == ')' {
		p.advance()

		return ref, nil
	}

	for {
		arg, err := p.parseSeq(",)")
		if err != nil {
			return nil, err
		}

		ref.Args = append(ref.Args, arg)

		if p.eof() {
			return nil, p.errorf(start, "unterminated macro call")
		}

		if p.advance() == ')' {
			return ref, nil
		}

		p.skipSpace()
	}
}

func (p *parser) parseBraced(start Position) (Node, error) {
	p.advance() // '{'
	p.skipSpace()

	name := p.ident()
	if name == "" {
		if p.eof() {
			return nil, p.errorf(start, "unterminated braced reference")
		}

		return nil, p.errorf(p.position(), "expected variable name, found %q", p.peek())
	}

	p.skipSpace()

	switch {
	case p.eof():
		return nil, p.errorf(start, "unterminated braced reference")
	case p.peek() != '}':
		return nil, p.errorf(p.position(), "expected '}', found %q", p.peek())
	}

	p.advance()

	return &Ref{Name: name, Pos: start}, nil
}
