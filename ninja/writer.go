package ninja

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ardnew/creator/pkg"
)

// ErrMultiline is returned for a variable value that spans lines.
var ErrMultiline = pkg.NewError(pkg.KindConfiguration, "variable value spans lines")

var (
	pathEscaper  = strings.NewReplacer("$", "$$", " ", "$ ", ":", "$:")
	valueEscaper = strings.NewReplacer("$", "$$")
	identRe      = regexp.MustCompile(`[^A-Za-z0-9_]+`)
)

// EscapePath escapes a path for use in a build statement.
func EscapePath(s string) string { return pathEscaper.Replace(s) }

// Escape escapes a variable value.
func Escape(s string) string { return valueEscaper.Replace(s) }

// CommandLine joins the non-blank lines of command with " && ".
func CommandLine(command string) string {
	var lines []string

	for line := range strings.Lines(command) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, " && ")
}

// Ident replaces every run of characters not allowed in a rule name with
// an underscore.
func Ident(s string) string { return identRe.ReplaceAllString(s, "_") }

// Writer writes ninja syntax. The first write error is kept and returned
// by [Writer.Err]; later calls do nothing.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter returns a writer to w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

func (w *Writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}

	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// Newline writes an empty line.
func (w *Writer) Newline() { w.printf("\n") }

// Comment writes each line of text as a comment.
func (w *Writer) Comment(text string) {
	for line := range strings.Lines(text) {
		w.printf("# %s\n", strings.TrimRight(line, "\n"))
	}
}

// Variable writes a variable binding. indent is the nesting level. A value
// containing a line break sets [ErrMultiline].
func (w *Writer) Variable(name, value string, indent int) {
	if w.err == nil && strings.ContainsAny(value, "\r\n") {
		w.err = ErrMultiline.With(slog.String("variable", name))

		return
	}

	w.printf("%s%s = %s\n", strings.Repeat("  ", indent), name, Escape(value))
}

// Rule writes a rule with the given command. The lines of a multi-line
// command are joined with [CommandLine]. An empty description is omitted.
func (w *Writer) Rule(name, command, description string) {
	w.printf("rule %s\n", name)
	w.Variable("command", CommandLine(command), 1)

	if description != "" {
		w.Variable("description", description, 1)
	}
}

// Build writes a build statement. Paths are escaped.
func (w *Writer) Build(outputs []string, rule string, inputs, implicit []string) {
	line := fmt.Sprintf("build %s: %s", joinPaths(outputs), rule)

	if len(inputs) > 0 {
		line += " " + joinPaths(inputs)
	}

	if len(implicit) > 0 {
		line += " | " + joinPaths(implicit)
	}

	w.printf("%s\n", line)
}

func joinPaths(paths []string) string {
	escaped := make([]string, len(paths))
	for i, p := range paths {
		escaped[i] = EscapePath(p)
	}

	return strings.Join(escaped, " ")
}
