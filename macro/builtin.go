package macro

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

//nolint:gochecknoglobals
var builtins = map[string]Func{
	"addprefix":  addprefix,
	"addsuffix":  addsuffix,
	"dir":        dir,
	"eval":       evalFunc,
	"move":       move,
	"prefix":     prefix,
	"quote":      quote,
	"quoteall":   quoteall,
	"quotelist":  quoteall,
	"quotesplit": quotesplit,
	"split":      split,
	"subst":      subst,
	"suffix":     suffix,
	"wildcard":   wildcard,
}

// Builtins returns the names of the builtin functions.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func mapItems(list string, fn func(string) string) string {
	items := Split(list)
	for i, item := range items {
		items[i] = fn(item)
	}

	return Join(items...)
}

// $(addprefix prefix, list)
func addprefix(c *Call) (string, error) {
	if err := c.Arity(2); err != nil {
		return "", err
	}

	return mapItems(c.Args[1], func(s string) string { return c.Args[0] + s }), nil
}

// $(addsuffix suffix, list)
func addsuffix(c *Call) (string, error) {
	if err := c.Arity(2); err != nil {
		return "", err
	}

	return mapItems(c.Args[1], func(s string) string { return s + c.Args[0] }), nil
}

// $(quote arg, ...) quotes each argument and joins them with spaces.
func quote(c *Call) (string, error) {
	items := make([]string, len(c.Args))
	for i, arg := range c.Args {
		items[i] = c.Quote(arg)
	}

	return strings.Join(items, " "), nil
}

// $(quoteall list, ...) quotes every item and returns a list.
func quoteall(c *Call) (string, error) {
	items := c.Items()
	for i, item := range items {
		items[i] = c.Quote(item)
	}

	return Join(items...), nil
}

// $(quotesplit list, ...) quotes every item and joins them with spaces.
func quotesplit(c *Call) (string, error) {
	items := c.Items()
	for i, item := range items {
		items[i] = c.Quote(item)
	}

	return strings.Join(items, " "), nil
}

func split(c *Call) (string, error) {
	return strings.Join(c.Items(), " "), nil
}

// $(subst old, new, list)
func subst(c *Call) (string, error) {
	if err := c.Arity(3); err != nil {
		return "", err
	}

	old, repl := c.Args[0], c.Args[1]

	return mapItems(c.Args[2], func(s string) string {
		return strings.ReplaceAll(s, old, repl)
	}), nil
}

// $(wildcard pattern, ...) returns the files matching any pattern. "**"
// matches any number of directories.
func wildcard(c *Call) (string, error) {
	var matches []string

	for _, pattern := range c.Items() {
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return "", ErrArgument.With(
				slog.String("function", c.Name),
				slog.String("pattern", pattern),
			)
		}

		found, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return "", ErrArgument.Wrap(err).With(
				slog.String("function", c.Name),
				slog.String("pattern", pattern),
			)
		}

		slices.Sort(found)
		matches = append(matches, found...)
	}

	return Join(matches...), nil
}

// $(suffix list, suffix)
func suffix(c *Call) (string, error) {
	if err := c.Arity(2); err != nil {
		return "", err
	}

	return mapItems(c.Args[0], func(s string) string {
		return SetSuffix(s, c.Args[1])
	}), nil
}

// $(prefix list, prefix) prefixes the base name of each path.
func prefix(c *Call) (string, error) {
	if err := c.Arity(2); err != nil {
		return "", err
	}

	return mapItems(c.Args[0], func(s string) string {
		d, base := filepath.Split(s)

		return d + c.Args[1] + base
	}), nil
}

// $(move list, base, newbase) rebases each path from base to newbase.
func move(c *Call) (string, error) {
	if err := c.Arity(3); err != nil {
		return "", err
	}

	items := Split(c.Args[0])
	for i, item := range items {
		rel, err := filepath.Rel(c.Args[1], item)
		if err != nil {
			return "", ErrArgument.Wrap(err).With(
				slog.String("function", c.Name),
				slog.String("path", item),
				slog.String("base", c.Args[1]),
			)
		}

		items[i] = filepath.Join(c.Args[2], rel)
	}

	return Join(items...), nil
}

func dir(c *Call) (string, error) {
	items := c.Items()
	for i, item := range items {
		items[i] = filepath.Dir(item)
	}

	return Join(items...), nil
}

// $(eval text, args...) expands text again with new positional arguments.
func evalFunc(c *Call) (string, error) {
	if len(c.Args) == 0 {
		return "", ErrArgCount.Wrap(fmt.Errorf("%s requires an argument", c.Name))
	}

	return c.Eval(c.Args[0], c.Args[1:]...)
}
