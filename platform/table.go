package platform

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed tables/*.yaml
var tableFS embed.FS

// Table is a named set of macro definitions. Included tables are applied
// before the table's own macros.
type Table struct {
	Name    string        `yaml:"name"`
	Include []string      `yaml:"include,omitempty"`
	Macros  yaml.MapSlice `yaml:"macros"`
	Probe   *Probe        `yaml:"probe,omitempty"`
}

// Probe describes how to query a compiler for advisory metadata. The first
// of Programs found in PATH is run with Args, and the first line of its
// output is matched against Pattern. Define maps named groups of Pattern to
// variable names.
type Probe struct {
	Programs []string          `yaml:"programs"`
	Args     []string          `yaml:"args,omitempty"`
	Pattern  string            `yaml:"pattern"`
	Define   map[string]string `yaml:"define"`
}

// ParseTable decodes a YAML table.
func ParseTable(data []byte) (*Table, error) {
	var t Table

	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, ErrTable.Wrap(err)
	}

	t.Name = strings.ToLower(strings.TrimSpace(t.Name))
	if t.Name == "" {
		return nil, ErrTable.With(slog.String("reason", "missing name"))
	}

	for _, item := range t.Macros {
		if _, ok := item.Key.(string); !ok {
			return nil, ErrTable.With(
				slog.String("table", t.Name),
				slog.String("reason", fmt.Sprintf("non-string key %v", item.Key)),
			)
		}
	}

	return &t, nil
}

// ReadTable reads a YAML table from a file.
func ReadTable(name string) (*Table, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, ErrTable.Wrap(err).With(slog.String("path", name))
	}

	return ParseTable(data)
}

// Keys returns the macro names of t in definition order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.Macros))
	for _, item := range t.Macros {
		keys = append(keys, item.Key.(string))
	}

	return keys
}

func (t *Table) each(fn func(name, value string) error) error {
	for _, item := range t.Macros {
		value := ""
		if item.Value != nil {
			value = fmt.Sprint(item.Value)
		}

		if err := fn(item.Key.(string), value); err != nil {
			return err
		}
	}

	return nil
}

// Registry maps table names to tables.
type Registry map[string]*Table

// aliases maps platform identifiers without a table of their own.
//
//nolint:gochecknoglobals
var aliases = map[string]string{"mac": "darwin"}

//nolint:gochecknoglobals
var builtin = sync.OnceValues(func() (Registry, error) {
	r := make(Registry)

	err := fs.WalkDir(tableFS, "tables", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(name) != ".yaml" {
			return err
		}

		data, err := tableFS.ReadFile(name)
		if err != nil {
			return err
		}

		t, err := ParseTable(data)
		if err != nil {
			return err
		}

		r[t.Name] = t

		return nil
	})

	return r, err
})

// Builtin returns a copy of the tables embedded in the binary.
func Builtin() (Registry, error) {
	r, err := builtin()
	if err != nil {
		return nil, err
	}

	out := make(Registry, len(r))
	for name, t := range r {
		out[name] = t
	}

	return out, nil
}

// Names returns the sorted table names.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Lookup returns the table named by a table name or platform identifier.
func (r Registry) Lookup(name string) (*Table, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	t, ok := r[name]

	return t, ok
}

// Resolve returns the named table preceded by its includes, depth first.
func (r Registry) Resolve(name string) ([]*Table, error) {
	var (
		order []*Table
		stack []string
		seen  = make(map[string]bool)
	)

	var visit func(string) error

	visit = func(name string) error {
		t, ok := r.Lookup(name)
		if !ok {
			return ErrUnknownTable.With(slog.String("table", name))
		}

		if slices.Contains(stack, t.Name) {
			return ErrTable.With(
				slog.String("reason", "include cycle"),
				slog.String("chain", strings.Join(append(stack, t.Name), " → ")),
			)
		}

		if seen[t.Name] {
			return nil
		}

		stack = append(stack, t.Name)

		for _, inc := range t.Include {
			if err := visit(inc); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		seen[t.Name] = true
		order = append(order, t)

		return nil
	}

	if err := visit(name); err != nil {
		return nil, err
	}

	return order, nil
}
