package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/creator/macro"
)

const defaultIndent = 2

// Vars prints the variables defined in the scope of the main unit.
type Vars struct {
	Format string `default:"yaml"                                   enum:"yaml,json" help:"Output format." short:"f"`
	Global bool   `help:"Print the global scope instead of the main unit."`
	Expand bool   `help:"Include the expanded value of each variable." short:"e"`
}

type variable struct {
	Name   string `json:"name"            yaml:"name"`
	Source string `json:"source"          yaml:"source"`
	Value  string `json:"value,omitempty" yaml:"value,omitempty"`
}

// Run executes the vars command.
func (v *Vars) Run(ctx context.Context, ktx *kong.Context, f *Workspace) error {
	ws, main, err := f.Open(ctx, ktx.Stdout, ktx.Stderr)
	if err != nil {
		return err
	}

	store := main.Store()
	if v.Global {
		store = ws.Store()
	}

	list, err := v.collect(store)
	if err != nil {
		return err
	}

	return v.write(ktx.Stdout, list)
}

func (v *Vars) collect(store *macro.Store) ([]variable, error) {
	names := store.Names()
	list := make([]variable, 0, len(names))

	for _, name := range names {
		src, _ := store.Source(name)
		item := variable{Name: name, Source: src}

		if v.Expand {
			value, err := store.Get(name)
			if err != nil {
				return nil, err
			}

			item.Value = value
		}

		list = append(list, item)
	}

	return list, nil
}

func (v *Vars) write(w io.Writer, list []variable) error {
	if v.Format == "json" {
		data, err := json.MarshalIndent(list, "", strings.Repeat(" ", defaultIndent))
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		_, err = fmt.Fprintln(w, string(data))

		return err
	}

	data, err := yaml.MarshalWithOptions(list, yaml.Indent(defaultIndent))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	_, err = w.Write(data)

	return err
}
