package cmd

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
)

// Eval prints the expansion of a macro expression in the scope of the main
// unit.
type Eval struct {
	Expr         string   `arg:""                                   help:"Expression to expand."`
	Args         []string `arg:""                                   help:"Positional arguments ($1, $2, ...)." optional:""`
	LoadPlatform bool     `help:"Load the platform table first." short:"L"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, ktx *kong.Context, f *Workspace) error {
	ws, main, err := f.Open(ctx, ktx.Stdout, ktx.Stderr)
	if err != nil {
		return err
	}

	if e.LoadPlatform {
		if err := ws.LoadPlatform(ctx); err != nil {
			return err
		}
	}

	out, err := main.Eval(e.Expr, e.Args...)
	if err != nil {
		return err
	}

	fmt.Fprintln(ktx.Stdout, out)

	return nil
}
