package cmd

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
)

// Targets lists the targets and tasks of every loaded unit.
type Targets struct {
	NoSetup bool `help:"List targets without setting them up."`
}

// Run executes the targets command.
func (t *Targets) Run(ctx context.Context, ktx *kong.Context, f *Workspace) error {
	ws, _, err := f.Open(ctx, ktx.Stdout, ktx.Stderr)
	if err != nil {
		return err
	}

	if !t.NoSetup {
		if err := ws.Setup(ctx); err != nil {
			return err
		}
	}

	for _, target := range ws.Targets() {
		fmt.Fprintf(ktx.Stdout, "%-30s target  %s\n", target.Identifier(), target.Status())
	}

	for _, u := range ws.Units() {
		for _, task := range u.Tasks() {
			fmt.Fprintf(ktx.Stdout, "%-30s task\n", task.Identifier())
		}
	}

	return nil
}
