package cmd

import (
	"context"

	"github.com/alecthomas/kong"
)

// Run runs a task of the main unit, or of any unit with "unit:task".
type Run struct {
	Task string `arg:"" help:"Task to run."`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context, ktx *kong.Context, f *Workspace) error {
	ws, main, err := f.Open(ctx, ktx.Stdout, ktx.Stderr)
	if err != nil {
		return err
	}

	task, err := ws.Task(main, r.Task)
	if err != nil {
		return err
	}

	return task.Run(ctx)
}
