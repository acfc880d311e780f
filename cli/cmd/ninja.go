package cmd

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/hairyhenderson/go-which"

	"github.com/ardnew/creator/log"
	"github.com/ardnew/creator/ninja"
)

// Ninja exports the set-up targets as a ninja build file and runs ninja.
type Ninja struct {
	NoBuild bool     `help:"Only write the build file."               short:"N"`
	Output  string   `default:"build.ninja"                           help:"Build file name, relative to --dir." short:"o"`
	Args    []string `arg:"" help:"Arguments passed to ninja."        optional:"" passthrough:""`
}

// Run executes the ninja command.
func (n *Ninja) Run(ctx context.Context, ktx *kong.Context, f *Workspace) error {
	ws, _, err := f.Open(ctx, ktx.Stdout, ktx.Stderr)
	if err != nil {
		return err
	}

	if err := ws.Setup(ctx); err != nil {
		return err
	}

	path := n.Output
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.Dir, path)
	}

	if err := ninja.WriteFile(ws, path); err != nil {
		return err
	}

	log.InfoContext(ctx, "wrote build file", slog.String("path", path))

	if n.NoBuild {
		return nil
	}

	exe := which.Which("ninja")
	if exe == "" {
		return ErrNinjaNotFound
	}

	cmd := exec.CommandContext(ctx, exe, append([]string{"-f", path}, n.Args...)...)
	cmd.Dir = f.Dir
	cmd.Stdout = ktx.Stdout
	cmd.Stderr = ktx.Stderr

	if err := cmd.Run(); err != nil {
		return ErrNinjaFailed.Wrap(err).With(slog.String("path", exe))
	}

	return nil
}
