package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/creator/log"
	"github.com/ardnew/creator/unit"
)

//nolint:gochecknoglobals
var statusStyle = map[unit.Status]lipgloss.Style{
	unit.StatusPending:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	unit.StatusSkipped:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	unit.StatusSetup:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	unit.StatusRunning:  lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	unit.StatusFinished: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	unit.StatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
}

// Build sets up the workspace and runs the commands of the selected
// targets in dependency order.
type Build struct {
	Targets   []string `arg:"" help:"Targets to build (default: all)." optional:""`
	NoSummary bool     `help:"Do not print the build summary."       short:"S"`
}

// Run executes the build command.
func (b *Build) Run(ctx context.Context, ktx *kong.Context, f *Workspace) error {
	ws, main, err := f.Open(ctx, ktx.Stdout, ktx.Stderr)
	if err != nil {
		return err
	}

	if err := ws.Setup(ctx); err != nil {
		return err
	}

	targets, err := resolveTargets(ws, main, b.Targets)
	if err != nil {
		return err
	}

	err = ws.Build(ctx, targets...)

	if !b.NoSummary {
		summary(ktx.Stdout, ws.Targets())
	}

	if err != nil {
		log.ErrorContext(ctx, "build failed", slog.Any("error", err))

		return ErrBuildFailed.Wrap(err)
	}

	return nil
}

// summary prints one line per target with its final status.
func summary(w io.Writer, targets []*unit.Target) {
	for _, t := range targets {
		status := t.Status().String()
		if msg := t.Message(); msg != "" && t.Status() != unit.StatusFinished {
			status += " (" + msg + ")"
		}

		fmt.Fprintf(w, "* %-20s : %s\n", t.Identifier(), statusStyle[t.Status()].Render(status))
	}
}
