package ninja

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ardnew/creator/pkg"
	"github.com/ardnew/creator/unit"
)

// RequiredVersion is written as ninja_required_version.
const RequiredVersion = "1.3"

var (
	// ErrStatus is returned when a target was not set up.
	ErrStatus = pkg.NewError(pkg.KindConfiguration, "target is not set up")
	// ErrWrite is returned when the build file cannot be written.
	ErrWrite = pkg.NewError(pkg.KindConfiguration, "cannot write build file")
)

// Export writes the set-up targets of ws as a ninja build file to out.
// Nothing is written to out unless the whole file is generated.
func Export(ws *unit.Workspace, out io.Writer) error {
	var buf bytes.Buffer

	if err := export(ws, NewWriter(&buf)); err != nil {
		return err
	}

	if _, err := buf.WriteTo(out); err != nil {
		return ErrWrite.Wrap(err)
	}

	return nil
}

// WriteFile exports ws to the file at path. An existing file is only
// replaced if the export succeeds.
func WriteFile(ws *unit.Workspace, path string) error {
	var buf bytes.Buffer

	if err := Export(ws, &buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return ErrWrite.Wrap(err).With(slog.String("path", path))
	}

	defer os.Remove(tmp.Name())

	if _, err := buf.WriteTo(tmp); err != nil {
		tmp.Close()

		return ErrWrite.Wrap(err).With(slog.String("path", path))
	}

	if err := tmp.Close(); err != nil {
		return ErrWrite.Wrap(err).With(slog.String("path", path))
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return ErrWrite.Wrap(err).With(slog.String("path", path))
	}

	return nil
}

func export(ws *unit.Workspace, w *Writer) error {
	w.Comment(fmt.Sprintf("Generated by %s %s. Do not edit.", pkg.Name, pkg.Version()))
	w.Variable("ninja_required_version", RequiredVersion, 0)
	w.Newline()

	for _, u := range ws.Units() {
		targets := u.Targets()
		if len(targets) == 0 {
			continue
		}

		slices.SortFunc(targets, func(a, b *unit.Target) int {
			return strings.Compare(a.Name(), b.Name())
		})

		w.Comment("Unit: " + u.ID())
		w.Newline()

		for _, t := range targets {
			switch t.Status() {
			case unit.StatusPending, unit.StatusSkipped:
				ws.Logger().Debug("target not exported",
					slog.String("target", t.Identifier()),
					slog.String("status", t.Status().String()),
				)

				continue
			case unit.StatusSetup:
			default:
				return ErrStatus.With(
					slog.String("target", t.Identifier()),
					slog.String("status", t.Status().String()),
				)
			}

			target(w, t)
		}
	}

	return w.Err()
}

// target writes the rules and build statements of t. The outputs of the
// targets t requires become inputs of every command.
func target(w *Writer, t *unit.Target) {
	var deps []string

	for _, dep := range t.Dependencies() {
		for _, c := range dep.Commands() {
			deps = append(deps, c.Outputs...)
		}
	}

	slices.Sort(deps)
	deps = slices.Compact(deps)

	w.Comment("Target: " + t.Identifier())

	var phony []string

	for i, c := range t.Commands() {
		rule := Ident(fmt.Sprintf("%s_%04d", t.Identifier(), i))

		w.Rule(rule, c.Command, "")
		w.Build(c.Outputs, rule, append(slices.Clone(c.Inputs), deps...), c.Auxiliary)
		w.Newline()

		phony = append(phony, c.Outputs...)
	}

	w.Build([]string{Ident(t.Identifier())}, "phony", phony, nil)
	w.Newline()
}
