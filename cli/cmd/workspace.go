package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/creator/log"
	"github.com/ardnew/creator/macro"
	"github.com/ardnew/creator/pkg"
	"github.com/ardnew/creator/platform"
	"github.com/ardnew/creator/unit"
)

// Workspace holds the flags shared by every command that loads units.
type Workspace struct {
	Define     []string `help:"Define a global variable as literal text."     placeholder:"NAME=VALUE" sep:"none" short:"D"`
	Macro      []string `help:"Define a global variable as a macro."          placeholder:"NAME=VALUE" sep:"none" short:"M"`
	UnitPath   []string `help:"Add a directory to the unit search path."      name:"unitpath"          short:"P" type:"path"`
	Identifier string   `help:"Main unit (default: the only unit in --dir)."  short:"I"`
	Dir        string   `default:"."                                          help:"Project directory." short:"C" type:"path"`
	Strict     bool     `help:"Make references to undefined variables fatal."`
	Platform   string   `help:"Force a platform table (sets creator.platform)."`
	Quote      string   `default:"host"                                       enum:"host,posix,windows" help:"Shell quoting style."`
	NoProfile  bool     `help:"Do not run the profile unit."`
}

// Open creates the workspace, applies the command-line definitions and
// loads the main unit.
func (f *Workspace) Open(
	ctx context.Context,
	stdout, stderr io.Writer,
) (*unit.Workspace, *unit.Unit, error) {
	opts := []unit.Option{
		unit.WithSearchPath(unit.SearchPath(append([]string{f.Dir}, f.UnitPath...)...)...),
		unit.WithStrict(f.Strict),
		unit.WithQuoteStyle(macro.ParseQuoteStyle(f.Quote)),
		unit.WithLogger(log.Default()),
		unit.WithOutput(stdout, stderr),
		unit.WithLoaderOptions(platform.WithLogger(log.Default())),
	}

	if !f.NoProfile {
		opts = append(opts, unit.WithProfile(pkg.ProfilePath()))
	}

	ws, err := unit.New(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	if err := f.define(ws); err != nil {
		return nil, nil, err
	}

	id := f.Identifier
	if id == "" {
		if id, err = unit.Main(f.Dir); err != nil {
			return nil, nil, err
		}
	}

	var main *unit.Unit

	path := filepath.Join(f.Dir, id+pkg.UnitExt)
	if _, serr := os.Stat(path); serr == nil {
		main, err = ws.LoadFile(ctx, id, path)
	} else {
		main, err = ws.Load(ctx, id)
	}

	if err != nil {
		return nil, nil, err
	}

	log.DebugContext(ctx, "workspace opened",
		slog.String("main", main.ID()),
		slog.Int("units", len(ws.Units())),
	)

	return ws, main, nil
}

func (f *Workspace) define(ws *unit.Workspace) error {
	if f.Platform != "" {
		if err := ws.Define(platform.VarOverride, f.Platform); err != nil {
			return err
		}
	}

	for _, kv := range f.Define {
		name, value, err := splitDefine(kv)
		if err != nil {
			return err
		}

		if err := ws.Define(name, value); err != nil {
			return err
		}
	}

	for _, kv := range f.Macro {
		name, value, err := splitDefine(kv)
		if err != nil {
			return err
		}

		if err := ws.DefineMacro(name, value); err != nil {
			return err
		}
	}

	return nil
}

func splitDefine(kv string) (string, string, error) {
	name, value, ok := strings.Cut(kv, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", ErrDefineSyntax.With(slog.String("argument", kv))
	}

	return strings.TrimSpace(name), value, nil
}

// resolveTargets returns the targets named by refs relative to main, or
// every target when refs is empty.
func resolveTargets(ws *unit.Workspace, main *unit.Unit, refs []string) ([]*unit.Target, error) {
	if len(refs) == 0 {
		return ws.Targets(), nil
	}

	targets := make([]*unit.Target, 0, len(refs))

	for _, ref := range refs {
		t, err := ws.Target(main, ref)
		if err != nil {
			return nil, err
		}

		targets = append(targets, t)
	}

	return targets, nil
}
