package unit

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/creator/macro"
	"github.com/ardnew/creator/pkg"
)

// Status is the lifecycle state of a [Target].
type Status int

const (
	StatusPending  Status = iota // pending
	StatusSkipped                // skipped
	StatusSetup                  // setup
	StatusRunning                // running
	StatusFinished               // finished
	StatusFailed                 // failed
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSkipped:
		return "skipped"
	case StatusSetup:
		return "setup"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Build declares how outputs are produced from inputs. All fields are
// macro expressions evaluated during setup.
type Build struct {
	Inputs    string
	Outputs   string
	Command   string
	Auxiliary string
	// Each builds every input/output pair with its own command.
	Each bool
}

// Command is one fully expanded build command.
type Command struct {
	Inputs    []string
	Outputs   []string
	Auxiliary []string
	Command   string
}

// Target is a named set of build commands. Targets are set up after all
// units are loaded.
type Target struct {
	unit     *Unit
	name     string
	requires []string
	when     string
	builds   []Build

	status   Status
	message  string
	settling bool
	deps     []*Target
	commands []Command
}

// Name returns the target name.
func (t *Target) Name() string { return t.name }

// Identifier returns "unit:name".
func (t *Target) Identifier() string { return t.unit.id + ":" + t.name }

// Unit returns the unit that declared t.
func (t *Target) Unit() *Unit { return t.unit }

// Status returns the lifecycle state.
func (t *Target) Status() Status { return t.status }

// Message returns the reason of the last failure or skip.
func (t *Target) Message() string { return t.message }

// Dependencies returns the required targets. Valid after setup.
func (t *Target) Dependencies() []*Target { return t.deps }

// Commands returns the expanded build commands. Valid after setup.
func (t *Target) Commands() []Command { return t.commands }

// Setup resolves the requirements of t, sets them up, and expands its
// build declarations. A target whose condition is false is skipped.
func (t *Target) Setup(ctx context.Context) error {
	if t.status != StatusPending {
		return nil
	}

	if t.settling {
		return ErrRequiresCycle.With(slog.String("target", t.Identifier()))
	}

	t.settling = true
	defer func() { t.settling = false }()

	if t.when != "" {
		ok, err := t.unit.cond(t.when)
		if err != nil {
			return err
		}

		if !ok {
			t.status, t.message = StatusSkipped, "condition is false"

			return nil
		}
	}

	for _, ref := range t.requires {
		dep, err := t.unit.ws.Target(t.unit, ref)
		if err != nil {
			return err
		}

		if err := dep.Setup(ctx); err != nil {
			if errors.Is(err, ErrRequiresCycle) {
				return chainCycle(err, t)
			}

			return err
		}

		t.deps = append(t.deps, dep)
	}

	for _, b := range t.builds {
		cmds, err := t.expand(b)
		if err != nil {
			t.status, t.message = StatusFailed, err.Error()

			return err
		}

		t.commands = append(t.commands, cmds...)
	}

	t.status = StatusSetup

	t.unit.ws.cfg.logger.Trace("target set up",
		slog.String("target", t.Identifier()),
		slog.Int("commands", len(t.commands)),
	)

	return nil
}

// chainCycle prepends t to the chain of a requirement cycle error.
func chainCycle(err error, t *Target) error {
	chain := t.Identifier()

	var perr *pkg.Error
	if errors.As(err, &perr) {
		if v, ok := perr.Attr("chain"); ok {
			chain += " → " + v.String()
		} else if v, ok := perr.Attr("target"); ok {
			chain += " → " + v.String()
		}
	}

	return ErrRequiresCycle.With(slog.String("chain", chain))
}

func (t *Target) expand(b Build) ([]Command, error) {
	u := t.unit

	inputs, err := t.files(b.Inputs)
	if err != nil {
		return nil, err
	}

	outputs, err := t.files(b.Outputs)
	if err != nil {
		return nil, err
	}

	if len(outputs) == 0 {
		return nil, ErrNoOutputs.With(slog.String("target", t.Identifier()))
	}

	aux, err := t.files(b.Auxiliary)
	if err != nil {
		return nil, err
	}

	if !b.Each {
		cmd, err := u.evalWith(b.Command, map[string]string{
			"<": macro.Join(inputs...),
			"@": macro.Join(outputs...),
		})
		if err != nil {
			return nil, err
		}

		return []Command{{Inputs: inputs, Outputs: outputs, Auxiliary: aux, Command: cmd}}, nil
	}

	if len(inputs) != len(outputs) {
		return nil, ErrFileCount.With(
			slog.String("target", t.Identifier()),
			slog.Int("inputs", len(inputs)),
			slog.Int("outputs", len(outputs)),
		)
	}

	cmds := make([]Command, 0, len(inputs))

	for i := range inputs {
		cmd, err := u.evalWith(b.Command, map[string]string{
			"<": inputs[i],
			"@": outputs[i],
		})
		if err != nil {
			return nil, err
		}

		cmds = append(cmds, Command{
			Inputs:    []string{inputs[i]},
			Outputs:   []string{outputs[i]},
			Auxiliary: aux,
			Command:   cmd,
		})
	}

	return cmds, nil
}

// files evaluates a list expression into normalized paths.
func (t *Target) files(expr string) ([]string, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	s, err := t.unit.Eval(expr)
	if err != nil {
		return nil, err
	}

	items := macro.Split(s)
	for i, item := range items {
		items[i] = normpath(t.unit.dir, item)
	}

	return items, nil
}

// Run runs the commands of t. Dependencies are not run.
func (t *Target) Run(ctx context.Context) error {
	if t.status != StatusSetup {
		return nil
	}

	t.status = StatusRunning
	ws := t.unit.ws

	for _, c := range t.commands {
		ws.cfg.logger.Info("running", slog.String("target", t.Identifier()))
		ws.message(t.unit, styleCommand, c.Command)

		if err := ws.shell(ctx, t.unit.dir, c.Command); err != nil {
			t.status, t.message = StatusFailed, err.Error()

			return ErrCommand.Wrap(err).With(
				slog.String("target", t.Identifier()),
				slog.String("command", c.Command),
			)
		}
	}

	t.status = StatusFinished

	return nil
}

// Build runs targets after the targets they require. A failed target stops
// the build.
func (w *Workspace) Build(ctx context.Context, targets ...*Target) error {
	for _, t := range targets {
		if err := w.build(ctx, t); err != nil {
			return err
		}
	}

	return nil
}

func (w *Workspace) build(ctx context.Context, t *Target) error {
	for _, dep := range t.deps {
		if err := w.build(ctx, dep); err != nil {
			return err
		}
	}

	return t.Run(ctx)
}
