package unit

import (
	"context"
	"log/slog"
)

// step is one action of a task: an argument list run without a shell, or
// a shell line.
type step struct {
	args  []string
	shell string
	dir   string
}

// Task is a named list of commands run on demand, after the targets it
// requires are built.
type Task struct {
	unit     *Unit
	name     string
	requires []string
	when     string
	steps    []step
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Identifier returns "unit:name".
func (t *Task) Identifier() string { return t.unit.id + ":" + t.name }

// Unit returns the unit that declared t.
func (t *Task) Unit() *Unit { return t.unit }

// Requires returns the target references of t.
func (t *Task) Requires() []string { return t.requires }

// Run builds the required targets and runs the steps of t. Every argument
// and shell line is expanded in the scope of the unit right before it runs.
func (t *Task) Run(ctx context.Context) error {
	u := t.unit
	ws := u.ws

	ok, err := u.cond(t.when)
	if err != nil {
		return err
	}

	if !ok {
		ws.cfg.logger.Info("task skipped", slog.String("task", t.Identifier()))

		return nil
	}

	for _, ref := range t.requires {
		target, err := ws.Target(u, ref)
		if err != nil {
			return err
		}

		if err := target.Setup(ctx); err != nil {
			return err
		}

		if err := ws.Build(ctx, target); err != nil {
			return err
		}
	}

	for _, s := range t.steps {
		if err := t.run(ctx, s); err != nil {
			return err
		}
	}

	return nil
}

func (t *Task) run(ctx context.Context, s step) error {
	u := t.unit

	dir := u.dir
	if s.dir != "" {
		d, err := u.Eval(s.dir)
		if err != nil {
			return err
		}

		dir = normpath(u.dir, d)
	}

	if s.args == nil {
		line, err := u.Eval(s.shell)
		if err != nil {
			return err
		}

		u.ws.message(u, styleCommand, line)

		if err := u.ws.shell(ctx, dir, line); err != nil {
			return ErrCommand.Wrap(err).With(
				slog.String("task", t.Identifier()),
				slog.String("command", line),
			)
		}

		return nil
	}

	argv := make([]string, 0, len(s.args))

	for _, a := range s.args {
		v, err := u.Eval(a)
		if err != nil {
			return err
		}

		argv = append(argv, v)
	}

	return u.ws.execArgs(ctx, dir, argv)
}
