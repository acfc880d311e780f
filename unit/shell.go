package unit

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// shellCommand returns the command that runs line in the system shell.
func shellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", line)
	}

	return exec.CommandContext(ctx, "sh", "-c", line)
}

// shell runs line in dir with the output of the workspace.
func (w *Workspace) shell(ctx context.Context, dir, line string) error {
	cmd := shellCommand(ctx, line)
	cmd.Dir = dir
	cmd.Stdout = w.cfg.stdout
	cmd.Stderr = w.cfg.stderr

	w.cfg.logger.Debug("shell", slog.String("dir", dir), slog.String("command", line))

	return cmd.Run()
}

// shellGet runs line in dir and returns its trimmed standard output.
func (w *Workspace) shellGet(ctx context.Context, dir, line string) (string, error) {
	var out bytes.Buffer

	cmd := shellCommand(ctx, line)
	cmd.Dir = dir
	cmd.Stdout = &out
	cmd.Stderr = w.cfg.stderr

	w.cfg.logger.Debug("shell", slog.String("dir", dir), slog.String("command", line))

	if err := cmd.Run(); err != nil {
		return "", ErrCommand.Wrap(err).With(slog.String("command", line))
	}

	return strings.TrimSpace(out.String()), nil
}

// execArgs runs argv in dir without a shell.
func (w *Workspace) execArgs(ctx context.Context, dir string, argv []string) error {
	if len(argv) == 0 {
		return ErrCommand.With(slog.String("reason", "empty argument list"))
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = w.cfg.stdout
	cmd.Stderr = w.cfg.stderr

	w.cfg.logger.Debug("exec", slog.String("dir", dir), slog.Any("argv", argv))

	if err := cmd.Run(); err != nil {
		return ErrCommand.Wrap(err).With(slog.Any("argv", argv))
	}

	return nil
}
