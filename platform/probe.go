package platform

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/hairyhenderson/go-which"
)

// MaxBannerLength bounds the output read from a probed program.
const MaxBannerLength = 4096

// Prober runs a [Probe] and returns the variables it defines.
type Prober interface {
	Probe(ctx context.Context, p *Probe) (map[string]string, error)
}

// ProberFunc adapts a function to a [Prober].
type ProberFunc func(ctx context.Context, p *Probe) (map[string]string, error)

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, p *Probe) (map[string]string, error) {
	return f(ctx, p)
}

// ExecProber runs the probed program and reads the first line of its
// combined output.
type ExecProber struct{}

// Probe implements [Prober].
func (ExecProber) Probe(ctx context.Context, p *Probe) (map[string]string, error) {
	prog := ""

	for _, name := range p.Programs {
		if prog = which.Which(name); prog != "" {
			break
		}
	}

	if prog == "" {
		return nil, ErrProbe.Wrap(errors.New("program not found")).With(
			slog.String("programs", strings.Join(p.Programs, ",")),
		)
	}

	line, err := firstLine(ctx, prog, p.Args...)
	if err != nil {
		return nil, ErrProbe.Wrap(err).With(slog.String("program", prog))
	}

	return p.Match(line)
}

// Match extracts the variables of p from a banner line.
func (p *Probe) Match(line string) (map[string]string, error) {
	re, err := regexp.Compile(p.Pattern)
	if err != nil {
		return nil, ErrProbe.Wrap(err).With(slog.String("pattern", p.Pattern))
	}

	m := re.FindStringSubmatch(line)
	if m == nil {
		return nil, ErrProbe.Wrap(errors.New("banner does not match")).With(
			slog.String("line", line),
			slog.String("pattern", p.Pattern),
		)
	}

	vars := make(map[string]string, len(p.Define))

	for i, group := range re.SubexpNames() {
		if name, ok := p.Define[group]; ok && group != "" {
			vars[name] = m[i]
		}
	}

	return vars, nil
}

// firstLine starts prog and returns the first line it writes to stdout or
// stderr. The process is killed once the line has been read.
func firstLine(ctx context.Context, prog string, args ...string) (string, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}
	defer r.Close()

	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.Stdout = w
	cmd.Stderr = w

	err = cmd.Start()
	w.Close()

	if err != nil {
		return "", err
	}

	line, err := bufio.NewReader(io.LimitReader(r, MaxBannerLength)).ReadString('\n')

	_ = cmd.Process.Kill()
	_ = cmd.Wait()

	line = strings.TrimRight(line, "\r\n")

	switch {
	case line != "":
		return line, nil
	case err == nil || errors.Is(err, io.EOF):
		return "", fmt.Errorf("%s: no output", prog)
	default:
		return "", err
	}
}
