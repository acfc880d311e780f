package unit

import (
	"io"
	"os"

	"github.com/ardnew/creator/log"
	"github.com/ardnew/creator/macro"
	"github.com/ardnew/creator/platform"
)

type config struct {
	path    []string
	strict  bool
	quote   macro.QuoteStyle
	environ func(string) (string, bool)
	logger  log.Logger
	stdout  io.Writer
	stderr  io.Writer
	host    *platform.Host
	loader  []platform.Option
	profile string
}

// Option configures a [Workspace].
type Option func(*config)

// WithSearchPath sets the directories searched for unit scripts.
func WithSearchPath(dirs ...string) Option {
	return func(c *config) { c.path = dirs }
}

// WithStrict makes undefined variable references fatal.
func WithStrict(strict bool) Option {
	return func(c *config) { c.strict = strict }
}

// WithQuoteStyle sets the shell quoting style of the macro functions.
func WithQuoteStyle(q macro.QuoteStyle) Option {
	return func(c *config) { c.quote = q }
}

// WithEnviron sets the lookup used for names not defined in any scope. A
// nil lookup disables the fallback.
func WithEnviron(lookup func(string) (string, bool)) Option {
	return func(c *config) { c.environ = lookup }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithOutput sets the writers for messages and command output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *config) {
		if stdout != nil {
			c.stdout = stdout
		}

		if stderr != nil {
			c.stderr = stderr
		}
	}
}

// WithHost replaces the detected host platform.
func WithHost(h platform.Host) Option {
	return func(c *config) { c.host = &h }
}

// WithLoaderOptions configures the platform table loader.
func WithLoaderOptions(opts ...platform.Option) Option {
	return func(c *config) { c.loader = append(c.loader, opts...) }
}

// WithProfile runs the script at path in the global scope when the
// workspace is created. A missing file is ignored.
func WithProfile(path string) Option {
	return func(c *config) { c.profile = path }
}

func makeConfig(opts ...Option) config {
	c := config{
		environ: os.LookupEnv,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}

	if c.path == nil {
		c.path = SearchPath()
	}

	return c
}
