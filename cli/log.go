package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/creator/log"
)

// logLevel configures the default logger while kong decodes --log-level,
// so errors reported during parsing already honor it.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

// logFormat configures the default logger while kong decodes --log-format.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"info"    enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"text"    enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"kitchen"                         help:"Set timestamp format (a layout or a name such as rfc3339, none)."`
	Caller     bool      `default:"false"                           help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                            help:"Enable colorized pretty printing." negatable:""`
	Verbose    int       `short:"v"                                 help:"Log one level more detail per use (debug, trace)." type:"counter"`
	Quiet      bool      `short:"q"                                 help:"Only log errors. Overrides verbose."`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":  strings.Join(slices.Collect(log.Levels()), ","),
		"logFormatEnum": strings.Join(slices.Collect(log.Formats()), ","),
	}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// level returns the effective level: the configured level lowered one
// step per -v, or error with -q.
func (f *logConfig) level() log.Level {
	if f.Quiet {
		return log.LevelError
	}

	levels := []log.Level{
		log.LevelTrace, log.LevelDebug, log.LevelInfo, log.LevelWarn, log.LevelError,
	}

	base := log.ParseLevel(string(f.Level))

	i := slices.IndexFunc(levels, func(l log.Level) bool { return l >= base })
	if i < 0 {
		i = len(levels) - 1
	}

	return levels[max(0, i-f.Verbose)]
}

func (f *logConfig) start(ctx context.Context) {
	log.Config(
		log.WithLevel(f.level()),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", f.level().String()),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)
}

// scan applies the logger flags found in args before kong parses them.
// Only the flags present are applied; the rest keep the defaults of the
// default logger. Scanning stops at "--".
func (f *logConfig) scan(args []string) {
	var opts []log.Option

	leveled := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}

		// Bundled short flags such as -vv or -vq.
		if len(arg) > 1 && arg[0] == '-' && strings.Trim(arg[1:], "vq") == "" {
			f.Verbose += strings.Count(arg, "v")
			f.Quiet = f.Quiet || strings.Contains(arg, "q")
			leveled = true

			continue
		}

		name, value, assigned := strings.Cut(arg, "=")

		switch name {
		case "--log-level", "--log-format":
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				value = args[i]
			}

			if name == "--log-format" {
				f.Format = logFormat(value)
				opts = append(opts, log.WithFormat(log.ParseFormat(value)))

				continue
			}

			f.Level = logLevel(value)
			leveled = true

		case "--log-verbose":
			f.Verbose++
			leveled = true

		default:
			flag, ok := f.boolFlag(name)
			if !ok {
				continue
			}

			v, err := boolValue(name, value, assigned)
			if err != nil {
				continue
			}

			*flag = v

			switch flag {
			case &f.Pretty:
				opts = append(opts, log.WithPretty(v))
			case &f.Caller:
				opts = append(opts, log.WithCaller(v))
			default:
				leveled = true
			}
		}
	}

	if leveled {
		opts = append(opts, log.WithLevel(f.level()))
	}

	if len(opts) > 0 {
		log.Config(opts...)
	}
}

// boolFlag returns the field of the boolean flag name, which may carry
// the --no- prefix.
func (f *logConfig) boolFlag(name string) (*bool, bool) {
	switch strings.TrimPrefix(strings.TrimPrefix(name, "--no-"), "--") {
	case "log-pretty":
		return &f.Pretty, true
	case "log-caller":
		return &f.Caller, true
	case "log-quiet":
		return &f.Quiet, true
	default:
		return nil, false
	}
}

// boolValue returns the value of a boolean flag. A value must be assigned
// with "="; a bare flag is true, or false with the --no- prefix.
func boolValue(name, value string, assigned bool) (bool, error) {
	v := true

	if assigned {
		var err error
		if v, err = strconv.ParseBool(value); err != nil {
			return false, err
		}
	}

	if strings.HasPrefix(name, "--no-") {
		v = !v
	}

	return v, nil
}
