// Package cli contains the command line interface for creator.
//
// # Usage
//
//	creator [flags] [build] [targets...]
//	creator [flags] ninja [-N] [-o build.ninja] [-- ninja args...]
//	creator [flags] run <task>
//	creator [flags] eval <expr> [args...]
//	creator [flags] vars [-f yaml|json] [--global] [--expand]
//	creator [flags] targets
//
// The main unit is the only *.crunit file in --dir unless -I names it.
// Variables given with -D are literal text; -M values are parsed as macros.
//
// # Configuration
//
// Flag defaults are read from config.json and config.yaml in the user
// configuration directory ($XDG_CONFIG_HOME/creator). Flags given on the
// command line override both. The init command writes the current flag
// values to config.yaml. The profile unit profile.crunit in the same
// directory runs before any other unit and defines into the global scope.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Profiling Options
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/creator/pprof)
//
// # Examples
//
//	# Build everything with debug logging
//	creator --log-level=debug
//
//	# Export build.ninja for a forced toolchain without running ninja
//	creator --platform=gcc ninja -N
//
//	# Expand a macro with the platform table loaded
//	creator eval -L '$(objout main.o)'
package cli
