// Package log provides the structured logger used throughout creator,
// built on [log/slog].
//
// Loggers are immutable values configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
// The zero [Logger] discards everything, so library packages can accept a
// Logger option without requiring callers to provide one.
//
// A process-wide default logger backs the package-level functions
// ([Debug], [Info], [Warn], [Error] and their Context variants) and is
// reconfigured with [Config].
//
// When pretty printing is enabled (the default), text output colors keys,
// values and levels with lipgloss, and JSON output is indented.
package log
