// Package cmd implements the creator subcommands. Every command opens the
// workspace described by the [Workspace] flags, loads the main unit and
// acts on its targets, tasks or variables.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path of
	// the configuration file without extension.
	ConfigIdentifier = "config"
)
