//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

// version is the semantic version of the creator module embedded at build
// time. It is printed by the CLI version flag.
//
//go:embed VERSION
var version string

// Version returns the embedded version without surrounding whitespace.
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the canonical command and module identifier used across the
	// project. It appears in help text, log prefixes, and default config paths.
	Name = "creator"
	// Description is a short, human-readable summary of the project used in
	// help output.
	Description = "Macro-driven ninja build file generator"
	// UnitExt is the file extension of unit scripts.
	UnitExt = ".crunit"
	// PathEnv names the environment variable holding additional unit
	// search directories.
	PathEnv = "CREATORPATH"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	// Name is the author's preferred name or handle.
	Name string
	// Email is the author's contact email address.
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
