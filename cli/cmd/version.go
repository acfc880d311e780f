package cmd

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/ardnew/creator/pkg"
)

// Version prints the version.
type Version struct{}

// Run executes the version command.
func (Version) Run(ktx *kong.Context) error {
	_, err := fmt.Fprintln(ktx.Stdout, pkg.Name, pkg.Version())

	return err
}
