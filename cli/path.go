package cli

import (
	"os"

	"github.com/ardnew/creator/pkg"
)

// baseConfig is the base name of the configuration files.
const baseConfig = "config"

// DefaultDirMode is the default permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	// Create base config directory
	err := os.MkdirAll(pkg.ConfigDir(), defaultDirMode)
	if err != nil {
		return err
	}

	// Create base cache directory
	return os.MkdirAll(pkg.CacheDir(), defaultDirMode)
}
