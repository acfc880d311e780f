package platform

import "github.com/ardnew/creator/pkg"

// Sentinel errors. Use errors.Is to match them.
var (
	ErrUnsupported   = pkg.NewError(pkg.KindConfiguration, "unsupported platform")
	ErrUnknownTable  = pkg.NewError(pkg.KindConfiguration, "unknown platform table")
	ErrTableConflict = pkg.NewError(pkg.KindConfiguration, "platform table already loaded")
	ErrTable         = pkg.NewError(pkg.KindConfiguration, "malformed platform table")
	ErrProbe         = pkg.NewError(pkg.KindProbe, "compiler probe failed")
)
