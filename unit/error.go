package unit

import "github.com/ardnew/creator/pkg"

// Sentinel errors. Use errors.Is to match them.
var (
	ErrIdentifier     = pkg.NewError(pkg.KindConfiguration, "invalid identifier")
	ErrUnitNotFound   = pkg.NewError(pkg.KindConfiguration, "unit not found")
	ErrNoMainUnit     = pkg.NewError(pkg.KindConfiguration, "cannot determine main unit")
	ErrScript         = pkg.NewError(pkg.KindConfiguration, "invalid unit script")
	ErrCondition      = pkg.NewError(pkg.KindConfiguration, "invalid condition")
	ErrDuplicate      = pkg.NewError(pkg.KindConfiguration, "duplicate declaration")
	ErrTargetNotFound = pkg.NewError(pkg.KindConfiguration, "no such target")
	ErrTaskNotFound   = pkg.NewError(pkg.KindConfiguration, "no such task")
	ErrFileCount      = pkg.NewError(pkg.KindConfiguration, "input file count must match output file count")
	ErrNoOutputs      = pkg.NewError(pkg.KindConfiguration, "build declares no outputs")
	ErrCommand        = pkg.NewError(pkg.KindConfiguration, "command failed")
	ErrLoadCycle      = pkg.NewError(pkg.KindCycle, "circular unit load")
	ErrRequiresCycle  = pkg.NewError(pkg.KindCycle, "circular target requirement")
)
