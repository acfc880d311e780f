package macro

import "github.com/ardnew/creator/pkg"

// Sentinel errors. Use errors.Is to match them.
var (
	ErrSyntax    = pkg.NewError(pkg.KindConfiguration, "malformed macro syntax")
	ErrUndefined = pkg.NewError(pkg.KindConfiguration, "undefined variable")
	ErrName      = pkg.NewError(pkg.KindConfiguration, "invalid variable name")
	ErrArgCount  = pkg.NewError(pkg.KindConfiguration, "wrong number of arguments")
	ErrArgument  = pkg.NewError(pkg.KindConfiguration, "invalid argument")
	ErrNamespace = pkg.NewError(pkg.KindConfiguration, "unknown namespace")
	ErrCycle     = pkg.NewError(pkg.KindCycle, "expansion cycle")
	ErrMaxDepth  = pkg.NewError(pkg.KindCycle, "maximum expansion depth exceeded")
)
