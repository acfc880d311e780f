package cmd

import "github.com/ardnew/creator/pkg"

var (
	ErrDefineSyntax  = pkg.NewError(pkg.KindConfiguration, "expected NAME=VALUE")
	ErrBuildFailed   = pkg.NewError(pkg.KindConfiguration, "build failed")
	ErrNinjaNotFound = pkg.NewError(pkg.KindConfiguration, "ninja executable not found")
	ErrNinjaFailed   = pkg.NewError(pkg.KindConfiguration, "ninja failed")
	ErrJSONMarshal   = pkg.NewError(pkg.KindConfiguration, "marshal JSON")
	ErrYAMLMarshal   = pkg.NewError(pkg.KindConfiguration, "marshal YAML")
	ErrWriteConfig   = pkg.NewError(pkg.KindConfiguration, "write configuration file")
	ErrFileExists    = pkg.NewError(pkg.KindConfiguration, "file exists (use --force to overwrite)")
)
