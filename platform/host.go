package platform

import (
	"os"
	"runtime"
	"strings"

	"github.com/ardnew/creator/macro"
)

// Variables defined by [Host.Define].
const (
	VarPlatform     = "Platform"
	VarStandard     = "PlatformStandard"
	VarArchitecture = "Architecture"
	// VarOverride forces a table by platform identifier or table name.
	VarOverride = "creator.platform"
)

// Supported lists the platform identifiers that have a table.
//
//nolint:gochecknoglobals
var Supported = []string{"Windows", "Cygwin", "Linux", "Darwin", "Mac"}

// Host describes the platform creator runs on.
type Host struct {
	Platform     string
	Standard     string // NT, Posix or BSD
	Architecture string
}

// Detect returns the host platform. GOOS and GOARCH in the environment
// override the runtime values.
func Detect() Host {
	goos, ok := os.LookupEnv("GOOS")
	if !ok {
		goos = runtime.GOOS
	}

	goarch, ok := os.LookupEnv("GOARCH")
	if !ok {
		goarch = runtime.GOARCH
	}

	h := hostFor(goos, goarch)

	if h.Platform == "Windows" && strings.HasPrefix(os.Getenv("OSTYPE"), "cygwin") {
		h.Platform, h.Standard = "Cygwin", "Posix"
	}

	return h
}

func hostFor(goos, goarch string) Host {
	var h Host

	switch goos {
	case "windows":
		h.Platform, h.Standard = "Windows", "NT"
	case "linux", "android":
		h.Platform, h.Standard = "Linux", "Posix"
	case "darwin", "ios":
		h.Platform, h.Standard = "Darwin", "Posix"
	case "freebsd":
		h.Platform, h.Standard = "FreeBSD", "BSD"
	case "openbsd", "netbsd", "dragonfly":
		h.Platform, h.Standard = "BSD", "BSD"
	case "":
		h.Platform = "Unknown"
	default:
		h.Platform, h.Standard = strings.ToUpper(goos[:1])+goos[1:], "Posix"
	}

	switch goarch {
	case "amd64":
		h.Architecture = "x64"
	case "386":
		h.Architecture = "x86"
	default:
		h.Architecture = goarch
	}

	return h
}

// Define stores the host description in s as literal text.
func (h Host) Define(s *macro.Store) error {
	for _, kv := range [][2]string{
		{VarPlatform, h.Platform},
		{VarStandard, h.Standard},
		{VarArchitecture, h.Architecture},
	} {
		if err := s.DefineText(kv[0], kv[1]); err != nil {
			return err
		}
	}

	return nil
}
