package unit

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ardnew/mung"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/ardnew/creator/pkg"
)

var identRe = regexp.MustCompile(`^[A-Za-z0-9\-._]+$`)

// ValidIdentifier reports whether s may name a unit, target or task.
func ValidIdentifier(s string) bool { return identRe.MatchString(s) }

func validate(kind, s string) error {
	if ValidIdentifier(s) {
		return nil
	}

	return ErrIdentifier.With(slog.String(kind, s))
}

// SearchPath returns the directories searched for unit scripts: the
// working directory, then dirs, then the entries of CREATORPATH.
// Directories that do not exist are dropped.
func SearchPath(dirs ...string) []string {
	delim := string(os.PathListSeparator)

	// A single pre-delimited prefix keeps its inner order.
	list := mung.Make(
		mung.WithSubjectItems(os.Getenv(pkg.PathEnv)),
		mung.WithDelim(delim),
		mung.WithPrefixItems(strings.Join(append([]string{"."}, dirs...), delim)),
		mung.WithFilter(isDir),
	).String()

	return filepath.SplitList(list)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)

	return err == nil && fi.IsDir()
}

// Find returns the script of unit id. Each directory of the search path
// and its direct subdirectories are searched.
func Find(id string, path []string) (string, error) {
	if err := validate("unit", id); err != nil {
		return "", err
	}

	name := id + pkg.UnitExt

	for _, dir := range path {
		if !isDir(dir) {
			continue
		}

		candidate := filepath.Join(dir, name)
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
			return candidate, nil
		}

		matches, err := doublestar.Glob(
			os.DirFS(dir), "*/"+name, doublestar.WithFilesOnly(),
		)
		if err == nil && len(matches) > 0 {
			return filepath.Join(dir, filepath.FromSlash(matches[0])), nil
		}
	}

	return "", ErrUnitNotFound.With(
		slog.String("unit", id),
		slog.Any("path", path),
	)
}

// Main returns the identifier of the only unit script in dir.
func Main(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+pkg.UnitExt))
	if err != nil {
		return "", ErrNoMainUnit.Wrap(err)
	}

	switch len(matches) {
	case 0:
		return "", ErrNoMainUnit.With(
			slog.String("reason", "no *"+pkg.UnitExt+" file"),
			slog.String("dir", dir),
		)
	case 1:
		base := filepath.Base(matches[0])

		return base[:len(base)-len(pkg.UnitExt)], nil
	default:
		return "", ErrNoMainUnit.With(
			slog.String("reason", "multiple *"+pkg.UnitExt+" files"),
			slog.String("dir", dir),
		)
	}
}

// normpath makes path absolute relative to dir and cleans it.
func normpath(dir, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	return filepath.Clean(path)
}
