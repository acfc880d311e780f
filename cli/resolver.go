package cli

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/creator/log"
)

// resolveYAML is a [kong.ConfigurationLoader] that reads a flat YAML
// mapping of flag names to values.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolveYAML, "/path/to/config.yaml")
//
// Flag names with hyphens (e.g., "log-level") may use underscores in the
// config file (e.g., "log_level"):
//
//	log_level: debug
//	log-format: text
//	strict: true
//	unitpath: [lib, vendor]
//
// Command-line flags override config file values. A file that cannot be
// parsed is ignored with a warning.
func resolveYAML(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err != io.EOF {
			log.Warn("ignoring configuration file", slog.String("error", err.Error()))
		}

		return config{}, nil
	}

	out := make(config, len(doc))
	for key, value := range doc {
		out[key] = native(value)
	}

	return out, nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	name := flag.Name

	if value, ok := r[name]; ok {
		return value, nil
	}

	// Try underscore variant
	if value, ok := r[strings.ReplaceAll(name, "-", "_")]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}

// native converts decoded YAML values to the forms kong accepts. Kong
// requires numbers as strings for parsing.
func native(v any) any {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = native(item)
		}

		return out
	default:
		return v
	}
}
