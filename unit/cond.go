package unit

import (
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"
)

// condEnv builds the environment of a when condition evaluated in u.
func (u *Unit) condEnv() map[string]any {
	get := func(name string) string {
		v, _ := u.store.Get(name)

		return v
	}

	return map[string]any{
		"Platform":         get("Platform"),
		"PlatformStandard": get("PlatformStandard"),
		"Architecture":     get("Architecture"),
		"self":             u.id,
		"defined":          func(name string) bool { return u.store.Defined(name) },
		"eval":             func(text string) (string, error) { return u.store.Eval(text) },
		"eq":               func(a, b string) bool { return strings.TrimSpace(a) == strings.TrimSpace(b) },
		"ne":               func(a, b string) bool { return strings.TrimSpace(a) != strings.TrimSpace(b) },
	}
}

// cond evaluates a when condition. An empty condition is true.
func (u *Unit) cond(source string) (bool, error) {
	if strings.TrimSpace(source) == "" {
		return true, nil
	}

	env := u.condEnv()

	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, ErrCondition.Wrap(err).
			With(slog.String("unit", u.id), slog.String("source", source))
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, ErrCondition.Wrap(err).
			With(slog.String("unit", u.id), slog.String("source", source))
	}

	ok, _ := out.(bool)

	u.ws.cfg.logger.Trace("condition",
		slog.String("unit", u.id),
		slog.String("source", source),
		slog.Bool("result", ok),
	)

	return ok, nil
}
