package macro

import "strings"

// ListSep separates the items of a list.
const ListSep = ';'

// Split splits a ";"-separated list. A backslash escapes a literal
// semicolon. Items are trimmed and empty items are dropped.
func Split(text string) []string {
	var (
		items []string
		cur   strings.Builder
	)

	flush := func() {
		if item := strings.TrimSpace(cur.String()); item != "" {
			items = append(items, item)
		}

		cur.Reset()
	}

	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '\\' && i+1 < len(text) && text[i+1] == ListSep:
			cur.WriteByte(ListSep)
			i++
		case c == ListSep:
			flush()
		default:
			cur.WriteByte(c)
		}
	}

	flush()

	return items
}

// Join joins items into a list, escaping semicolons inside items. Empty
// items are dropped.
func Join(items ...string) string {
	parts := make([]string, 0, len(items))

	for _, item := range items {
		if item == "" {
			continue
		}

		parts = append(parts, strings.ReplaceAll(item, string(ListSep), `\;`))
	}

	return strings.Join(parts, string(ListSep))
}

// SetSuffix replaces the file suffix of name. The dot is optional in
// suffix; an empty suffix only removes the existing one.
func SetSuffix(name, suffix string) string {
	slash := strings.LastIndexAny(name, `/\`)
	if dot := strings.LastIndexByte(name, '.'); dot > slash {
		name = name[:dot]
	}

	if suffix == "" {
		return name
	}

	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}

	return name + suffix
}
