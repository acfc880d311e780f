package macro

import (
	"runtime"
	"strings"
	"unicode"
)

// QuoteStyle selects how [QuoteStyle.Quote] protects a shell argument.
type QuoteStyle int

const (
	// QuoteHost selects the style of the running operating system.
	QuoteHost QuoteStyle = iota // host
	// QuotePosix wraps arguments in single quotes.
	QuotePosix // posix
	// QuoteWindows wraps arguments containing whitespace in double quotes.
	QuoteWindows // windows
)

// String returns the name of the style.
func (q QuoteStyle) String() string {
	switch q {
	case QuotePosix:
		return "posix"
	case QuoteWindows:
		return "windows"
	default:
		return "host"
	}
}

// ParseQuoteStyle parses "posix", "windows" or "host".
func ParseQuoteStyle(s string) QuoteStyle {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "posix", "sh":
		return QuotePosix
	case "windows", "nt", "cmd":
		return QuoteWindows
	default:
		return QuoteHost
	}
}

func (q QuoteStyle) resolve() QuoteStyle {
	if q != QuoteHost {
		return q
	}

	if runtime.GOOS == "windows" {
		return QuoteWindows
	}

	return QuotePosix
}

// Quote returns s as a single shell argument. Quoting an already quoted
// token returns it unchanged.
func (q QuoteStyle) Quote(s string) string {
	if q.resolve() == QuoteWindows {
		return quoteWindows(s)
	}

	return quotePosix(s)
}

func quotePosix(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' &&
		!strings.Contains(s[1:len(s)-1], "'") {
		return s
	}

	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func quoteWindows(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s
	}

	s = strings.ReplaceAll(s, `"`, `\"`)

	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return `"` + s + `"`
	}

	return s
}
