package pkg

import (
	"errors"
	"log/slog"
	"strings"
)

// Kind classifies an [Error] by how the build must react to it.
type Kind int

const (
	// KindConfiguration marks a fatal configuration error: unsupported
	// platform, unresolvable reference, malformed macro syntax.
	KindConfiguration Kind = iota // configuration
	// KindCycle marks a fatal expansion cycle.
	KindCycle // cycle
	// KindProbe marks advisory metadata that could not be gathered.
	// Probe errors are logged as warnings and never abort a build.
	KindProbe // probe
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindCycle:
		return "cycle"
	case KindProbe:
		return "probe"
	default:
		return "unknown"
	}
}

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Errors derived from a sentinel with [Error.With] or [Error.Wrap] still
// match that sentinel with [errors.Is].
type Error struct {
	base  *Error      // Sentinel this error was derived from
	msg   string      // Base message
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	kind  Kind
}

// NewError creates a new sentinel Error of the given kind.
func NewError(kind Kind, msg string) *Error {
	return &Error{msg: msg, kind: kind}
}

// WrapError wraps a standard error into an Error. If err already is (or
// wraps) an *Error, that error is returned.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.base != nil && e.base == t)
}

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// Attrs returns a copy of the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr {
	return append([]slog.Attr(nil), e.attrs...)
}

// Attr returns the value of the attribute with the given key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for i := len(e.attrs) - 1; i >= 0; i-- {
		if e.attrs[i].Key == key {
			return e.attrs[i].Value, true
		}
	}

	return slog.Value{}, false
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	attrs = append(attrs, slog.String("kind", e.kind.String()))

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		base:  e.sentinel(),
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		kind:  e.kind,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		base:  e.sentinel(),
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		kind:  e.kind,
	}
}

func (e *Error) sentinel() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// KindOf returns the kind of the first *Error in err's chain. Errors that
// are not an *Error are treated as configuration errors.
func KindOf(err error) Kind {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.kind
	}

	return KindConfiguration
}

// IsFatal reports whether err must abort the build. Only probe errors are
// non-fatal.
func IsFatal(err error) bool {
	return err != nil && KindOf(err) != KindProbe
}
