package macro

import (
	"os"

	"github.com/ardnew/creator/log"
)

// DefaultMaxDepth bounds the nesting of expansions.
const DefaultMaxDepth = 100

// Resolver maps a namespace to the store it names. It is consulted for
// namespaces that are not an alias of the referencing store or one of its
// ancestors.
type Resolver interface {
	Namespace(from *Store, ns string) (*Store, bool)
}

// ResolverFunc adapts a function to a [Resolver].
type ResolverFunc func(from *Store, ns string) (*Store, bool)

// Namespace calls f.
func (f ResolverFunc) Namespace(from *Store, ns string) (*Store, bool) {
	return f(from, ns)
}

type options struct {
	strict   bool
	maxDepth int
	quote    QuoteStyle
	environ  func(string) (string, bool)
	resolver Resolver
	logger   log.Logger
	builtins map[string]*binding
}

func makeOptions(opts ...Option) *options {
	o := &options{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	o.builtins = make(map[string]*binding, len(builtins))
	for name, fn := range builtins {
		o.builtins[name] = &binding{name: name, node: &funcNode{name: name, fn: fn}}
	}

	return o
}

// Option configures a [Store] created with [NewStore].
type Option func(*options)

// WithStrict makes references to undefined variables fail with
// [ErrUndefined] instead of expanding to the empty string.
func WithStrict(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithMaxDepth sets the maximum expansion depth. Values below 1 select
// [DefaultMaxDepth].
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		o.maxDepth = depth
	}
}

// WithQuoteStyle sets the style used by the quoting functions.
func WithQuoteStyle(q QuoteStyle) Option {
	return func(o *options) { o.quote = q }
}

// WithEnviron sets the lookup consulted after all scopes and builtins.
func WithEnviron(lookup func(string) (string, bool)) Option {
	return func(o *options) { o.environ = lookup }
}

// WithProcessEnviron falls back to the process environment.
func WithProcessEnviron() Option { return WithEnviron(os.LookupEnv) }

// WithResolver sets the resolver for foreign namespaces.
func WithResolver(r Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithLogger sets the logger. The zero [log.Logger] discards.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}
