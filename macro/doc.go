// Package macro implements the variable store and macro language used by
// creator unit scripts and platform tables.
//
// # Syntax
//
//	$name            variable reference
//	${ name }        braced reference
//	$(name a, b)     call with arguments ($1, $2, ... inside the callee)
//	$0               the whole argument list of the current call
//	$"name           expansion split as a list, each item quoted
//	$!name           expansion split as a list, joined with spaces
//	$$               a literal dollar sign
//	\$ \\ \, \( \)   escaped characters
//
// Identifiers consist of letters, digits and the characters "_.<@:". A
// colon separates a namespace from the variable name ("lib:CFlags"); an
// empty namespace (":CFlags") addresses the global scope.
//
// Lists are strings of ";"-separated items (see [Split] and [Join]).
//
// # Evaluation
//
// Values are parsed when they are defined and expanded lazily when they are
// used. Lookup is dynamic: references resolve from the [Store] the
// evaluation started in, walking toward the root, then the builtin
// functions, then (optionally) the process environment. A definition that
// refers to its own name is bound to the previously visible value, so
//
//	CFlags = "$CFlags -Wall"
//
// appends instead of recursing. Any other path that revisits a definition
// fails with [ErrCycle].
package macro
