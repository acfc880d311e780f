// Package ninja writes ninja build files.
//
// [Writer] emits the raw syntax: comments, variables, rules and build
// statements. [Export] translates the set-up targets of a
// [unit.Workspace] into one rule and build statement per command, plus a
// phony alias per target.
package ninja
