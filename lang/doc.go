// Package lang implements the directive micro-language embedded in plain
// configuration data.
//
// A configuration is ordinary nested data (mappings, sequences, scalars)
// whose strings may contain directives such as "$var(params.lr)" or
// "$import(base.yml)". [Parse] turns the data into a syntax tree, and the
// visitors consume it:
//
//   - [Processor.Process] evaluates the tree into one or more concrete
//     configurations, expanding $sweep branches.
//   - [Unparse] renders a tree back to plain data.
//   - [Inspect] statically reports the variables, imports, and symbols a
//     tree depends on.
//   - [Walk] flattens a tree into deep key-value pairs.
//   - [Decode] renders a tree while coercing foreign objects to
//     markup-friendly values.
//
// Side effects (file loading, symbol resolution, shell commands, temporary
// directories, random sampling) are reached through small collaborator
// interfaces installed with functional options, so evaluation stays
// testable and embeddable.
package lang
