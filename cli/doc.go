// Package cli implements the choixe command-line interface on top of
// kong: flag parsing, logger setup, and dispatch to the subcommands in
// the cmd package.
package cli
