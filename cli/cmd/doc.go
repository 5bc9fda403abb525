// Package cmd implements the choixe subcommands. Each command is a kong
// command struct whose Run method loads the configuration file, applies
// the shared context flags, and hands off to the config package.
package cmd
