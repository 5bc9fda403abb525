package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/choixe-lang/choixe/cli/cmd"
)

// CLI is the top-level command-line interface for choixe.
type CLI struct {
	Log logConfig `embed:"" group:"log" prefix:"log-"`

	Process cmd.Process `cmd:"" help:"Evaluate a configuration into concrete data"`
	Inspect cmd.Inspect `cmd:"" help:"Report the variables, imports, and symbols a configuration depends on"`
	Walk    cmd.Walk    `cmd:"" help:"Flatten a configuration into deep key-value pairs"`
	Decode  cmd.Decode  `cmd:"" help:"Render a configuration to plain markup data"`
}

// Run executes the choixe CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := kong.New(&cli,
		kong.Name("choixe"),
		kong.Description("Evaluate configuration files with embedded directives."),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{cli.Log.group()}),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact: true,
				Summary: true,
			}),
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	return ktx.Run(ctx, cli.Log.make())
}
