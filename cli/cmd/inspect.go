package cmd

import (
	"context"
	"log/slog"

	"github.com/choixe-lang/choixe/config"
	"github.com/choixe-lang/choixe/lang"
	"github.com/choixe-lang/choixe/log"
)

// Inspect statically reports what a configuration depends on.
type Inspect struct {
	Source

	Cwd    string `help:"Directory relative imports resolve against." type:"existingdir"`
	Output string `help:"Write the report to this path instead of stdout." short:"o" type:"path"`
}

// Run executes the inspect command.
func (c *Inspect) Run(ctx context.Context, logger log.Logger) error {
	cfg, err := config.FromFile(c.Path)
	if err != nil {
		return err
	}

	opts := []lang.Option{lang.WithLogger(logger)}
	if c.Cwd != "" {
		opts = append(opts, lang.WithCwd(c.Cwd))
	}

	insp, err := cfg.Inspect(opts...)
	if err != nil {
		return lang.WrapError(err).With(
			slog.String("command", "inspect"),
			slog.String("path", c.Path),
		)
	}

	report := map[string]any{
		"imports":   insp.Imports,
		"variables": insp.Variables,
		"environ":   insp.Environ,
		"help":      insp.HelpStrings,
		"symbols":   insp.Symbols,
		"processed": insp.Processed,
	}

	return emit(report, c.Output)
}
