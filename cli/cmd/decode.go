package cmd

import (
	"context"
	"log/slog"

	"github.com/choixe-lang/choixe/config"
	"github.com/choixe-lang/choixe/lang"
	"github.com/choixe-lang/choixe/log"
)

// Decode renders a configuration to plain markup data without evaluating
// it.
type Decode struct {
	Source

	Output string `help:"Write the result to this path instead of stdout." short:"o" type:"path"`
}

// Run executes the decode command.
func (d *Decode) Run(ctx context.Context, logger log.Logger) error {
	cfg, err := config.FromFile(d.Path)
	if err != nil {
		return err
	}

	data, err := cfg.Decode()
	if err != nil {
		return lang.WrapError(err).With(
			slog.String("command", "decode"),
			slog.String("path", d.Path),
		)
	}

	return emit(data, d.Output)
}
