package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/choixe-lang/choixe/config"
	"github.com/choixe-lang/choixe/lang"
	"github.com/choixe-lang/choixe/log"
)

// Process evaluates a configuration into concrete data.
type Process struct {
	Source
	ContextFlags

	Output      string `help:"Write results to this path instead of stdout; branch indexes are appended before the extension." short:"o" type:"path"`
	NoBranching bool   `help:"Keep sweeps unexpanded and produce a single result."`
}

// Run executes the process command.
func (p *Process) Run(ctx context.Context, logger log.Logger) error {
	cfg, err := config.FromFile(p.Path)
	if err != nil {
		return err
	}

	opts, err := p.options(logger)
	if err != nil {
		return err
	}

	if p.NoBranching {
		out, err := cfg.Process(opts...)
		if err != nil {
			return lang.WrapError(err).With(
				slog.String("command", "process"),
				slog.String("path", p.Path),
			)
		}

		return emit(out.Data(), p.Output)
	}

	outs, err := cfg.ProcessAll(opts...)
	if err != nil {
		return lang.WrapError(err).With(
			slog.String("command", "process"),
			slog.String("path", p.Path),
		)
	}

	logger.DebugContext(ctx, "configuration processed",
		slog.String("path", p.Path),
		slog.Int("branches", len(outs)),
	)

	if len(outs) == 1 {
		return emit(outs[0].Data(), p.Output)
	}

	for i, out := range outs {
		if p.Output != "" {
			if err := emit(out.Data(), branchPath(p.Output, i)); err != nil {
				return err
			}

			continue
		}

		// Multiple branches on stdout form a YAML document stream.
		if _, err := os.Stdout.WriteString("---\n"); err != nil {
			return err
		}

		if err := emit(out.Data(), ""); err != nil {
			return err
		}
	}

	return nil
}
