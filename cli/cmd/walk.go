package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/choixe-lang/choixe/config"
	"github.com/choixe-lang/choixe/lang"
	"github.com/choixe-lang/choixe/log"
	"github.com/choixe-lang/choixe/markup"
)

// Walk flattens a configuration into deep key-value pairs.
type Walk struct {
	Source
}

// Run executes the walk command.
func (w *Walk) Run(ctx context.Context, logger log.Logger) error {
	cfg, err := config.FromFile(w.Path)
	if err != nil {
		return err
	}

	entries, err := cfg.Walk()
	if err != nil {
		return lang.WrapError(err).With(
			slog.String("command", "walk"),
			slog.String("path", w.Path),
		)
	}

	for _, entry := range entries {
		text, err := markup.Encode(entry.Value, markup.FormatYAML)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(os.Stdout, "%s: %s\n",
			joinPath(entry.Path), strings.TrimRight(string(text), "\n"))
		if err != nil {
			return err
		}
	}

	return nil
}
