package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/choixe-lang/choixe/cli"
	"github.com/choixe-lang/choixe/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		log.Make(os.Stderr).Error(
			"run failed",
			slog.Any("error", err),
		) // slog automatically uses LogValue()
		os.Exit(1)
	}
}
