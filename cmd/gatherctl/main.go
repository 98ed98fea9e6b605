package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "gatherctl",
		Usage: "Operate a Gather backend: check config, manage snapshots, preview emails.",
		Commands: []*cli.Command{
			configCommand(),
			snapshotCommand(),
			calendarCommand(),
			mailCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("gatherctl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
