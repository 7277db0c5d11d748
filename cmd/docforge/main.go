package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docforge/cmd/docforge/commands"
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/metrics"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("docforge"),
		kong.Description("Build cross-linked documentation from markdown sources and symbol docstrings."),
		kong.UsageOnError(),
	)

	// Environment files load before anything reads CI metadata or tokens.
	config.LoadEnv()

	global := &commands.Global{Metrics: metrics.NewRecorder(prom.NewRegistry())}
	if err := ctx.Run(global, &cli); err != nil {
		slog.Error("Command failed", "command", ctx.Command(), "error", err)
		os.Exit(1)
	}
}
