package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/document"
	"git.home.luguber.info/inful/docforge/internal/metrics"
	"git.home.luguber.info/inful/docforge/internal/symbols"
)

// Global carries state shared by all subcommands.
type Global struct {
	Metrics *metrics.Recorder
}

// CLI is the root command definition.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docforge.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build   BuildCmd   `cmd:"" help:"Build the documentation site"`
	Check   CheckCmd   `cmd:"" help:"Run the pipeline without writing output (CI lint mode)"`
	Preview PreviewCmd `cmd:"" help:"Serve the site locally and rebuild on source changes"`
	Publish PublishCmd `cmd:"" help:"Push rendered output to the hosting branch (CI-gated)"`
	Init    InitCmd    `cmd:"" help:"Write a starter configuration file"`
}

// AfterApply sets up logging once, after flag parsing.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	if env := os.Getenv("DOCFORGE_LOG_LEVEL"); env != "" {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(env)); err == nil {
			level = parsed
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// buildProvider assembles the symbol provider chain from the configured
// modules, in order, so earlier modules shadow later ones.
func buildProvider(cfg *config.Config) (symbols.Provider, error) {
	var multi symbols.Multi
	for _, mod := range cfg.SymbolModules {
		p, err := symbols.LoadGoSource(mod.Name, mod.Dir, mod.Patterns)
		if err != nil {
			return nil, err
		}
		multi = append(multi, p)
	}
	return multi, nil
}

// runPipeline parses the source tree and applies the standard stages.
func runPipeline(ctx context.Context, cfg *config.Config, g *Global) (*document.Document, *builder.Report, error) {
	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, err
	}

	doc, err := document.Parse(cfg)
	if err != nil {
		return nil, nil, err
	}

	report, err := builder.RunStages(ctx, doc, builder.DefaultStages(cfg, provider))
	if err != nil {
		return doc, report, err
	}

	if g != nil && g.Metrics != nil {
		g.Metrics.ObserveBuild(report.Duration, !doc.HasErrors())
		for stage, d := range report.StageDurations {
			g.Metrics.ObserveStage(stage, d)
		}
		for kind, n := range report.ErrorsByKind {
			for i := 0; i < n; i++ {
				g.Metrics.CountFinding(string(kind))
			}
		}
	}
	return doc, report, nil
}

// reportFindings logs every collected finding and returns a build-failure
// error when any exist. Output has already been produced by then; the
// non-zero outcome is the caller's signal, not a reason to withhold files.
func reportFindings(doc *document.Document) error {
	for _, rec := range doc.Errors {
		slog.Warn("Build finding", "kind", rec.Kind, "file", rec.File, "line", rec.Line, "message", rec.Message)
	}
	if doc.HasErrors() {
		return fmt.Errorf("build completed with %d error(s)", len(doc.Errors))
	}
	return nil
}
