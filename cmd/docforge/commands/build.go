package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/linkverify"
	"git.home.luguber.info/inful/docforge/internal/render"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Override the configured output directory"`
	Debug  bool   `help:"Log the full document state after the pipeline runs"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.OutputDir = b.Output
	}
	if b.Debug {
		cfg.Debug = true
	}
	return RunBuild(context.Background(), cfg, g)
}

// RunBuild executes the full pipeline and renders output. Recoverable
// findings never stop rendering; they fail the overall outcome afterwards.
func RunBuild(ctx context.Context, cfg *config.Config, g *Global) error {
	slog.Info("Starting documentation build", "source", cfg.SourceDir, "output", cfg.OutputDir)

	doc, report, err := runPipeline(ctx, cfg, g)
	if err != nil {
		return err
	}

	writer := &render.HTMLWriter{OutputDir: cfg.OutputDir, Title: cfg.Site.Title}
	if err := writer.Render(doc); err != nil {
		return err
	}

	problems, err := linkverify.Verify(cfg.OutputDir)
	if err != nil {
		return err
	}
	for _, p := range problems {
		slog.Warn("Broken link in rendered output", "file", p.File, "href", p.Href, "reason", p.Reason)
	}

	if cfg.Debug {
		slog.Debug("Document state",
			"build_id", report.BuildID,
			"files", len(doc.Files),
			"anchors", doc.Anchors.Len(),
			"unresolved", doc.Unresolved,
			"errors_by_kind", doc.ErrorsByKind())
	}

	slog.Info("Build finished", "build_id", report.BuildID, "duration", report.Duration, "errors", len(doc.Errors))
	return reportFindings(doc)
}
