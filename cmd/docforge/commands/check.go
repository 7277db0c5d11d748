package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docforge/internal/config"
)

// CheckCmd runs the full pipeline without writing any output, failing on the
// first collected finding. Intended for CI gates on documentation changes.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	doc, report, err := runPipeline(context.Background(), cfg, g)
	if err != nil {
		return err
	}

	slog.Info("Check finished", "build_id", report.BuildID, "files", len(doc.Files), "errors", len(doc.Errors))
	return reportFindings(doc)
}
