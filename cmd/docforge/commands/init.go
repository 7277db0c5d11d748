package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/docforge/internal/config"
)

// InitCmd writes a starter configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if err := config.WriteStarter(root.Config, i.Force); err != nil {
		return err
	}
	slog.Info("Wrote starter configuration", "path", root.Config)
	return nil
}
