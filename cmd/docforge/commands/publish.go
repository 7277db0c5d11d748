package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/publish"
)

// PublishCmd runs the environment-gated publish workflow: build, then push
// rendered output into version-labeled directories on the hosting branch.
// A gate miss is a silent, successful no-op so the same CI job can run on
// every push.
type PublishCmd struct {
	DefaultBranch string `help:"Branch whose pushes publish 'latest'" default:"main"`
	SkipBuild     bool   `help:"Publish the existing output directory without rebuilding"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	deployment := publish.DeploymentFromEnv()
	ok, reason := deployment.ShouldDeploy(deployTarget(cfg), p.DefaultBranch)
	if !ok {
		slog.Info("Publish gate not satisfied, skipping", "reason", reason)
		return nil
	}

	ctx := context.Background()
	if !p.SkipBuild {
		if err := RunBuild(ctx, cfg, g); err != nil {
			return err
		}
	}

	publisher := &publish.Publisher{RepoURL: cfg.Publish.Repo, Branch: cfg.Publish.Branch}
	return publisher.Publish(ctx, cfg.OutputDir, deployment.Versions(), deployment.Token)
}

// deployTarget extracts the "owner/name" the gate matches against from the
// configured repo URL; empty means any repository may publish.
func deployTarget(cfg *config.Config) string {
	return cfg.Publish.RepoSlug()
}
