package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func deployable() Deployment {
	return Deployment{
		CI:     true,
		Repo:   "inful/docforge",
		Branch: "main",
		Token:  "secret",
	}
}

func TestShouldDeploy_BranchPush(t *testing.T) {
	ok, reason := deployable().ShouldDeploy("inful/docforge", "main")
	assert.True(t, ok, reason)
}

func TestShouldDeploy_TagBuildFromAnyBranch(t *testing.T) {
	d := deployable()
	d.Branch = ""
	d.Tag = "v1.2.0"
	ok, reason := d.ShouldDeploy("inful/docforge", "main")
	assert.True(t, ok, reason)
}

func TestShouldDeploy_GateMisses(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Deployment)
		reason string
	}{
		{"outside CI", func(d *Deployment) { d.CI = false }, "not running under CI"},
		{"wrong repo", func(d *Deployment) { d.Repo = "fork/docforge" }, "not the publish target"},
		{"pull request", func(d *Deployment) { d.IsPullRequest = true }, "pull request"},
		{"feature branch", func(d *Deployment) { d.Branch = "feature/x" }, "no tag is set"},
		{"missing token", func(d *Deployment) { d.Token = "" }, "no deploy credential"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := deployable()
			tt.mutate(&d)
			ok, reason := d.ShouldDeploy("inful/docforge", "main")
			assert.False(t, ok)
			assert.Contains(t, reason, tt.reason)
		})
	}
}

func TestShouldDeploy_EmptyTargetRepoSkipsRepoCheck(t *testing.T) {
	d := deployable()
	d.Repo = "anything/goes"
	ok, _ := d.ShouldDeploy("", "main")
	assert.True(t, ok)
}

func TestVersions(t *testing.T) {
	assert.Equal(t, []string{"latest"}, deployable().Versions())

	d := deployable()
	d.Tag = "v2.0.0"
	assert.Equal(t, []string{"stable", "v2.0.0"}, d.Versions())
}
