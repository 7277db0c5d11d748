// Package publish pushes rendered output to a hosting branch. The decision
// to publish is a pure function of environment-derived CI metadata captured
// once at process start, so the gate is testable without touching globals.
package publish

import (
	"fmt"
	"os"
	"strings"
)

// Deployment is the CI metadata snapshot the publish gate evaluates.
type Deployment struct {
	CI            bool   // running under a CI system
	Repo          string // repository the CI run belongs to ("owner/name")
	Branch        string // branch the run was triggered from
	Tag           string // tag name when the run was triggered by a tag, else ""
	IsPullRequest bool
	Token         string // deploy credential; empty means absent
}

// DeploymentFromEnv captures the deployment snapshot from the process
// environment. Called exactly once, at startup; everything downstream takes
// the struct, never the environment.
func DeploymentFromEnv() Deployment {
	ref := os.Getenv("GITHUB_REF")
	tag := ""
	if strings.HasPrefix(ref, "refs/tags/") {
		tag = strings.TrimPrefix(ref, "refs/tags/")
	}
	return Deployment{
		CI:            os.Getenv("CI") == "true",
		Repo:          os.Getenv("GITHUB_REPOSITORY"),
		Branch:        os.Getenv("GITHUB_REF_NAME"),
		Tag:           tag,
		IsPullRequest: strings.HasPrefix(os.Getenv("GITHUB_EVENT_NAME"), "pull_request"),
		Token:         os.Getenv("DOCFORGE_DEPLOY_TOKEN"),
	}
}

// ShouldDeploy decides whether this run publishes. A false decision carries
// the human-readable reason and is a silent, successful no-op for callers.
// Deploys happen from pushes to the default branch (publishing "latest") or
// from tag builds (publishing "stable" and the tag directory), never from
// pull requests, never without a credential.
func (d Deployment) ShouldDeploy(targetRepo, defaultBranch string) (bool, string) {
	if !d.CI {
		return false, "not running under CI"
	}
	if targetRepo != "" && !strings.EqualFold(d.Repo, targetRepo) {
		return false, fmt.Sprintf("repository %q is not the publish target %q", d.Repo, targetRepo)
	}
	if d.IsPullRequest {
		return false, "pull request builds never publish"
	}
	if d.Tag == "" && d.Branch != defaultBranch {
		return false, fmt.Sprintf("branch %q is not %q and no tag is set", d.Branch, defaultBranch)
	}
	if d.Token == "" {
		return false, "no deploy credential present"
	}
	return true, ""
}

// Versions returns the output directory names this deployment updates.
func (d Deployment) Versions() []string {
	if d.Tag != "" {
		return []string{"stable", d.Tag}
	}
	return []string{"latest"}
}
