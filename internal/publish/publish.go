package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

const commitAuthor = "docforge"

// Publisher copies rendered output into version-labeled directories inside a
// fresh clone of the hosting branch and pushes a single commit. Any failing
// git operation aborts the whole attempt; there is no partial push.
type Publisher struct {
	RepoURL string
	Branch  string
}

// Publish deploys outputDir under each of the given version directories
// ("latest", "stable", a tag name). The work happens in a temporary clone
// that is removed afterwards.
func (p *Publisher) Publish(ctx context.Context, outputDir string, versions []string, token string) error {
	if p.RepoURL == "" {
		return errors.New(errors.CategoryConfig, "publish.repo is not configured").Fatal().Build()
	}

	workDir, err := os.MkdirTemp("", "docforge-publish-*")
	if err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, "create publish workspace").Fatal().Build()
	}
	defer os.RemoveAll(workDir)

	auth := &githttp.BasicAuth{Username: "git", Password: token}
	repo, err := p.cloneOrInit(ctx, workDir, auth)
	if err != nil {
		return err
	}

	for _, version := range versions {
		dst := filepath.Join(workDir, version)
		if err := os.RemoveAll(dst); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "clear stale version directory").
				WithContext("version", version).
				Fatal().
				Build()
		}
		if err := copyTree(outputDir, dst); err != nil {
			return err
		}
		slog.Info("Staged output", "version", version)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return errors.Wrap(err, errors.CategoryGit, "open worktree").Fatal().Build()
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return errors.Wrap(err, errors.CategoryGit, "stage output").Fatal().Build()
	}

	status, err := worktree.Status()
	if err != nil {
		return errors.Wrap(err, errors.CategoryGit, "read worktree status").Fatal().Build()
	}
	if status.IsClean() {
		slog.Info("Output unchanged, nothing to publish")
		return nil
	}

	msg := fmt.Sprintf("docs: update %v", versions)
	_, err = worktree.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: commitAuthor, Email: commitAuthor + "@invalid", When: time.Now()},
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryGit, "commit output").Fatal().Build()
	}

	refspec := gitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", p.Branch, p.Branch))
	err = repo.PushContext(ctx, &git.PushOptions{Auth: auth, RefSpecs: []gitcfg.RefSpec{refspec}})
	if err != nil {
		return errors.Wrap(err, errors.CategoryGit, "push hosting branch").
			WithContext("branch", p.Branch).
			Fatal().
			Build()
	}

	slog.Info("Published documentation", "repo", p.RepoURL, "branch", p.Branch, "versions", versions)
	return nil
}

// cloneOrInit clones the hosting branch, falling back to an empty repository
// with the branch checked out when the branch does not exist yet.
func (p *Publisher) cloneOrInit(ctx context.Context, dir string, auth *githttp.BasicAuth) (*git.Repository, error) {
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           p.RepoURL,
		ReferenceName: plumbing.NewBranchReferenceName(p.Branch),
		SingleBranch:  true,
		Depth:         1,
		Auth:          auth,
	})
	if err == nil {
		return repo, nil
	}

	slog.Debug("Clone of hosting branch failed, initializing fresh branch", "branch", p.Branch, "error", err)
	repo, initErr := git.PlainInit(dir, false)
	if initErr != nil {
		return nil, errors.Wrap(initErr, errors.CategoryGit, "initialize publish repository").Fatal().Build()
	}
	if _, remoteErr := repo.CreateRemote(&gitcfg.RemoteConfig{Name: "origin", URLs: []string{p.RepoURL}}); remoteErr != nil {
		return nil, errors.Wrap(remoteErr, errors.CategoryGit, "configure publish remote").Fatal().Build()
	}

	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(p.Branch))
	if refErr := repo.Storer.SetReference(head); refErr != nil {
		return nil, errors.Wrap(refErr, errors.CategoryGit, "set publish branch").Fatal().Build()
	}
	return repo, nil
}

func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "walk output tree").Fatal().Build()
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return errors.Wrap(readErr, errors.CategoryFileSystem, "read output file").Fatal().Build()
		}
		return os.WriteFile(target, data, info.Mode().Perm())
	})
}
