package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docforge/internal/config"
)

func fixtureConfig(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	src := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	cfg := config.Default()
	cfg.SourceDir = src
	cfg.OutputDir = filepath.Join(t.TempDir(), "site")
	return cfg
}

func TestRunBuild_CleanTreeSucceeds(t *testing.T) {
	cfg := fixtureConfig(t, map[string]string{
		"index.md": "# Intro\n\nSee [Intro](@ref).\n",
	})

	require.NoError(t, RunBuild(context.Background(), cfg, &Global{}))

	html, err := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `id="intro"`)
	assert.Contains(t, string(html), `href="#intro"`)
}

func TestRunBuild_FindingsFailButStillRender(t *testing.T) {
	cfg := fixtureConfig(t, map[string]string{
		"index.md": "See [ghost](<@ref ghost>).\n",
	})

	err := RunBuild(context.Background(), cfg, &Global{})
	require.Error(t, err, "non-empty error collection fails the build")
	assert.Contains(t, err.Error(), "1 error(s)")

	html, readErr := os.ReadFile(filepath.Join(cfg.OutputDir, "index.html"))
	require.NoError(t, readErr, "output is produced even with findings")
	assert.Contains(t, string(html), "docforge-error")
}

func TestRunBuild_DoctestFailureFailsOutcome(t *testing.T) {
	cfg := fixtureConfig(t, map[string]string{
		"examples.md": "```@doctest\necho 5\n----\n4\n```\n",
	})

	err := RunBuild(context.Background(), cfg, &Global{})
	require.Error(t, err)
}

func TestRunBuild_DoctestsDisabled(t *testing.T) {
	cfg := fixtureConfig(t, map[string]string{
		"examples.md": "```@doctest\necho 5\n----\n4\n```\n",
	})
	cfg.RunDoctests = false

	require.NoError(t, RunBuild(context.Background(), cfg, &Global{}))
}
