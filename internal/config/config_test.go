package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "source_dir: docs\noutput_dir: out\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/bin/sh"}, cfg.Doctest.Command)
	assert.Equal(t, 30*time.Second, cfg.Doctest.Timeout())
	assert.Equal(t, "gh-pages", cfg.Publish.Branch)
}

func TestLoad_SymbolModulePatternsDefault(t *testing.T) {
	path := writeConfig(t, `
source_dir: docs
output_dir: out
symbol_modules:
  - name: mypkg
    dir: .
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.SymbolModules, 1)
	assert.Equal(t, []string{"./..."}, cfg.SymbolModules[0].Patterns)
}

func TestLoad_MissingFileIsFatalConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryConfig, ce.Category())
	assert.True(t, ce.IsFatal())
}

func TestValidate_SourceEqualsOutput(t *testing.T) {
	path := writeConfig(t, "source_dir: same\noutput_dir: same\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestValidate_UnnamedSymbolModule(t *testing.T) {
	path := writeConfig(t, "symbol_modules:\n  - dir: .\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestRepoSlug(t *testing.T) {
	tests := []struct {
		repo string
		want string
	}{
		{"https://github.com/inful/docforge.git", "inful/docforge"},
		{"https://github.com/inful/docforge", "inful/docforge"},
		{"https://git.example.org/group/project/", "group/project"},
		{"", ""},
		{"justaname", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PublishConfig{Repo: tt.repo}.RepoSlug(), "RepoSlug(%q)", tt.repo)
	}
}

func TestWriteStarter_RefusesOverwriteWithoutForce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docforge.yaml")
	require.NoError(t, WriteStarter(path, false))

	err := WriteStarter(path, false)
	require.Error(t, err)

	require.NoError(t, WriteStarter(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "docs", cfg.SourceDir)
	assert.True(t, cfg.RunDoctests)
}
