// Package config loads and validates the docforge build configuration.
package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// Config is the configuration snapshot owned by one build invocation.
type Config struct {
	SourceDir   string `yaml:"source_dir"`
	OutputDir   string `yaml:"output_dir"`
	Clean       bool   `yaml:"clean"`
	RunDoctests bool   `yaml:"run_doctests"`
	Debug       bool   `yaml:"debug,omitempty"`

	Doctest       DoctestConfig  `yaml:"doctest,omitempty"`
	SymbolModules []SymbolModule `yaml:"symbol_modules,omitempty"`
	Site          SiteConfig     `yaml:"site,omitempty"`
	Publish       PublishConfig  `yaml:"publish,omitempty"`
}

// DoctestConfig controls how executable example blocks are run.
type DoctestConfig struct {
	// Command is the interpreter argv; code is piped on stdin.
	Command []string `yaml:"command,omitempty"`
	// TimeoutSeconds bounds each block's execution. A timed-out block is a
	// doctest failure, not a hung build.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
	// NormalizeWhitespace compares expected and actual output after trimming
	// trailing whitespace per line instead of byte-for-byte.
	NormalizeWhitespace bool `yaml:"normalize_whitespace,omitempty"`
}

// Timeout returns the per-block execution deadline.
func (d DoctestConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// SymbolModule names a module whose docstrings are available to @docs
// directives.
type SymbolModule struct {
	Name string `yaml:"name"`
	// Dir is the on-disk root of the module's Go source; symbol docs are
	// extracted from doc comments.
	Dir string `yaml:"dir,omitempty"`
	// Patterns are go/packages load patterns, defaulting to "./...".
	Patterns []string `yaml:"patterns,omitempty"`
}

// SiteConfig carries presentation metadata for the writer.
type SiteConfig struct {
	Title   string `yaml:"title,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// PublishConfig identifies where rendered output is pushed by the publish
// workflow.
type PublishConfig struct {
	Repo   string `yaml:"repo,omitempty"`
	Branch string `yaml:"branch,omitempty"`
}

// RepoSlug derives the "owner/name" form of the configured repo URL for
// matching against CI metadata. Unrecognizable URLs yield "".
func (p PublishConfig) RepoSlug() string {
	s := strings.TrimSuffix(p.Repo, ".git")
	s = strings.TrimSuffix(s, "/")
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return ""
	}
	owner, name := parts[len(parts)-2], parts[len(parts)-1]
	if owner == "" || name == "" || strings.Contains(owner, ":") {
		return ""
	}
	return owner + "/" + name
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		SourceDir:   "docs",
		OutputDir:   "site",
		Clean:       true,
		RunDoctests: true,
		Doctest: DoctestConfig{
			Command:        []string{"/bin/sh"},
			TimeoutSeconds: 30,
		},
		Publish: PublishConfig{Branch: "gh-pages"},
	}
}

// Load reads a YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, "read config file").
			WithContext("path", path).
			Fatal().
			Build()
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, "parse config file").
			WithContext("path", path).
			Fatal().
			Build()
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults restores defaults that yaml.Unmarshal may have zeroed when a
// section was present but partially specified.
func applyDefaults(cfg *Config) {
	if len(cfg.Doctest.Command) == 0 {
		cfg.Doctest.Command = []string{"/bin/sh"}
	}
	if cfg.Doctest.TimeoutSeconds <= 0 {
		cfg.Doctest.TimeoutSeconds = 30
	}
	for i := range cfg.SymbolModules {
		if len(cfg.SymbolModules[i].Patterns) == 0 {
			cfg.SymbolModules[i].Patterns = []string{"./..."}
		}
	}
	if cfg.Publish.Branch == "" {
		cfg.Publish.Branch = "gh-pages"
	}
}

// Validate checks invariants that later stages rely on.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return errors.New(errors.CategoryConfig, "source_dir must not be empty").Fatal().Build()
	}
	if c.OutputDir == "" {
		return errors.New(errors.CategoryConfig, "output_dir must not be empty").Fatal().Build()
	}
	if c.SourceDir == c.OutputDir {
		return errors.New(errors.CategoryConfig, "source_dir and output_dir must differ").
			WithContext("dir", c.SourceDir).
			Fatal().
			Build()
	}
	for _, m := range c.SymbolModules {
		if m.Name == "" {
			return errors.New(errors.CategoryConfig, "symbol module without a name").Fatal().Build()
		}
	}
	return nil
}

// WriteStarter writes a commented starter configuration, refusing to
// overwrite an existing file unless force is set.
func WriteStarter(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.CategoryConfig, "config file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	starter := `# docforge configuration
source_dir: docs
output_dir: site
clean: true
run_doctests: true

doctest:
  command: ["/bin/sh"]
  timeout_seconds: 30

# symbol_modules:
#   - name: mypkg
#     dir: .
#     patterns: ["./..."]

site:
  title: Documentation

# publish:
#   repo: https://github.com/org/repo
#   branch: gh-pages
`
	if err := os.WriteFile(path, []byte(starter), 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, "write starter config").
			WithContext("path", path).
			Build()
	}
	return nil
}
