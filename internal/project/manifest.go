// Package project loads the distpack.toml manifest and turns it into the
// configuration of the build stages.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"distpack/internal/alias"
	"distpack/internal/minify"
	"distpack/internal/rewrite"
)

var (
	// ErrNoManifest indicates that no distpack.toml was found.
	ErrNoManifest = errors.New("no " + ManifestName + " found")
	// ErrInvalidManifest wraps every validation failure.
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Manifest is a loaded distpack.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest layout.
type Config struct {
	// UseDefaultAliases keeps the built-in alias table in front of the
	// manifest entries; default true.
	UseDefaultAliases *bool          `toml:"use_default_aliases"`
	Package           PackageConfig  `toml:"package"`
	Targets           []TargetConfig `toml:"target"`
	Env               EnvConfig      `toml:"env"`
	Aliases           []AliasConfig  `toml:"alias"`
	Inline            InlineConfig   `toml:"inline"`
	Minify            MinifyConfig   `toml:"minify"`
	Cache             CacheConfig    `toml:"cache"`
}

type PackageConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// TargetConfig is one output artifact.
type TargetConfig struct {
	Name      string `toml:"name"`
	Entry     string `toml:"entry"`
	Outfile   string `toml:"outfile"`
	Sourcemap bool   `toml:"sourcemap,omitempty"`
	// Compress defaults to true.
	Compress *bool  `toml:"compress,omitempty"`
	Banner   string `toml:"banner,omitempty"`
}

// EnvConfig maps source tokens to build-time constants.
type EnvConfig struct {
	Tokens map[string]string `toml:"tokens"`
}

type AliasConfig struct {
	Find        string `toml:"find"`
	Kind        string `toml:"kind"`
	Replacement string `toml:"replacement"`
}

type InlineConfig struct {
	Template     string `toml:"template"`
	PlatformsDir string `toml:"platforms_dir,omitempty"`
	PlatformExt  string `toml:"platform_ext,omitempty"`
}

type MinifyConfig struct {
	// WarnThresholdMS unset means minify.DefaultWarnThreshold; 0 warns on
	// every minification that takes a millisecond or more.
	WarnThresholdMS *int   `toml:"warn_threshold_ms"`
	Target          string `toml:"target"`
	Safari10        *bool  `toml:"safari10"`
	Comments        bool   `toml:"comments"`
}

type CacheConfig struct {
	Enabled *bool  `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Load finds and decodes the manifest above startDir.
func Load(startDir string) (*Manifest, error) {
	path, err := FindManifest(startDir)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile decodes and validates the manifest at path.
func LoadFile(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: %w: unknown key %q", path, ErrInvalidManifest, undecoded[0].String())
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w: missing [package]", path, ErrInvalidManifest)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w: missing [package].name", path, ErrInvalidManifest)
	}
	if !meta.IsDefined("target") || len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("%s: %w: at least one [[target]] is required", path, ErrInvalidManifest)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrInvalidManifest, err)
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

func (c *Config) validate() error {
	seen := make(map[string]int, len(c.Targets))
	for i := range c.Targets {
		t := &c.Targets[i]
		t.Entry = strings.TrimSpace(t.Entry)
		t.Outfile = strings.TrimSpace(t.Outfile)
		if t.Entry == "" {
			return fmt.Errorf("[[target]] #%d: missing entry", i+1)
		}
		if t.Outfile == "" {
			return fmt.Errorf("[[target]] #%d: missing outfile", i+1)
		}
		if filepath.IsAbs(t.Outfile) {
			return fmt.Errorf("[[target]] #%d: outfile %q must be relative", i+1, t.Outfile)
		}
		if t.Name == "" {
			t.Name = strings.TrimSuffix(filepath.Base(t.Outfile), filepath.Ext(t.Outfile))
		}
		if prev, dup := seen[t.Name]; dup {
			return fmt.Errorf("[[target]] #%d: name %q already used by #%d", i+1, t.Name, prev)
		}
		seen[t.Name] = i + 1
	}
	if _, err := c.AliasTable(); err != nil {
		return err
	}
	if _, err := minify.ParseTarget(c.Minify.Target); err != nil {
		return fmt.Errorf("[minify]: %w", err)
	}
	if ms := c.Minify.WarnThresholdMS; ms != nil && *ms < 0 {
		return fmt.Errorf("[minify]: warn_threshold_ms must not be negative")
	}
	return nil
}

// Target returns the named target.
func (m *Manifest) Target(name string) (TargetConfig, bool) {
	for _, t := range m.Config.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetConfig{}, false
}

// TargetNames lists targets in manifest order.
func (m *Manifest) TargetNames() []string {
	out := make([]string, len(m.Config.Targets))
	for i, t := range m.Config.Targets {
		out[i] = t.Name
	}
	return out
}

// AliasTable builds the alias table: the defaults (unless disabled)
// followed by the manifest entries.
func (c Config) AliasTable() (*alias.Table, error) {
	var entries []alias.Entry
	if c.UseDefaultAliases == nil || *c.UseDefaultAliases {
		entries = append(entries, alias.Default(string(filepath.Separator))...)
	}
	for i, a := range c.Aliases {
		kind, err := alias.ParseKind(a.Kind)
		if err != nil {
			return nil, fmt.Errorf("[[alias]] #%d: %w", i+1, err)
		}
		if a.Find == "" {
			return nil, fmt.Errorf("[[alias]] #%d: missing find", i+1)
		}
		entries = append(entries, alias.Entry{Find: a.Find, Kind: kind, Replacement: a.Replacement})
	}
	table, err := alias.NewTable(entries...)
	if err != nil {
		return nil, fmt.Errorf("[[alias]]: %w", err)
	}
	return table, nil
}

// RewriteOptions configures the built-in rules. Relative directories are
// resolved against root.
func (c Config) RewriteOptions(root string) rewrite.Options {
	opts := rewrite.Options{
		Template:    c.Inline.Template,
		PlatformExt: c.Inline.PlatformExt,
	}
	if dir := c.Inline.PlatformsDir; dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, filepath.FromSlash(dir))
		}
		opts.PlatformsDir = dir
	}
	return opts
}

// EnvValues returns the token table. version, when set, overrides the
// process.env.VERSION token; otherwise [package].version fills it in.
func (c Config) EnvValues(version string) map[string]string {
	out := make(map[string]string, len(c.Env.Tokens)+1)
	for k, v := range c.Env.Tokens {
		out[k] = v
	}
	const versionToken = "process.env.VERSION"
	switch {
	case version != "":
		out[versionToken] = version
	case out[versionToken] == "" && c.Package.Version != "":
		out[versionToken] = c.Package.Version
	}
	return out
}

// MinifyConfig returns the minifier configuration for t.
func (c Config) MinifyConfig(t TargetConfig) minify.Config {
	compress := t.Compress == nil || *t.Compress
	cfg := minify.DefaultConfig(compress)
	if c.Minify.Target != "" {
		cfg.Target = c.Minify.Target
	}
	if c.Minify.Safari10 != nil {
		cfg.Safari10 = *c.Minify.Safari10
	}
	cfg.Comments = c.Minify.Comments
	cfg.SourceMap = t.Sourcemap
	return cfg
}

// WarnThreshold is the slow-minification threshold.
func (c Config) WarnThreshold() time.Duration {
	if c.Minify.WarnThresholdMS == nil {
		return minify.DefaultWarnThreshold
	}
	return time.Duration(*c.Minify.WarnThresholdMS) * time.Millisecond
}

// CacheEnabled reports whether the transform cache is on; default true.
func (c Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// CacheDir returns the configured cache directory resolved against root,
// or "" for the user cache directory.
func (c Config) CacheDir(root string) string {
	dir := c.Cache.Dir
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, filepath.FromSlash(dir))
}

// WriteDefault creates a starter manifest in dir. It refuses to overwrite
// an existing one.
func WriteDefault(dir, name, entry string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if entry == "" {
		entry = "src/cli.js"
	}
	cfg := starterConfig{
		Package: PackageConfig{Name: name, Version: "0.0.0"},
		Targets: []TargetConfig{{
			Name:    name,
			Entry:   entry,
			Outfile: "dist/" + name + ".js",
		}},
		Inline: InlineConfig{Template: "treemap"},
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("%s: failed to encode TOML: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

type starterConfig struct {
	Package PackageConfig  `toml:"package"`
	Targets []TargetConfig `toml:"target"`
	Inline  InlineConfig   `toml:"inline"`
}
