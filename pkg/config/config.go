// Package config loads nodeio settings from a TOML file.
//
// Every field has a default, so a missing file is not an error. Command
// line flags override what the file sets.
//
//	[export]
//	path_mode = "relative"
//	indent = true
//
//	[import]
//	keep_existing = false
//	active_kind = "shader"
//
//	[catalog]
//	files = ["~/nodes/extra.toml"]
//
//	[serve]
//	addr = ":8080"
//	redis_url = "redis://localhost:6379/0"
package config

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/nodeio/pkg/assets"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config holds every setting.
type Config struct {
	Export  Export  `toml:"export"`
	Import  Import  `toml:"import"`
	Catalog Catalog `toml:"catalog"`
	Serve   Serve   `toml:"serve"`
}

// Export configures document writing.
type Export struct {
	PathMode string `toml:"path_mode"`
	Indent   bool   `toml:"indent"`
}

// Import configures document restoring.
type Import struct {
	KeepExisting bool   `toml:"keep_existing"`
	ActiveKind   string `toml:"active_kind"`
}

// Catalog lists node type catalogs merged over the builtin one.
type Catalog struct {
	Files []string `toml:"files"`
}

// Serve configures the HTTP API.
type Serve struct {
	Addr string `toml:"addr"`
	// RedisURL selects a shared render cache. Empty uses the file cache.
	RedisURL string `toml:"redis_url"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Export: Export{PathMode: string(assets.Absolute), Indent: true},
		Serve:  Serve{Addr: ":8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/nodeio/config.toml, falling back to
// ~/.config/nodeio/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "nodeio", FileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "get home dir")
	}
	return filepath.Join(home, ".config", "nodeio", FileName), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings.
func (c Config) Validate() error {
	if _, err := assets.ParsePathMode(c.Export.PathMode); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "export.path_mode")
	}
	switch c.Import.ActiveKind {
	case "", "shader", "geometry", "compositing", "texture":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "import.active_kind: unknown graph kind %q", c.Import.ActiveKind)
	}
	if u := c.Serve.RedisURL; u != "" && !hasAnyPrefix(u, "redis://", "rediss://", "unix://") {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.redis_url: unsupported scheme in %q", u)
	}
	for _, f := range c.Catalog.Files {
		if err := errors.ValidatePath(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "catalog.files")
		}
	}
	return nil
}

// LoadCatalog returns the builtin catalog merged with every configured
// catalog file, in order. A leading "~/" expands to the home directory.
func (c Config) LoadCatalog() (*nodegraph.Catalog, error) {
	cat := nodegraph.DefaultCatalog()
	for _, f := range c.Catalog.Files {
		extra, err := nodegraph.LoadCatalogFile(expandHome(f))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidCatalog, err, "catalog.files")
		}
		cat.Merge(extra)
	}
	return cat, nil
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
