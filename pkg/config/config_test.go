package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodeio/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), FileName, `
[export]
path_mode = "relative"

[import]
keep_existing = true
active_kind = "shader"

[serve]
redis_url = "redis://cache:6379/1"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := Default()
	want.Export.PathMode = "relative"
	want.Import = Import{KeepExisting: true, ActiveKind: "shader"}
	want.Serve.RedisURL = "redis://cache:6379/1"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[export\n"},
		{"unknown key", "[export]\nformat = \"json\"\n"},
		{"bad path mode", "[export]\npath_mode = \"sideways\"\n"},
		{"bad kind", "[import]\nactive_kind = \"audio\"\n"},
		{"bad redis url", "[serve]\nredis_url = \"http://cache:6379\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), FileName, tt.content)
			_, err := Load(path)
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/xdg", "nodeio", FileName); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	extra := writeFile(t, dir, "extra.toml", `
[[node]]
id = "CustomNodeNoise"
`)

	cfg := Default()
	cfg.Catalog.Files = []string{extra}
	cat, err := cfg.LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog() error: %v", err)
	}
	if _, ok := cat.NodeType("CustomNodeNoise"); !ok {
		t.Error("configured node type missing")
	}
	if _, ok := cat.NodeType("ShaderNodeMath"); !ok {
		t.Error("builtin node type missing")
	}

	cfg.Catalog.Files = []string{filepath.Join(dir, "absent.toml")}
	if _, err := cfg.LoadCatalog(); !errors.Is(err, errors.ErrCodeInvalidCatalog) {
		t.Errorf("LoadCatalog() error = %v, want INVALID_CATALOG", err)
	}
}
