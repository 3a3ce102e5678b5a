package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectorDeduplicates(t *testing.T) {
	c := NewCollector()
	c.Add("image", "wood.png", "")
	c.Add("image", "rock.png", "/tex/rock.png")
	c.Add("image", "wood.png", "/tex/wood.png")
	c.Add("text", "wood.png", "/scripts/wood.png")
	c.Add("image", "rock.png", "/elsewhere/rock.png")

	want := []Entry{
		{Kind: "image", Name: "wood.png", Path: "/tex/wood.png"},
		{Kind: "image", Name: "rock.png", Path: "/tex/rock.png"},
		{Kind: "text", Name: "wood.png", Path: "/scripts/wood.png"},
	}
	if diff := cmp.Diff(want, c.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePathMode(t *testing.T) {
	tests := []struct {
		in      string
		want    PathMode
		wantErr bool
	}{
		{"", Absolute, false},
		{"absolute", Absolute, false},
		{"Relative", Relative, false},
		{"sideways", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePathMode(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePathMode(%q) = %q, %v, want %q (err %v)", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestFinalize(t *testing.T) {
	entries := []Entry{
		{Kind: "image", Name: "wood", Path: "/tex/wood.png"},
		{Kind: "image", Name: "wood alt", Path: "/other/wood.png"},
		{Kind: "image", Name: "rock", Path: "rock.png"},
		{Kind: "image", Name: "packed.png"},
	}

	t.Run("absolute", func(t *testing.T) {
		deps, sources, warnings := Finalize(entries, Absolute, "/base")
		want := []document.Dependency{
			{Kind: "image", Name: "wood", Path: "/tex/wood.png"},
			{Kind: "image", Name: "wood alt", Path: "/other/wood.png"},
			{Kind: "image", Name: "rock", Path: "/base/rock.png"},
			{Kind: "image", Name: "packed.png"},
		}
		if diff := cmp.Diff(want, deps); diff != "" {
			t.Errorf("deps mismatch (-want +got):\n%s", diff)
		}
		if len(sources) != 0 || len(warnings) != 0 {
			t.Errorf("absolute mode returned sources %v warnings %v", sources, warnings)
		}
	})

	t.Run("relative", func(t *testing.T) {
		deps, sources, warnings := Finalize(entries, Relative, "/base")
		var paths []string
		for _, d := range deps {
			paths = append(paths, d.Path)
		}
		if diff := cmp.Diff([]string{"wood.png", "wood.001.png", "rock.png", "packed.png"}, paths); diff != "" {
			t.Errorf("relative paths mismatch (-want +got):\n%s", diff)
		}
		wantSources := []Source{
			{Path: "/tex/wood.png", Name: "wood.png"},
			{Path: "/other/wood.png", Name: "wood.001.png"},
			{Path: "/base/rock.png", Name: "rock.png"},
		}
		if diff := cmp.Diff(wantSources, sources); diff != "" {
			t.Errorf("sources mismatch (-want +got):\n%s", diff)
		}
		r := &errors.Report{}
		r.Append(warnings...)
		if r.Count(errors.WarnNameConflict) != 1 || r.Count(errors.WarnDependencyLoadFailed) != 1 {
			t.Errorf("warnings = %v, want one name conflict and one missing source", warnings)
		}
	})
}

func TestCopyInto(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.png"), "alpha")
	writeFile(t, filepath.Join(src, "b.png"), "beta")
	writeFile(t, filepath.Join(dst, "b.png"), "beta")

	st, err := CopyInto(dst, []Source{
		{Path: filepath.Join(src, "a.png"), Name: "a.png"},
		{Path: filepath.Join(src, "b.png"), Name: "b.png"},
	})
	if err != nil {
		t.Fatalf("CopyInto() error: %v", err)
	}
	if len(st.Renamed) != 0 {
		t.Errorf("renamed = %v, want none", st.Renamed)
	}
	if diff := cmp.Diff([]string{filepath.Join(dst, "a.png")}, st.Written); diff != "" {
		t.Errorf("written mismatch (-want +got):\n%s", diff)
	}
	if got, _ := os.ReadFile(filepath.Join(dst, "a.png")); string(got) != "alpha" {
		t.Errorf("a.png = %q, want alpha", got)
	}
}

func TestCopyIntoNeverOverwrites(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "wood.png"), "new")
	writeFile(t, filepath.Join(src, "wood.001.png"), "other")
	writeFile(t, filepath.Join(dst, "wood.png"), "mine")
	writeFile(t, filepath.Join(dst, "wood.002.png"), "older")

	st, err := CopyInto(dst, []Source{
		{Path: filepath.Join(src, "wood.png"), Name: "wood.png"},
		{Path: filepath.Join(src, "wood.001.png"), Name: "wood.001.png"},
	})
	if err != nil {
		t.Fatalf("CopyInto() error: %v", err)
	}
	// wood.001.png belongs to the second source and wood.002.png to the user.
	if diff := cmp.Diff(map[string]string{"wood.png": "wood.003.png"}, st.Renamed); diff != "" {
		t.Errorf("renamed mismatch (-want +got):\n%s", diff)
	}
	for name, want := range map[string]string{
		"wood.png": "mine", "wood.001.png": "other", "wood.002.png": "older", "wood.003.png": "new",
	} {
		if got, _ := os.ReadFile(filepath.Join(dst, name)); string(got) != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}

	deps := []document.Dependency{
		{Kind: "image", Name: "wood.png", Path: "wood.png"},
		{Kind: "image", Name: "grain", Path: "wood.001.png"},
	}
	warnings := st.Apply(deps)
	if deps[0].Path != "wood.003.png" || deps[1].Path != "wood.001.png" {
		t.Errorf("deps after Apply = %+v", deps)
	}
	if len(warnings) != 1 || warnings[0].Code != errors.WarnNameConflict {
		t.Errorf("warnings = %v, want one NAME_CONFLICT", warnings)
	}

	st.Remove()
	if got, _ := os.ReadFile(filepath.Join(dst, "wood.png")); string(got) != "mine" {
		t.Errorf("Remove() touched the existing wood.png: %q", got)
	}
	if _, err := os.Stat(filepath.Join(dst, "wood.003.png")); !os.IsNotExist(err) {
		t.Errorf("Remove() left wood.003.png: %v", err)
	}
}

func TestCopyIntoCleansUpOnFailure(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.png"), "alpha")

	_, err := CopyInto(dst, []Source{
		{Path: filepath.Join(src, "a.png"), Name: "a.png"},
		{Path: filepath.Join(src, "missing.png"), Name: "missing.png"},
	})
	if err == nil {
		t.Fatal("CopyInto() error = nil, want error")
	}
	entries, _ := os.ReadDir(dst)
	if len(entries) != 0 {
		t.Errorf("dst holds %d entries after failure, want 0", len(entries))
	}
}

func TestResolve(t *testing.T) {
	docDir := t.TempDir()
	writeFile(t, filepath.Join(docDir, "wood.png"), "wood")

	lib := nodegraph.NewLibrary(nil)
	lib.AddAsset(nodegraph.Asset{Kind: "image", Name: "rock.png", Path: "/tex/rock.png"})

	header := document.Header{
		PathMode: document.PathRelative,
		Dependencies: []document.Dependency{
			{Kind: "image", Name: "wood.png", Path: "wood.png"},
			{Kind: "image", Name: "rock.png", Path: "rock.png"},
			{Kind: "image", Name: "gone.png", Path: "gone.png"},
		},
	}

	res := Resolve(context.Background(), header, docDir, nil, lib)
	if res.Loaded != 1 || res.Present != 1 {
		t.Errorf("Resolve() = %+v, want 1 loaded and 1 present", res)
	}
	if diff := cmp.Diff([]string{"gone.png"}, res.Failed); diff != "" {
		t.Errorf("Failed mismatch (-want +got):\n%s", diff)
	}

	a, ok := lib.Asset("image", "wood.png")
	if !ok || a.Path != filepath.Join(docDir, "wood.png") {
		t.Errorf("Asset(wood.png) = %+v, %v", a, ok)
	}

	w, ok := res.Warning()
	if !ok || w.Code != errors.WarnDependencyLoadFailed {
		t.Errorf("Warning() = %+v, %v, want DEPENDENCY_LOAD_FAILED", w, ok)
	}
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name string
		dep  document.Dependency
		mode string
		want string
	}{
		{"absolute", document.Dependency{Path: "/tex/a.png"}, document.PathAbsolute, "/tex/a.png"},
		{"absolute mode with relative path", document.Dependency{Path: "a.png"}, document.PathAbsolute, "/docs/a.png"},
		{"relative", document.Dependency{Path: "a.png"}, document.PathRelative, "/docs/a.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePath(tt.dep, tt.mode, "/docs"); got != tt.want {
				t.Errorf("ResolvePath() = %q, want %q", got, tt.want)
			}
		})
	}
}
