package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
	"github.com/matzehuels/nodeio/pkg/observability"
)

// Loader loads one dependency from a resolved file path.
type Loader interface {
	Load(ctx context.Context, dep document.Dependency, path string) (nodegraph.Asset, error)
}

// FileLoader registers assets that exist as regular files on disk. It does
// not read their content.
type FileLoader struct{}

// Load checks that path names a regular file and returns the asset.
func (FileLoader) Load(ctx context.Context, dep document.Dependency, path string) (nodegraph.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nodegraph.Asset{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nodegraph.Asset{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s %q", dep.Kind, dep.Name)
		}
		return nodegraph.Asset{}, errors.Wrap(errors.ErrCodeInternal, err, "%s %q", dep.Kind, dep.Name)
	}
	if info.IsDir() {
		return nodegraph.Asset{}, errors.New(errors.ErrCodeInvalidPath, "%s %q: %s is a directory", dep.Kind, dep.Name, path)
	}
	return nodegraph.Asset{Kind: dep.Kind, Name: dep.Name, Path: path}, nil
}

// Resolution counts the outcome of [Resolve].
type Resolution struct {
	Loaded  int
	Present int
	Failed  []string
}

// Warning returns the single aggregate warning for failed loads, if any.
func (r Resolution) Warning() (errors.Warning, bool) {
	if len(r.Failed) == 0 {
		return errors.Warning{}, false
	}
	return errors.Warning{
		Code:    errors.WarnDependencyLoadFailed,
		Message: fmt.Sprintf("%d dependencies failed to load: %v", len(r.Failed), r.Failed),
	}, true
}

// ResolvePath returns where a dependency is expected on disk. Relative
// paths, and every path in relative mode, are taken from docDir.
func ResolvePath(dep document.Dependency, mode string, docDir string) string {
	if mode == document.PathRelative || !filepath.IsAbs(dep.Path) {
		return filepath.Join(docDir, dep.Path)
	}
	return dep.Path
}

// Resolve loads every dependency of header that lib does not hold yet.
// Failures are counted, never returned: a missing asset leaves the
// attributes that reference it unset.
func Resolve(ctx context.Context, header document.Header, docDir string, loader Loader, lib *nodegraph.Library) Resolution {
	if loader == nil {
		loader = FileLoader{}
	}
	var res Resolution
	for _, dep := range header.Dependencies {
		if _, ok := lib.Asset(dep.Kind, dep.Name); ok {
			res.Present++
			continue
		}
		asset, err := loader.Load(ctx, dep, ResolvePath(dep, header.PathMode, docDir))
		observability.Engine().OnAssetLoad(ctx, dep.Kind, dep.Name, err)
		if err != nil {
			res.Failed = append(res.Failed, dep.Name)
			continue
		}
		lib.AddAsset(asset)
		res.Loaded++
	}
	return res
}
