package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeio/pkg/assets"
	"github.com/matzehuels/nodeio/pkg/cache"
	"github.com/matzehuels/nodeio/pkg/capture"
	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
	"github.com/matzehuels/nodeio/pkg/render"
	"github.com/matzehuels/nodeio/pkg/restore"
)

// Runner executes document operations against a node catalog.
//
// The Runner holds no per-call state. Libraries are not safe for
// concurrent mutation, so concurrent calls must not share a library.
type Runner struct {
	Catalog *nodegraph.Catalog
	Cache   cache.Cache
	Logger  *log.Logger
}

// NewRunner creates a runner.
// A nil catalog uses the builtin one; a nil cache disables caching.
func NewRunner(cat *nodegraph.Catalog, c cache.Cache, logger *log.Logger) *Runner {
	if cat == nil {
		cat = nodegraph.DefaultCatalog()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Catalog: cat, Cache: c, Logger: logger}
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// Import reads the document at path and restores it. Relative dependency
// paths resolve against the document's directory.
func (r *Runner) Import(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	doc, err := document.ImportJSON(path)
	if err != nil {
		return nil, err
	}
	docDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	return r.ImportDocument(ctx, doc, docDir, opts)
}

// ImportDocument restores an already decoded document.
func (r *Runner) ImportDocument(ctx context.Context, doc *document.Document, docDir string, opts ImportOptions) (*ImportResult, error) {
	lib := opts.Library
	if lib == nil {
		lib = nodegraph.NewLibrary(r.Catalog)
	}

	start := time.Now()
	res, err := restore.Restore(ctx, doc, lib, restore.Options{
		Target:       opts.Target,
		KeepExisting: opts.KeepExisting,
		ActiveKind:   opts.ActiveKind,
		DocDir:       docDir,
		Loader:       opts.Loader,
		Logger:       r.Logger,
	})
	if err != nil {
		return nil, err
	}

	r.Logger.Info("restored document",
		"document", doc.Header.Name,
		"tree", res.Tree.Name(),
		"nodes", res.Nodes,
		"links", res.Links,
		"warnings", len(res.Warnings),
		"duration", time.Since(start))
	return &ImportResult{Document: doc, Library: lib, Restore: res}, nil
}

// Validate restores doc into a scratch library and returns the outcome.
// The library is discarded.
func (r *Runner) Validate(ctx context.Context, doc *document.Document, docDir string, loader assets.Loader) (*restore.Result, error) {
	res, err := r.ImportDocument(ctx, doc, docDir, ImportOptions{Loader: loader})
	if err != nil {
		return nil, err
	}
	return res.Restore, nil
}

// Export captures tree and writes the document to path.
//
// In relative path mode the referenced asset files are copied next to the
// document first. A different file already in the output folder is kept and
// the asset is staged under a numbered name. The document itself is
// published atomically; if writing it fails, the asset files this call
// copied are removed again.
func (r *Runner) Export(ctx context.Context, tree *nodegraph.Tree, path string, opts ExportOptions) (*ExportResult, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "get working directory")
		}
		baseDir = wd
	}

	start := time.Now()
	cres, err := capture.Capture(ctx, tree, capture.Options{
		Name:     opts.Name,
		PathMode: opts.PathMode,
		BaseDir:  baseDir,
		Logger:   r.Logger,
	})
	if err != nil {
		return nil, err
	}

	var staging assets.Staging
	warnings := cres.Warnings
	if len(cres.Sources) > 0 {
		staging, err = assets.CopyInto(filepath.Dir(path), cres.Sources)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, staging.Apply(cres.Document.Header.Dependencies)...)
	}
	if err := document.ExportJSON(cres.Document, path, opts.Indent); err != nil {
		staging.Remove()
		return nil, err
	}
	staged := staging.Written

	r.Logger.Info("exported document",
		"path", path,
		"groups", len(cres.Document.Groups),
		"nodes", cres.Document.Header.NodeCount,
		"dependencies", len(cres.Document.Header.Dependencies),
		"staged", len(staged),
		"duration", time.Since(start))
	return &ExportResult{Document: cres.Document, Path: path, Staged: staged, Warnings: warnings}, nil
}

// Convert imports the document at in and exports it to out.
func (r *Runner) Convert(ctx context.Context, in, out string, opts ConvertOptions) (*ConvertResult, error) {
	ires, err := r.Import(ctx, in, ImportOptions{})
	if err != nil {
		return nil, err
	}
	eres, err := r.Export(ctx, ires.Restore.Tree, out, ExportOptions{
		Name:     ires.Document.Header.Name,
		PathMode: opts.PathMode,
		Indent:   opts.Indent,
	})
	if err != nil {
		return nil, err
	}
	return &ConvertResult{Import: ires, Export: eres}, nil
}

// Inspect reads and validates the document at path and summarizes it.
func (r *Runner) Inspect(path string) (*Summary, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	doc, err := document.ImportJSON(path)
	if err != nil {
		return nil, err
	}
	if err := document.Validate(doc); err != nil {
		return nil, err
	}
	return Summarize(doc), nil
}

// Render draws one group of the encoded document data. Artifacts are
// cached by the hash of data and the options.
func (r *Runner) Render(ctx context.Context, data []byte, opts RenderOptions) ([]byte, error) {
	format := opts.Format
	if format == "" {
		format = render.FormatSVG
	}
	group := opts.Group
	if group == "" {
		group = document.MainGroup
	}

	key := cache.ArtifactKey(cache.Hash(data), cache.ArtifactKeyOpts{
		Group:    group,
		Format:   string(format),
		Detailed: opts.Detailed,
	})
	if out, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		r.Logger.Debug("render cache hit", "group", group, "format", format)
		return out, nil
	}

	doc, err := document.ReadJSON(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}
	if err := document.Validate(doc); err != nil {
		return nil, err
	}

	start := time.Now()
	dot, err := render.ToDOT(doc, group, render.Options{
		Detailed:  opts.Detailed,
		IsTreeRef: r.Catalog.IsTreeRef,
	})
	if err != nil {
		return nil, err
	}
	out, err := render.Render(ctx, dot, format)
	if err != nil {
		return nil, err
	}

	_ = r.Cache.Set(ctx, key, out, cache.TTLArtifact)
	r.Logger.Debug("rendered group", "group", group, "format", format, "bytes", len(out), "duration", time.Since(start))
	return out, nil
}
