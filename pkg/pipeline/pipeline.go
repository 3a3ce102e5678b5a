// Package pipeline runs whole-document operations for the CLI and the API.
//
// A [Runner] ties the stages together so that both entry points behave the
// same way:
//
//   - Import reads a document file and restores it into a library.
//   - Export captures a tree and publishes the document, staging asset
//     files next to it in relative path mode.
//   - Convert imports a document into a scratch library and exports it
//     again, for example to switch path modes.
//   - Inspect summarizes a document without restoring it.
//   - Validate restores a document into a scratch library and reports
//     what went wrong.
//   - Render draws one group, caching the artifact by document content.
//
// Usage:
//
//	runner := pipeline.NewRunner(catalog, cache.NewNullCache(), logger)
//	res, err := runner.Import(ctx, "material.bnodes", pipeline.ImportOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, err = runner.Export(ctx, res.Restore.Tree, "copy.bnodes", pipeline.ExportOptions{
//	    PathMode: assets.Relative,
//	})
package pipeline

import (
	"github.com/matzehuels/nodeio/pkg/assets"
	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
	"github.com/matzehuels/nodeio/pkg/render"
	"github.com/matzehuels/nodeio/pkg/restore"
)

// ImportOptions configures [Runner.Import].
type ImportOptions struct {
	// Library receives the restored trees. Nil creates one from the
	// runner's catalog.
	Library *nodegraph.Library
	// Target receives the "main" group. Nil creates a new tree.
	Target       *nodegraph.Tree
	KeepExisting bool
	ActiveKind   string
	// Loader loads dependencies. Nil uses [assets.FileLoader].
	Loader assets.Loader
}

// ImportResult is the outcome of [Runner.Import].
type ImportResult struct {
	Document *document.Document
	Library  *nodegraph.Library
	Restore  *restore.Result
}

// ExportOptions configures [Runner.Export].
type ExportOptions struct {
	// Name is recorded in the header. Defaults to the tree name.
	Name     string
	PathMode assets.PathMode
	Indent   bool
	// BaseDir resolves asset paths that are not absolute. Defaults to the
	// working directory.
	BaseDir string
}

// ExportResult is the outcome of [Runner.Export].
type ExportResult struct {
	Document *document.Document
	Path     string
	// Staged lists the asset files copied next to the document.
	Staged   []string
	Warnings []errors.Warning
}

// ConvertOptions configures [Runner.Convert].
type ConvertOptions struct {
	PathMode assets.PathMode
	Indent   bool
}

// ConvertResult is the outcome of [Runner.Convert].
type ConvertResult struct {
	Import *ImportResult
	Export *ExportResult
}

// Warnings returns the warnings of both halves of the conversion.
func (r *ConvertResult) Warnings() []errors.Warning {
	out := append([]errors.Warning(nil), r.Import.Restore.Warnings...)
	return append(out, r.Export.Warnings...)
}

// RenderOptions configures [Runner.Render].
type RenderOptions struct {
	// Group to draw. Empty selects "main".
	Group    string
	Format   render.Format
	Detailed bool
}

// GroupSummary describes one group of a document.
type GroupSummary struct {
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
	Links int    `json:"links"`
}

// Summary describes a document for inspection output.
type Summary struct {
	Header document.Header `json:"header"`
	Stats  document.Stats  `json:"stats"`
	// Groups follow the document's group order.
	Groups []GroupSummary `json:"groups"`
}

// Summarize builds the summary of doc.
func Summarize(doc *document.Document) *Summary {
	s := &Summary{Header: doc.Header, Stats: doc.Stats()}
	for _, name := range doc.Header.GroupOrder {
		g, ok := doc.Groups[name]
		if !ok {
			continue
		}
		s.Groups = append(s.Groups, GroupSummary{Name: name, Nodes: len(g.Nodes), Links: len(g.Links)})
	}
	return s
}
