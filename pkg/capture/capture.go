package capture

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/nodeio/pkg/assets"
	"github.com/matzehuels/nodeio/pkg/buildinfo"
	"github.com/matzehuels/nodeio/pkg/codec"
	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
	"github.com/matzehuels/nodeio/pkg/observability"
)

// Options configures a capture.
type Options struct {
	// Name is recorded in the header. Defaults to the tree name.
	Name string
	// PathMode selects how dependency paths are stored.
	PathMode assets.PathMode
	// BaseDir resolves asset paths that are not absolute.
	BaseDir string
	// Generator is recorded in the header. Defaults to the build version.
	Generator string
	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// Result is the outcome of a capture.
type Result struct {
	Document *document.Document
	// Sources lists the asset files to stage next to the document in
	// relative path mode.
	Sources  []assets.Source
	Warnings []errors.Warning
}

// visit states of the depth-first traversal.
type visit int

const (
	unvisited visit = iota
	active
	done
)

type flattener struct {
	ctx    context.Context
	doc    *document.Document
	deps   *assets.Collector
	report errors.Report
	state  map[nodegraph.TreeID]visit
	nodes  int
	logger *log.Logger
}

// Capture flattens tree and every tree it binds into a document.
//
// Trees are visited depth first. A bound tree is flattened before the
// links of its owner are read and before its owner is registered, so the
// group order lists every group ahead of the groups that use it and the
// root, registered as "main", comes last. A tree bound from several places
// is recorded once.
//
// A cycle of group bindings, or a bound tree named "main", is an error.
// Everything else that goes wrong for a single node or attribute is
// returned as a warning.
func Capture(ctx context.Context, tree *nodegraph.Tree, opts Options) (res *Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	name := opts.Name
	if name == "" {
		name = tree.Name()
	}
	mode := opts.PathMode
	if mode == "" {
		mode = assets.Absolute
	}
	generator := opts.Generator
	if generator == "" {
		generator = buildinfo.Generator()
	}

	start := time.Now()
	observability.Engine().OnCaptureStart(ctx, name)
	defer func() {
		groups, nodes := 0, 0
		if res != nil {
			groups, nodes = len(res.Document.Groups), res.Document.Header.NodeCount
		}
		observability.Engine().OnCaptureComplete(ctx, name, groups, nodes, time.Since(start), err)
	}()

	f := &flattener{
		ctx:    ctx,
		doc:    document.New(),
		deps:   assets.NewCollector(),
		state:  make(map[nodegraph.TreeID]visit),
		logger: logger,
	}
	if err := f.visit(tree, document.MainGroup); err != nil {
		return nil, err
	}

	deps, sources, warnings := assets.Finalize(f.deps.Entries(), mode, opts.BaseDir)
	f.report.Append(warnings...)

	h := &f.doc.Header
	h.ID = uuid.NewString()
	h.Name = name
	h.GraphKind = tree.Kind()
	h.PathMode = string(mode)
	h.Dependencies = deps
	h.NodeCount = f.nodes
	h.Created = time.Now().UTC().Truncate(time.Second)
	h.Generator = generator

	logger.Debug("captured tree", "tree", tree.Name(), "groups", len(f.doc.Groups),
		"nodes", f.nodes, "dependencies", len(deps), "warnings", f.report.Len())

	return &Result{Document: f.doc, Sources: sources, Warnings: f.report.Warnings()}, nil
}

// visit records t under name after recording every tree its nodes bind.
func (f *flattener) visit(t *nodegraph.Tree, name string) error {
	f.state[t.ID()] = active
	g := &document.Group{}

	for _, n := range t.Nodes() {
		if err := f.ctx.Err(); err != nil {
			return err
		}
		rec, warnings := codec.CaptureNode(n, f.deps)
		f.report.Append(warnings...)

		for _, sub := range n.Subtrees() {
			switch f.state[sub.ID()] {
			case active:
				return errors.New(errors.ErrCodeGroupCycle, "group %q binds %q, which is already being captured", t.Name(), sub.Name())
			case done:
				continue
			}
			if sub.Name() == document.MainGroup {
				return errors.New(errors.ErrCodeInvalidName, "group name %q is reserved for the root graph", document.MainGroup)
			}
			f.logger.Debug("descending into group", "owner", n.Name(), "group", sub.Name())
			if err := f.visit(sub, sub.Name()); err != nil {
				return err
			}
		}
		g.Nodes = append(g.Nodes, rec)
	}

	links, err := codec.CaptureLinks(t)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "links of %s", t.Name())
	}
	g.Links = links

	f.doc.Groups[name] = g
	f.doc.Header.GroupOrder = append(f.doc.Header.GroupOrder, name)
	f.nodes += len(g.Nodes)
	f.state[t.ID()] = done
	return nil
}
