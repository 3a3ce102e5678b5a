package restore

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nodeio/pkg/assets"
	"github.com/matzehuels/nodeio/pkg/codec"
	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
	"github.com/matzehuels/nodeio/pkg/observability"
)

// Options configures a restore.
type Options struct {
	// Target receives the "main" group. Nil creates a new tree named after
	// the document.
	Target *nodegraph.Tree
	// KeepExisting leaves the target's current nodes in place.
	KeepExisting bool
	// ActiveKind is the graph kind the caller is editing. A document of
	// another kind is rejected. Empty accepts any kind.
	ActiveKind string
	// DocDir resolves relative dependency paths.
	DocDir string
	// Loader loads dependencies. Nil uses [assets.FileLoader].
	Loader assets.Loader
	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// Result is the outcome of a restore.
type Result struct {
	// Tree holds the restored "main" group.
	Tree *nodegraph.Tree
	// Groups maps document group names to the trees created for them. A
	// tree may carry a suffixed name when the library already used it.
	Groups map[string]*nodegraph.Tree
	// Removed lists created groups discarded because nothing binds them.
	Removed  []string
	Assets   assets.Resolution
	Nodes    int
	Links    int
	Skipped  int
	Warnings []errors.Warning
}

// pendingRef is a node reference queued for the second pass.
type pendingRef struct {
	node   *nodegraph.Node
	key    string
	target string
	pre    []float64
}

type restorer struct {
	ctx    context.Context
	doc    *document.Document
	lib    *nodegraph.Library
	opts   Options
	kind   string
	logger *log.Logger
	report errors.Report
	res    *Result
	made   []*nodegraph.Tree
}

// Compensate returns where a node must be placed in editor space so that
// its parent-relative location equals pre once parented under a node at
// parentPos. Attaching a parent keeps the editor-space position, which
// shifts the recorded relative location; adding the parent's position
// restores it.
func Compensate(pre, parentPos []float64) []float64 {
	out := make([]float64, max(len(pre), len(parentPos)))
	for i := range out {
		if i < len(pre) {
			out[i] += pre[i]
		}
		if i < len(parentPos) {
			out[i] += parentPos[i]
		}
	}
	return out
}

// Restore rebuilds doc inside lib.
//
// Groups are created in document order, so every bound group exists
// before the nodes that bind it. Dependencies are loaded once up front.
// Each group is built in two passes: the first creates nodes and applies
// attributes and socket values, the second resolves node references and
// parents. Links follow, then created groups that nothing binds are
// removed.
//
// An invalid document or a graph kind mismatch fails before the library
// is touched. Unknown node types, rejected attributes and unresolved
// references become warnings. Links whose endpoints are missing are
// dropped.
func Restore(ctx context.Context, doc *document.Document, lib *nodegraph.Library, opts Options) (res *Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	if err := document.Validate(doc); err != nil {
		return nil, err
	}
	if err := document.ValidateOrder(doc, lib.Catalog().IsTreeRef); err != nil {
		return nil, err
	}
	kind, err := graphKind(doc, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Engine().OnRestoreStart(ctx, doc.Header.Name, len(doc.Groups))
	defer func() {
		nodes, warnings := 0, 0
		if res != nil {
			nodes, warnings = res.Nodes, len(res.Warnings)
		}
		observability.Engine().OnRestoreComplete(ctx, doc.Header.Name, nodes, warnings, time.Since(start), err)
	}()

	r := &restorer{
		ctx:    ctx,
		doc:    doc,
		lib:    lib,
		opts:   opts,
		kind:   kind,
		logger: logger,
		res:    &Result{Groups: make(map[string]*nodegraph.Tree)},
	}

	r.res.Assets = assets.Resolve(ctx, doc.Header, opts.DocDir, opts.Loader, lib)
	if w, ok := r.res.Assets.Warning(); ok {
		r.report.Append(w)
	}
	logger.Debug("resolved dependencies", "loaded", r.res.Assets.Loaded,
		"present", r.res.Assets.Present, "failed", len(r.res.Assets.Failed))

	for _, name := range doc.Header.GroupOrder {
		if err := ctx.Err(); err != nil {
			r.rollback()
			return nil, err
		}
		if err := r.group(name, doc.Groups[name]); err != nil {
			r.rollback()
			return nil, err
		}
	}

	r.collect()
	r.res.Warnings = r.report.Warnings()
	logger.Debug("restored document", "document", doc.Header.Name, "nodes", r.res.Nodes,
		"links", r.res.Links, "skipped", r.res.Skipped, "warnings", len(r.res.Warnings))
	return r.res, nil
}

// graphKind checks the document kind against the caller's mode and target.
func graphKind(doc *document.Document, opts Options) (string, error) {
	kind := doc.Header.GraphKind
	if kind != "" && opts.ActiveKind != "" && kind != opts.ActiveKind {
		return "", errors.New(errors.ErrCodeWrongGraphKind,
			"document holds %s graphs, active mode is %s", kind, opts.ActiveKind)
	}
	if kind != "" && opts.Target != nil && opts.Target.Kind() != kind {
		return "", errors.New(errors.ErrCodeWrongGraphKind,
			"document holds %s graphs, target %q is a %s graph", kind, opts.Target.Name(), opts.Target.Kind())
	}
	switch {
	case kind != "":
		return kind, nil
	case opts.Target != nil:
		return opts.Target.Kind(), nil
	case opts.ActiveKind != "":
		return opts.ActiveKind, nil
	default:
		return "shader", nil
	}
}

// container allocates the tree that receives a group.
func (r *restorer) container(name string) (*nodegraph.Tree, error) {
	if name != document.MainGroup {
		t, err := r.lib.NewTree(name, r.kind)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidName, err, "group %q", name)
		}
		r.made = append(r.made, t)
		if t.Name() != name {
			r.report.Add(errors.WarnNameConflict, name, "", "", "library already has a tree %q, created %q", name, t.Name())
		}
		r.res.Groups[name] = t
		return t, nil
	}

	if t := r.opts.Target; t != nil {
		if !r.opts.KeepExisting {
			t.Clear()
		}
		r.res.Tree = t
		return t, nil
	}
	treeName := r.doc.Header.Name
	if treeName == "" {
		treeName = document.MainGroup
	}
	t, err := r.lib.NewTree(treeName, r.kind)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidName, err, "main tree")
	}
	r.made = append(r.made, t)
	r.res.Tree = t
	return t, nil
}

// group restores one document group.
func (r *restorer) group(name string, g *document.Group) error {
	tree, err := r.container(name)
	if err != nil {
		return err
	}

	ctx := codec.RestoreContext{
		Group: name,
		ResolveTree: func(ref string) (*nodegraph.Tree, bool) {
			t, ok := r.res.Groups[ref]
			return t, ok
		},
	}

	// Pass 1: nodes, attributes, sockets.
	scope := make(map[string]*nodegraph.Node, len(g.Nodes))
	var pending []pendingRef
	for _, rec := range g.Nodes {
		n, err := tree.NewNode(rec.Type)
		if err != nil {
			r.report.Add(errors.WarnUnsupportedNodeType, name, rec.Name, "", "%v", err)
			r.res.Skipped++
			continue
		}
		got, err := tree.RenameNode(n, rec.Name)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidName, err, "group %s node %q", name, rec.Name)
		}
		if got != rec.Name {
			r.report.Add(errors.WarnNameConflict, name, rec.Name, "", "target already has a node %q, created %q", rec.Name, got)
		}
		scope[rec.Name] = n

		deferred, warnings := codec.RestoreAttributes(n, rec.Attributes, ctx)
		r.report.Append(warnings...)
		r.report.Append(codec.RestoreSockets(n, rec.Inputs, rec.Outputs, name)...)

		pre := n.Location()
		for _, d := range deferred {
			pending = append(pending, pendingRef{node: n, key: d.Key, target: d.Target, pre: pre})
		}
		r.res.Nodes++
	}

	// Pass 2: node references and parents.
	for _, p := range pending {
		target, ok := scope[p.target]
		if !ok {
			r.report.Add(errors.WarnReferenceUnresolved, name, p.node.Name(), p.key, "node %q not found", p.target)
			continue
		}
		if p.key != nodegraph.KeyParent {
			if err := p.node.SetNodeRef(p.key, target); err != nil {
				r.report.Add(errors.WarnAttributeRejected, name, p.node.Name(), p.key, "%v", err)
			}
			continue
		}
		if err := p.node.SetParent(target); err != nil {
			r.report.Add(errors.WarnAttributeRejected, name, p.node.Name(), p.key, "%v", err)
			continue
		}
		if err := p.node.SetLocation(Compensate(p.pre, target.AbsLocation())); err != nil {
			r.report.Add(errors.WarnAttributeRejected, name, p.node.Name(), nodegraph.KeyLocation, "%v", err)
		}
	}

	// Links: both endpoints must be in this group.
	for _, rec := range g.Links {
		from, to, ok := codec.DecodeLink(rec, scope)
		if !ok {
			r.logger.Debug("dropping link", "group", name, "from", rec.FromNode, "to", rec.ToNode)
			continue
		}
		if _, err := tree.Connect(from, rec.FromSocket, to, rec.ToSocket); err != nil {
			r.logger.Debug("dropping link", "group", name, "from", rec.FromNode, "to", rec.ToNode, "err", err)
			continue
		}
		r.res.Links++
	}

	r.logger.Debug("restored group", "group", name, "tree", tree.Name(), "nodes", len(scope))
	return nil
}

// collect removes created groups that no node binds, repeating until
// nothing changes: removing a group may release the groups it bound.
func (r *restorer) collect() {
	for {
		removed := false
		for name, t := range r.res.Groups {
			if r.lib.Users(t.ID()) > 0 {
				continue
			}
			if err := r.lib.RemoveTree(t.ID()); err != nil {
				continue
			}
			delete(r.res.Groups, name)
			r.res.Removed = append(r.res.Removed, name)
			r.logger.Debug("removed unused group", "group", name)
			removed = true
		}
		if !removed {
			break
		}
	}
	slices.Sort(r.res.Removed)
}

// rollback removes every tree this restore created, newest first.
func (r *restorer) rollback() {
	for i := len(r.made) - 1; i >= 0; i-- {
		_ = r.lib.RemoveTree(r.made[i].ID())
	}
}
