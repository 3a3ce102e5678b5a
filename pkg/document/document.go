package document

import (
	"slices"
	"time"

	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

const (
	// FormatVersion is the document layout version written by this build.
	FormatVersion = 1

	// MainGroup is the reserved name of the root graph. It is always the
	// last entry of [Header.GroupOrder].
	MainGroup = "main"

	// Extension is the file extension of node documents.
	Extension = ".bnodes"
)

// Path modes for recorded dependencies.
const (
	PathAbsolute = "absolute"
	PathRelative = "relative"
)

// Dependency is one external asset the document needs. In relative path
// mode Path is a bare file name next to the document.
type Dependency struct {
	Kind string
	Name string
	Path string
}

// Header carries document-wide metadata.
type Header struct {
	Version      int
	ID           string
	Name         string
	GraphKind    string
	PathMode     string
	Dependencies []Dependency
	GroupOrder   []string
	NodeCount    int
	Created      time.Time
	Generator    string
}

// SocketRecord holds the value fields of one socket, addressed by index.
type SocketRecord struct {
	Index  int
	Type   string
	Values map[string]nodegraph.Value
}

// NodeRecord is one captured node.
type NodeRecord struct {
	Name       string
	Type       string
	Inputs     []SocketRecord
	Outputs    []SocketRecord
	Attributes nodegraph.Attributes
}

// LinkRecord is one captured link. Endpoints are node names scoped to the
// enclosing group.
type LinkRecord struct {
	FromNode   string
	FromSocket int
	ToNode     string
	ToSocket   int
}

// Group is one flattened graph.
type Group struct {
	Nodes []NodeRecord
	Links []LinkRecord
}

// Node returns the record with the given name.
func (g *Group) Node(name string) (*NodeRecord, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// Document is a captured node graph: a header plus every flattened group
// keyed by name.
type Document struct {
	Header Header
	Groups map[string]*Group
}

// New returns an empty document with the current format version.
func New() *Document {
	return &Document{
		Header: Header{Version: FormatVersion, PathMode: PathAbsolute},
		Groups: make(map[string]*Group),
	}
}

// Main returns the root group.
func (d *Document) Main() (*Group, bool) {
	g, ok := d.Groups[MainGroup]
	return g, ok
}

// Ordered returns the groups in linearization order.
func (d *Document) Ordered() []*Group {
	out := make([]*Group, 0, len(d.Header.GroupOrder))
	for _, name := range d.Header.GroupOrder {
		if g, ok := d.Groups[name]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Stats summarizes a document for inspection output.
type Stats struct {
	Groups       int
	Nodes        int
	Links        int
	Dependencies int
}

// Stats counts groups, nodes, links and dependencies.
func (d *Document) Stats() Stats {
	s := Stats{Groups: len(d.Groups), Dependencies: len(d.Header.Dependencies)}
	for _, g := range d.Groups {
		s.Nodes += len(g.Nodes)
		s.Links += len(g.Links)
	}
	return s
}

// Validate checks the structural invariants restore depends on:
//   - the version is supported
//   - the group order names every group exactly once and ends with "main"
//   - group and node names are valid and unique in their scope
//   - the path mode is known and relative dependencies are bare file names
//
// Link endpoints are not checked here; restore drops links whose endpoints
// are missing from their group.
func Validate(d *Document) error {
	h := d.Header
	if h.Version < 1 || h.Version > FormatVersion {
		return errors.New(errors.ErrCodeUnsupportedVersion, "document version %d (supported: 1..%d)", h.Version, FormatVersion)
	}
	if h.PathMode != PathAbsolute && h.PathMode != PathRelative {
		return errors.New(errors.ErrCodeInvalidDocument, "unknown path mode %q", h.PathMode)
	}

	order := h.GroupOrder
	if len(order) == 0 || order[len(order)-1] != MainGroup {
		return errors.New(errors.ErrCodeInvalidDocument, "group order must end with %q", MainGroup)
	}
	if len(order) != len(d.Groups) {
		return errors.New(errors.ErrCodeInvalidDocument, "group order lists %d groups, document has %d", len(order), len(d.Groups))
	}
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if err := errors.ValidateName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "group name")
		}
		if seen[name] {
			return errors.New(errors.ErrCodeInvalidDocument, "group %q listed twice", name)
		}
		seen[name] = true
		g, ok := d.Groups[name]
		if !ok || g == nil {
			return errors.New(errors.ErrCodeInvalidDocument, "group %q in order but not in document", name)
		}
		if err := validateGroup(name, g); err != nil {
			return err
		}
	}

	for _, dep := range h.Dependencies {
		if dep.Kind == "" || dep.Name == "" {
			return errors.New(errors.ErrCodeInvalidDocument, "dependency without kind or name")
		}
		if h.PathMode == PathRelative {
			if err := errors.ValidateAssetFilename(dep.Path); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidDocument, err, "dependency %s", dep.Name)
			}
		}
	}
	return nil
}

func validateGroup(name string, g *Group) error {
	names := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if err := errors.ValidateName(n.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDocument, err, "group %s node name", name)
		}
		if n.Type == "" {
			return errors.New(errors.ErrCodeInvalidDocument, "group %s node %s has no type", name, n.Name)
		}
		if names[n.Name] {
			return errors.New(errors.ErrCodeInvalidDocument, "group %s has duplicate node %q", name, n.Name)
		}
		names[n.Name] = true
	}
	return nil
}

// ValidateOrder checks that the group order is a valid linearization: every
// group bound by a node appears before the group containing that node.
// References to names that are not groups of the document are ignored;
// they may name trees that already exist in the target library.
func ValidateOrder(d *Document, isTreeRef func(typeID, key string) bool) error {
	pos := make(map[string]int, len(d.Header.GroupOrder))
	for i, name := range d.Header.GroupOrder {
		pos[name] = i
	}
	for i, name := range d.Header.GroupOrder {
		g := d.Groups[name]
		if g == nil {
			continue
		}
		for _, n := range g.Nodes {
			for _, attr := range n.Attributes {
				if attr.Value.Kind != nodegraph.KindString && attr.Value.Kind != nodegraph.KindTree {
					continue
				}
				if !isTreeRef(n.Type, attr.Key) {
					continue
				}
				j, ok := pos[attr.Value.Str]
				if ok && j >= i {
					return errors.New(errors.ErrCodeInvalidDocument,
						"group %q is used by %s/%s before it is defined", attr.Value.Str, name, n.Name)
				}
			}
		}
	}
	return nil
}

// SubGroups returns the names of all groups except "main", in order.
func (d *Document) SubGroups() []string {
	return slices.DeleteFunc(slices.Clone(d.Header.GroupOrder), func(s string) bool { return s == MainGroup })
}
