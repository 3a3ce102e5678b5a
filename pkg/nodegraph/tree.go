package nodegraph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownNodeType is returned by [Tree.NewNode] when the catalog has
	// no node type with the requested id.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrForeignNode is returned when an operation mixes nodes of different
	// trees, or a node that was already removed.
	ErrForeignNode = errors.New("node belongs to another tree")

	// ErrSocketOutOfRange is returned by [Tree.Connect] when a socket index
	// does not exist on the node.
	ErrSocketOutOfRange = errors.New("socket index out of range")
)

// NodeID identifies a node within its [Tree]. IDs are never reused.
type NodeID uint64

// Link connects output socket FromSocket of node From to input socket
// ToSocket of node To. Both nodes live in the same tree.
type Link struct {
	From       NodeID
	FromSocket int
	To         NodeID
	ToSocket   int
}

// InterfaceSocket is one entry of a tree's group interface.
type InterfaceSocket struct {
	Type string
	Name string
}

// Interface lists the sockets a tree exposes when used as a group.
type Interface struct {
	Inputs  []InterfaceSocket
	Outputs []InterfaceSocket
}

// Tree is a flat graph of nodes and links. Nodes of a tree may bind other
// trees of the same library through tree-reference properties.
type Tree struct {
	id     TreeID
	name   string
	kind   string
	lib    *Library
	nodes  map[NodeID]*Node
	byName map[string]NodeID
	order  []NodeID
	links  []Link
	iface  Interface
	nextID NodeID
}

// ID returns the tree's library-unique id.
func (t *Tree) ID() TreeID { return t.id }

// Name returns the tree's library-unique name.
func (t *Tree) Name() string { return t.name }

// Kind returns the graph kind ("shader", "compositing", ...).
func (t *Tree) Kind() string { return t.kind }

// Library returns the owning library, or nil once the tree was removed.
func (t *Tree) Library() *Library { return t.lib }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.order) }

// NewNode creates a node of the given type with default property values.
// The node is named after the type label, suffixed if the name is taken.
func (t *Tree) NewNode(typeID string) (*Node, error) {
	typ, ok := t.lib.catalog.NodeType(typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, typeID)
	}
	t.nextID++
	n := &Node{
		id:    t.nextID,
		typ:   typ,
		tree:  t,
		props: make(map[string]Value),
		trees: make(map[string]TreeID),
		refs:  make(map[string]NodeID),
	}
	n.name = uniqueName(typ.Label, t.taken)
	n.inputs = t.lib.buildSockets(typ.Inputs, false, nil)
	n.outputs = t.lib.buildSockets(typ.Outputs, true, nil)
	t.nodes[n.id] = n
	t.byName[n.name] = n.id
	t.order = append(t.order, n.id)
	n.syncSockets()
	return n, nil
}

func (t *Tree) taken(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Node returns the node with the given name.
func (t *Tree) Node(name string) (*Node, bool) {
	id, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.nodes[id], true
}

// NodeByID returns the node with the given id.
func (t *Tree) NodeByID(id NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Nodes returns all nodes in creation order.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

// RenameNode renames n. If the name is taken by another node a numeric
// suffix is appended; the final name is returned.
func (t *Tree) RenameNode(n *Node, name string) (string, error) {
	if n.tree != t {
		return "", ErrForeignNode
	}
	if name == "" {
		return "", ErrInvalidName
	}
	if name == n.name {
		return name, nil
	}
	delete(t.byName, n.name)
	n.name = uniqueName(name, t.taken)
	t.byName[n.name] = n.id
	return n.name, nil
}

// RemoveNode deletes n together with its links. Children keep their
// editor-space position; references to n held by other nodes are cleared.
func (t *Tree) RemoveNode(n *Node) error {
	if n.tree != t {
		return ErrForeignNode
	}
	for _, other := range t.nodes {
		if other.parent == n.id {
			_ = other.SetParent(nil)
		}
		for key, ref := range other.refs {
			if ref == n.id {
				delete(other.refs, key)
			}
		}
	}
	t.links = slices.DeleteFunc(t.links, func(l Link) bool { return l.From == n.id || l.To == n.id })
	delete(t.nodes, n.id)
	delete(t.byName, n.name)
	t.order = slices.DeleteFunc(t.order, func(id NodeID) bool { return id == n.id })
	n.tree = nil
	return nil
}

// Clear removes every node and link. The interface is kept.
func (t *Tree) Clear() {
	for _, n := range t.nodes {
		n.tree = nil
	}
	t.nodes = make(map[NodeID]*Node)
	t.byName = make(map[string]NodeID)
	t.order = nil
	t.links = nil
}

// Links returns a copy of the tree's links in creation order.
func (t *Tree) Links() []Link { return slices.Clone(t.links) }

// Connect links output socket out of from to input socket in of to.
// An input accepts a single link; an existing link into the same input
// is replaced.
func (t *Tree) Connect(from *Node, out int, to *Node, in int) (Link, error) {
	if from == nil || to == nil || from.tree != t || to.tree != t {
		return Link{}, ErrForeignNode
	}
	if out < 0 || out >= len(from.outputs) {
		return Link{}, fmt.Errorf("%w: %s output %d", ErrSocketOutOfRange, from.name, out)
	}
	if in < 0 || in >= len(to.inputs) {
		return Link{}, fmt.Errorf("%w: %s input %d", ErrSocketOutOfRange, to.name, in)
	}
	l := Link{From: from.id, FromSocket: out, To: to.id, ToSocket: in}
	t.links = slices.DeleteFunc(t.links, func(x Link) bool { return x.To == to.id && x.ToSocket == in })
	t.links = append(t.links, l)
	return l, nil
}

// Interface returns a copy of the tree's group interface.
func (t *Tree) Interface() Interface {
	return Interface{
		Inputs:  slices.Clone(t.iface.Inputs),
		Outputs: slices.Clone(t.iface.Outputs),
	}
}

// SetInterface replaces the tree's group interface and resynchronizes the
// sockets of every node that mirrors it: the tree's own group input and
// output nodes, and group nodes anywhere in the library bound to the tree.
func (t *Tree) SetInterface(iface Interface) {
	t.iface = Interface{
		Inputs:  slices.Clone(iface.Inputs),
		Outputs: slices.Clone(iface.Outputs),
	}
	if t.lib == nil {
		return
	}
	for _, other := range t.lib.trees {
		for _, n := range other.nodes {
			if n.mirrors(t) {
				n.syncSockets()
			}
		}
	}
}

// pruneLinks drops links whose socket indices no longer exist on n.
func (t *Tree) pruneLinks(n *Node) {
	t.links = slices.DeleteFunc(t.links, func(l Link) bool {
		return (l.From == n.id && l.FromSocket >= len(n.outputs)) ||
			(l.To == n.id && l.ToSocket >= len(n.inputs))
	})
}
