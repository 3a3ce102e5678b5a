package nodegraph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownProperty is returned by [Node.Get] and [Node.Set] for a key
	// the node type does not declare.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrKindMismatch is returned when a value's kind differs from the
	// property or field kind.
	ErrKindMismatch = errors.New("value kind mismatch")

	// ErrInvalidValue is returned when a value has the right kind but is
	// outside the allowed set (enum members, vector length, counts).
	ErrInvalidValue = errors.New("invalid value")

	// ErrReadOnly is returned when assigning a computed or opaque property.
	ErrReadOnly = errors.New("property is read-only")

	// ErrParentCycle is returned by [Node.SetParent] when the assignment
	// would make a node its own ancestor.
	ErrParentCycle = errors.New("parent cycle")

	// ErrTreeKindMismatch is returned when binding a tree of the wrong graph
	// kind, or a tree to a node inside that same tree.
	ErrTreeKindMismatch = errors.New("tree cannot be bound here")
)

// Node is a typed vertex of a [Tree]. Property values are read and written
// by key through [Node.Get] and [Node.Set]; the node type's schema decides
// which keys exist and which kind each one holds.
type Node struct {
	id     NodeID
	name   string
	typ    *NodeType
	tree   *Tree
	props  map[string]Value
	trees  map[string]TreeID
	refs   map[string]NodeID
	parent NodeID

	inputs  []*Socket
	outputs []*Socket
}

// ID returns the node's tree-unique id.
func (n *Node) ID() NodeID { return n.id }

// Name returns the node's tree-unique name.
func (n *Node) Name() string { return n.name }

// Type returns the node type id.
func (n *Node) Type() string { return n.typ.ID }

// NodeType returns the node's schema.
func (n *Node) NodeType() *NodeType { return n.typ }

// Tree returns the owning tree, or nil once the node was removed.
func (n *Node) Tree() *Tree { return n.tree }

// Inputs returns the node's input sockets in index order.
func (n *Node) Inputs() []*Socket { return n.inputs }

// Outputs returns the node's output sockets in index order.
func (n *Node) Outputs() []*Socket { return n.outputs }

// Get returns the current value of a property.
func (n *Node) Get(key string) (Value, error) {
	spec, ok := n.typ.Property(key)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, n.typ.ID, key)
	}

	switch key {
	case KeyGroupInput:
		return flattenInterface(n.tree.iface.Inputs), nil
	case KeyGroupOutput:
		return flattenInterface(n.tree.iface.Outputs), nil
	case KeyInputCount:
		return Int(int64(len(n.inputs))), nil
	case KeyDimensions:
		w, _ := n.Get(KeyWidth)
		return Vector(w.Float, float64(100+22*max(len(n.inputs), len(n.outputs)))), nil
	case KeyParent:
		if p, ok := n.Parent(); ok {
			return NodeRef(p.name), nil
		}
		return Value{Kind: KindNode}, nil
	}

	switch spec.Kind {
	case KindTree:
		if id, ok := n.trees[key]; ok && n.tree != nil && n.tree.lib != nil {
			if t, ok := n.tree.lib.trees[id]; ok {
				return TreeRef(t.name), nil
			}
		}
		return Value{Kind: KindTree}, nil
	case KindNode:
		if id, ok := n.refs[key]; ok && n.tree != nil {
			if other, ok := n.tree.nodes[id]; ok {
				return NodeRef(other.name), nil
			}
		}
		return Value{Kind: KindNode}, nil
	}

	if v, ok := n.props[key]; ok {
		return v.Clone(), nil
	}
	return spec.Default.Clone(), nil
}

// Set assigns a property. The value kind must match the property kind
// exactly; callers that hold loosely typed data coerce it first. Reference
// values name their target: a tree in the library, a node in the same tree,
// or an already loaded asset. A reference with an empty name clears it.
func (n *Node) Set(key string, v Value) error {
	spec, ok := n.typ.Property(key)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, n.typ.ID, key)
	}
	if spec.ReadOnly || spec.Kind == KindOpaque {
		return fmt.Errorf("%w: %s", ErrReadOnly, key)
	}
	if v.Kind != spec.Kind {
		return fmt.Errorf("%w: %s wants %s, got %s", ErrKindMismatch, key, spec.Kind, v.Kind)
	}

	switch key {
	case KeyGroupInput, KeyGroupOutput:
		sockets, err := unflattenInterface(v.Strs)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		iface := n.tree.Interface()
		if key == KeyGroupInput {
			iface.Inputs = sockets
		} else {
			iface.Outputs = sockets
		}
		n.tree.SetInterface(iface)
		return nil
	case KeyInputCount:
		return n.setInputCount(int(v.Int))
	case KeyParent:
		if v.IsNone() {
			return n.SetParent(nil)
		}
		p, ok := n.tree.Node(v.Str)
		if !ok {
			return fmt.Errorf("%w: parent %q", ErrForeignNode, v.Str)
		}
		return n.SetParent(p)
	}

	switch spec.Kind {
	case KindTree:
		if v.IsNone() {
			return n.SetTree(key, nil)
		}
		t, ok := n.tree.lib.Tree(v.Str)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTree, v.Str)
		}
		return n.SetTree(key, t)
	case KindNode:
		if v.IsNone() {
			return n.SetNodeRef(key, nil)
		}
		other, ok := n.tree.Node(v.Str)
		if !ok {
			return fmt.Errorf("%w: %q", ErrForeignNode, v.Str)
		}
		return n.SetNodeRef(key, other)
	case KindAsset:
		if !v.IsNone() {
			if _, ok := n.tree.lib.Asset(spec.Asset, v.Str); !ok {
				return fmt.Errorf("%w: %s %q", ErrUnknownAsset, spec.Asset, v.Str)
			}
		}
	case KindString:
		if !spec.hasEnum(v.Str) {
			return fmt.Errorf("%w: %s must be one of %v, got %q", ErrInvalidValue, key, spec.Enum, v.Str)
		}
	case KindVector:
		if want := len(spec.Default.Vec); want > 0 && len(v.Vec) != want {
			return fmt.Errorf("%w: %s wants %d components, got %d", ErrInvalidValue, key, want, len(v.Vec))
		}
	case KindCurve:
		if v.Curve == nil {
			return fmt.Errorf("%w: %s: empty curve mapping", ErrInvalidValue, key)
		}
	case KindRamp:
		if v.Ramp == nil || len(v.Ramp.Stops) == 0 {
			return fmt.Errorf("%w: %s: color ramp needs at least one stop", ErrInvalidValue, key)
		}
	}

	n.props[key] = v.Clone()
	return nil
}

// Tree references

// SetTree binds a tree-reference property. A nil tree clears the binding.
// Group nodes resynchronize their sockets with the bound tree's interface.
func (n *Node) SetTree(key string, t *Tree) error {
	spec, ok := n.typ.Property(key)
	if !ok || spec.Kind != KindTree {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, n.typ.ID, key)
	}
	if t == nil {
		delete(n.trees, key)
		n.syncSockets()
		return nil
	}
	if t.lib != n.tree.lib {
		return fmt.Errorf("%w: %s", ErrUnknownTree, t.name)
	}
	if t == n.tree || (spec.TreeKind != "" && t.kind != spec.TreeKind) {
		return fmt.Errorf("%w: %s into %s", ErrTreeKindMismatch, t.name, n.tree.name)
	}
	n.trees[key] = t.id
	n.syncSockets()
	return nil
}

// Subtrees returns every tree bound by this node, in schema order. Any
// node kind may own sub-trees; callers must not assume a group node type.
func (n *Node) Subtrees() []*Tree {
	if n.tree == nil || n.tree.lib == nil {
		return nil
	}
	var out []*Tree
	for _, spec := range n.typ.properties {
		if spec.Kind != KindTree {
			continue
		}
		if id, ok := n.trees[spec.Key]; ok {
			if t, ok := n.tree.lib.trees[id]; ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// Node references

// SetNodeRef assigns a node-reference property other than the parent.
func (n *Node) SetNodeRef(key string, other *Node) error {
	if key == KeyParent {
		return n.SetParent(other)
	}
	spec, ok := n.typ.Property(key)
	if !ok || spec.Kind != KindNode {
		return fmt.Errorf("%w: %s.%s", ErrUnknownProperty, n.typ.ID, key)
	}
	if other == nil {
		delete(n.refs, key)
		return nil
	}
	if other.tree != n.tree {
		return ErrForeignNode
	}
	n.refs[key] = other.id
	return nil
}

// Parent returns the node's frame parent.
func (n *Node) Parent() (*Node, bool) {
	if n.parent == 0 || n.tree == nil {
		return nil, false
	}
	p, ok := n.tree.nodes[n.parent]
	return p, ok
}

// SetParent nests n inside p, or unparents it when p is nil.
//
// The node keeps its editor-space position, so its parent-relative
// location changes by the difference of the old and new parent positions.
// Restoring code that holds a parent-relative location must reassign it
// afterwards with [Node.SetLocation].
func (n *Node) SetParent(p *Node) error {
	abs := n.AbsLocation()
	if p == nil {
		n.parent = 0
		n.props[KeyLocation] = Vector(abs...)
		return nil
	}
	if p.tree != n.tree || n.tree == nil {
		return ErrForeignNode
	}
	for cur := p; cur != nil; {
		if cur == n {
			return fmt.Errorf("%w: %s under %s", ErrParentCycle, n.name, p.name)
		}
		cur, _ = cur.Parent()
	}
	n.parent = p.id
	n.props[KeyLocation] = Vector(subVec(abs, p.AbsLocation())...)
	return nil
}

// Location

// Location returns the parent-relative position.
func (n *Node) Location() []float64 {
	v, _ := n.Get(KeyLocation)
	return v.Vec
}

// AbsLocation returns the editor-space position: the node's location plus
// the absolute location of its parent chain.
func (n *Node) AbsLocation() []float64 {
	loc := n.Location()
	if p, ok := n.Parent(); ok {
		return addVec(loc, p.AbsLocation())
	}
	return loc
}

// SetLocation places the node at an editor-space position.
func (n *Node) SetLocation(abs []float64) error {
	local := abs
	if p, ok := n.Parent(); ok {
		local = subVec(abs, p.AbsLocation())
	}
	return n.Set(KeyLocation, Vector(local...))
}

// Socket management

// mirrors reports whether n's sockets follow t's interface.
func (n *Node) mirrors(t *Tree) bool {
	if n.typ.Interface != "" {
		return n.tree == t
	}
	if n.typ.Group {
		for _, id := range n.trees {
			if id == t.id {
				return true
			}
		}
	}
	return false
}

// syncSockets rebuilds interface-driven socket lists.
func (n *Node) syncSockets() {
	if n.tree == nil {
		return
	}
	lib := n.tree.lib
	switch {
	case n.typ.Interface == InterfaceInputs:
		n.outputs = lib.buildSockets(interfaceSpecs(n.tree.iface.Inputs), true, n.outputs)
	case n.typ.Interface == InterfaceOutputs:
		n.inputs = lib.buildSockets(interfaceSpecs(n.tree.iface.Outputs), false, n.inputs)
	case n.typ.Group:
		var iface Interface
		if bound := n.Subtrees(); len(bound) > 0 {
			iface = bound[0].iface
		}
		n.inputs = lib.buildSockets(interfaceSpecs(iface.Inputs), false, n.inputs)
		n.outputs = lib.buildSockets(interfaceSpecs(iface.Outputs), true, n.outputs)
	default:
		return
	}
	n.tree.pruneLinks(n)
}

func (n *Node) setInputCount(count int) error {
	if count < 0 || count > 1024 {
		return fmt.Errorf("%w: input count %d", ErrInvalidValue, count)
	}
	specs := slices.Clone(n.typ.Inputs)
	if len(specs) > count {
		specs = specs[:count]
	}
	for i := len(specs); i < count; i++ {
		specs = append(specs, SocketSpec{Name: fmt.Sprintf("Item %d", i+1), Type: n.typ.Variadic})
	}
	n.inputs = n.tree.lib.buildSockets(specs, false, n.inputs)
	n.tree.pruneLinks(n)
	return nil
}

func flattenInterface(sockets []InterfaceSocket) Value {
	flat := make([]string, 0, 2*len(sockets))
	for _, s := range sockets {
		flat = append(flat, s.Type, s.Name)
	}
	return Strings(flat...)
}

func unflattenInterface(flat []string) ([]InterfaceSocket, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("%w: interface list needs type/name pairs", ErrInvalidValue)
	}
	out := make([]InterfaceSocket, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		out = append(out, InterfaceSocket{Type: flat[i], Name: flat[i+1]})
	}
	return out, nil
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, max(len(a), len(b)))
	for i := range out {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] += b[i]
		}
	}
	return out
}

func subVec(a, b []float64) []float64 {
	out := make([]float64, max(len(a), len(b)))
	for i := range out {
		if i < len(a) {
			out[i] += a[i]
		}
		if i < len(b) {
			out[i] -= b[i]
		}
	}
	return out
}
