package nodegraph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidName is returned when a tree or node name is empty.
	ErrInvalidName = errors.New("name must not be empty")

	// ErrUnknownTree is returned when a tree reference names no tree in the
	// library, or when a tree id is stale.
	ErrUnknownTree = errors.New("unknown tree")

	// ErrUnknownAsset is returned when an asset reference names no loaded asset.
	ErrUnknownAsset = errors.New("unknown asset")

	// ErrTreeInUse is returned by [Library.RemoveTree] when group nodes still
	// reference the tree.
	ErrTreeInUse = errors.New("tree still has users")
)

// TreeID identifies a tree within its [Library]. IDs are never reused.
type TreeID uint64

// AssetKey identifies an external asset by kind and name.
type AssetKey struct {
	Kind string
	Name string
}

// Asset is an external resource (image, text block, font) loaded into the
// library. Path is where it was loaded from.
type Asset struct {
	Kind string
	Name string
	Path string
}

// Library owns every tree and asset of one editing session. Group nodes
// reference trees of the same library; nodes reference assets by key.
//
// The zero value is not usable; create libraries with [NewLibrary].
// A Library and everything it owns are not safe for concurrent use.
type Library struct {
	catalog *Catalog
	trees   map[TreeID]*Tree
	byName  map[string]TreeID
	order   []TreeID
	assets  map[AssetKey]*Asset
	nextID  TreeID
}

// NewLibrary creates an empty library using the given catalog. A nil
// catalog selects [DefaultCatalog].
func NewLibrary(c *Catalog) *Library {
	if c == nil {
		c = DefaultCatalog()
	}
	return &Library{
		catalog: c,
		trees:   make(map[TreeID]*Tree),
		byName:  make(map[string]TreeID),
		assets:  make(map[AssetKey]*Asset),
	}
}

// Catalog returns the node type registry used by this library.
func (l *Library) Catalog() *Catalog { return l.catalog }

// NewTree creates a tree of the given graph kind ("shader", "compositing",
// ...). If name is taken, a numeric suffix is appended (".001", ".002", ...),
// so the returned tree's Name may differ from the requested one.
func (l *Library) NewTree(name, kind string) (*Tree, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	l.nextID++
	t := &Tree{
		id:     l.nextID,
		name:   uniqueName(name, func(s string) bool { _, taken := l.byName[s]; return taken }),
		kind:   kind,
		lib:    l,
		nodes:  make(map[NodeID]*Node),
		byName: make(map[string]NodeID),
	}
	l.trees[t.id] = t
	l.byName[t.name] = t.id
	l.order = append(l.order, t.id)
	return t, nil
}

// Tree returns the tree with the given name.
func (l *Library) Tree(name string) (*Tree, bool) {
	id, ok := l.byName[name]
	if !ok {
		return nil, false
	}
	return l.trees[id], true
}

// TreeByID returns the tree with the given id.
func (l *Library) TreeByID(id TreeID) (*Tree, bool) {
	t, ok := l.trees[id]
	return t, ok
}

// Trees returns all trees in creation order.
func (l *Library) Trees() []*Tree {
	out := make([]*Tree, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.trees[id])
	}
	return out
}

// RenameTree renames t, suffixing the name if it is taken by another tree.
// References held by group nodes follow the rename.
func (l *Library) RenameTree(t *Tree, name string) error {
	if name == "" {
		return ErrInvalidName
	}
	if name == t.name {
		return nil
	}
	delete(l.byName, t.name)
	t.name = uniqueName(name, func(s string) bool { _, taken := l.byName[s]; return taken })
	l.byName[t.name] = t.id
	return nil
}

// Users counts the nodes, across all trees, that bind the given tree.
func (l *Library) Users(id TreeID) int {
	n := 0
	for _, t := range l.trees {
		for _, node := range t.nodes {
			for _, ref := range node.trees {
				if ref == id {
					n++
				}
			}
		}
	}
	return n
}

// RemoveTree deletes a tree that no node binds any more.
func (l *Library) RemoveTree(id TreeID) error {
	t, ok := l.trees[id]
	if !ok {
		return ErrUnknownTree
	}
	if l.Users(id) > 0 {
		return fmt.Errorf("%w: %s", ErrTreeInUse, t.name)
	}
	delete(l.trees, id)
	delete(l.byName, t.name)
	l.order = slices.DeleteFunc(l.order, func(x TreeID) bool { return x == id })
	t.lib = nil
	return nil
}

// AddAsset registers an asset. An existing asset with the same key is
// replaced.
func (l *Library) AddAsset(a Asset) {
	l.assets[AssetKey{Kind: a.Kind, Name: a.Name}] = &a
}

// Asset returns the asset registered under kind and name.
func (l *Library) Asset(kind, name string) (*Asset, bool) {
	a, ok := l.assets[AssetKey{Kind: kind, Name: name}]
	return a, ok
}

// Assets returns all registered assets ordered by kind, then name.
func (l *Library) Assets() []*Asset {
	out := make([]*Asset, 0, len(l.assets))
	for _, a := range l.assets {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *Asset) int {
		if c := strings.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// uniqueName returns name, or name with the lowest free ".NNN" suffix.
func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
