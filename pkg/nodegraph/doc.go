// Package nodegraph models the live node graphs that nodeio captures and
// restores.
//
// # Overview
//
// A [Library] is the editing session: it owns every [Tree] and every loaded
// [Asset]. A tree is a flat graph of typed [Node] values joined by [Link]s
// between indexed sockets. Nesting happens through tree-reference
// properties: a group node binds another tree of the same library, and that
// tree may bind further trees. Names are unique per scope (tree names per
// library, node names per tree) and the arena hands out stable ids that
// are never reused.
//
// # Schema
//
// Node types come from a [Catalog]. Each type lists an ordered property
// schema, its declared sockets, and behaviour flags:
//
//   - group: the node's sockets mirror the bound tree's [Interface]
//   - interface: group input/output nodes that expose their own tree's interface
//   - variadic: the number of inputs is itself a property
//
// Every type inherits the base properties location, width, label, hide,
// mute, select, parent and dimensions. Catalogs are TOML documents; the
// builtin one is embedded and add-on catalogs can be merged on top:
//
//	cat := nodegraph.DefaultCatalog()
//	addon, err := nodegraph.LoadCatalogFile("addon.toml")
//	if err != nil {
//	    return err
//	}
//	cat.Merge(addon)
//
// # Values
//
// Properties hold a [Value], a tagged union over the categories listed by
// [Kind]. [Node.Set] is strict: the value kind must match the schema and
// reference values must name something that exists. Coercion of loosely
// typed document data happens in the codec layer, not here.
//
// # Positions
//
// A node's location is relative to its frame parent. [Node.SetParent] keeps
// the editor-space position, so attaching a parent moves the stored
// location; code that replays a recorded parent-relative location must set
// it again after the parent is attached.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use. A library is meant to
// be driven by one caller at a time.
package nodegraph
