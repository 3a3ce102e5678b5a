package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

// Options configures DOT generation.
type Options struct {
	// Detailed lists every recorded attribute in the node labels.
	// When false, labels show the node name and type only.
	Detailed bool
	// IsTreeRef reports whether an attribute binds a group. Nil treats
	// the node_tree key as the only binding.
	IsTreeRef func(typeID, key string) bool
}

// ToDOT converts one group of a document to Graphviz DOT format. An empty
// group name selects "main". Nodes that other nodes name as parent become
// clusters holding their children; group nodes are highlighted and name
// the group they bind. Edges carry the socket indices as port labels.
func ToDOT(doc *document.Document, group string, opts Options) (string, error) {
	if group == "" {
		group = document.MainGroup
	}
	g, ok := doc.Groups[group]
	if !ok {
		return "", errors.New(errors.ErrCodeGroupNotFound, "document has no group %q", group)
	}
	isTreeRef := opts.IsTreeRef
	if isTreeRef == nil {
		isTreeRef = func(_, key string) bool { return key == "node_tree" }
	}

	known := make(map[string]bool, len(g.Nodes))
	children := make(map[string][]string)
	for _, n := range g.Nodes {
		known[n.Name] = true
	}
	var roots []string
	for _, n := range g.Nodes {
		if p := parentOf(n); p != "" && known[p] {
			children[p] = append(children[p], n.Name)
		} else {
			roots = append(roots, n.Name)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", group)
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=10, arrowsize=0.7];\n")
	buf.WriteString("\n")

	w := &dotWriter{buf: &buf, group: g, children: children, isTreeRef: isTreeRef, detailed: opts.Detailed}
	for _, name := range roots {
		w.write(name, 1)
	}

	buf.WriteString("\n")
	for _, l := range g.Links {
		if !known[l.FromNode] || !known[l.ToNode] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [taillabel=\"%d\", headlabel=\"%d\"];\n",
			l.FromNode, l.ToNode, l.FromSocket, l.ToSocket)
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

type dotWriter struct {
	buf       *bytes.Buffer
	group     *document.Group
	children  map[string][]string
	isTreeRef func(typeID, key string) bool
	detailed  bool
}

func (w *dotWriter) write(name string, depth int) {
	indent := strings.Repeat("  ", depth)
	n, _ := w.group.Node(name)
	kids := w.children[name]
	if len(kids) == 0 {
		fmt.Fprintf(w.buf, "%s%q [%s];\n", indent, name, strings.Join(w.attrs(n), ", "))
		return
	}

	fmt.Fprintf(w.buf, "%ssubgraph %q {\n", indent, "cluster_"+name)
	fmt.Fprintf(w.buf, "%s  label=%q;\n", indent, frameLabel(n))
	fmt.Fprintf(w.buf, "%s  style=\"rounded,dashed\";\n", indent)
	// The frame itself is drawn as a point so that links into it have an
	// anchor inside the cluster.
	fmt.Fprintf(w.buf, "%s  %q [shape=point, style=invis];\n", indent, name)
	for _, kid := range kids {
		w.write(kid, depth+1)
	}
	fmt.Fprintf(w.buf, "%s}\n", indent)
}

func (w *dotWriter) attrs(n *document.NodeRecord) []string {
	label := n.Name + "\n" + n.Type
	var bound string
	for _, a := range n.Attributes {
		if w.isTreeRef(n.Type, a.Key) && a.Value.Str != "" {
			bound = a.Value.Str
		}
	}
	if bound != "" {
		label += "\n→ " + bound
	}
	if w.detailed {
		for _, a := range n.Attributes {
			label += fmt.Sprintf("\n%s: %s", a.Key, a.Value)
		}
	}

	attrs := []string{fmt.Sprintf("label=%q", label)}
	if bound != "" {
		attrs = append(attrs, "fillcolor=\"#dbe8fb\"", "penwidth=2")
	}
	return attrs
}

func parentOf(n document.NodeRecord) string {
	v, ok := n.Attributes.Get(nodegraph.KeyParent)
	if !ok {
		return ""
	}
	return v.Str
}

func frameLabel(n *document.NodeRecord) string {
	if v, ok := n.Attributes.Get(nodegraph.KeyLabel); ok && v.Str != "" {
		return v.Str
	}
	return n.Name
}
