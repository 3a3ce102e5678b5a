package codec

import (
	"fmt"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

// EncodeLink turns a live link into a record addressed by node name.
func EncodeLink(t *nodegraph.Tree, l nodegraph.Link) (document.LinkRecord, error) {
	from, ok := t.NodeByID(l.From)
	if !ok {
		return document.LinkRecord{}, fmt.Errorf("%w: link source %d", nodegraph.ErrForeignNode, l.From)
	}
	to, ok := t.NodeByID(l.To)
	if !ok {
		return document.LinkRecord{}, fmt.Errorf("%w: link target %d", nodegraph.ErrForeignNode, l.To)
	}
	return document.LinkRecord{
		FromNode:   from.Name(),
		FromSocket: l.FromSocket,
		ToNode:     to.Name(),
		ToSocket:   l.ToSocket,
	}, nil
}

// CaptureLinks records every link of t in tree order.
func CaptureLinks(t *nodegraph.Tree) ([]document.LinkRecord, error) {
	links := t.Links()
	out := make([]document.LinkRecord, 0, len(links))
	for _, l := range links {
		rec, err := EncodeLink(t, l)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// DecodeLink resolves both endpoints of rec in scope, a table of the nodes
// created for one group keyed by recorded name. A record whose endpoints
// are not both in scope is rejected; it is never wired to a node of
// another group.
func DecodeLink(rec document.LinkRecord, scope map[string]*nodegraph.Node) (from, to *nodegraph.Node, ok bool) {
	from, ok = scope[rec.FromNode]
	if !ok {
		return nil, nil, false
	}
	to, ok = scope[rec.ToNode]
	if !ok {
		return nil, nil, false
	}
	if from.Tree() == nil || from.Tree() != to.Tree() {
		return nil, nil, false
	}
	return from, to, true
}
