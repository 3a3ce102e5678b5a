package document

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

type wireDocument struct {
	Header wireHeader           `json:"header"`
	Groups map[string]wireGroup `json:"groups"`
}

type wireHeader struct {
	Version      int          `json:"version"`
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	GraphKind    string       `json:"graph_kind"`
	PathMode     string       `json:"path_mode"`
	Dependencies []Dependency `json:"dependencies"`
	GroupOrder   []string     `json:"group_order"`
	NodeCount    int          `json:"node_count"`
	Created      time.Time    `json:"created"`
	Generator    string       `json:"generator,omitempty"`
}

type wireGroup struct {
	Nodes []wireNode   `json:"nodes"`
	Links []LinkRecord `json:"links"`
}

type wireNode struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Inputs     []wireSocket      `json:"inputs,omitempty"`
	Outputs    []wireSocket      `json:"outputs,omitempty"`
	Attributes []json.RawMessage `json:"attributes"`
}

type wireSocket struct {
	Index  int                        `json:"index"`
	Type   string                     `json:"type"`
	Values map[string]json.RawMessage `json:"values"`
}

// MarshalJSON encodes a dependency as [kind, name, path].
func (d Dependency) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{d.Kind, d.Name, d.Path})
}

// UnmarshalJSON decodes a [kind, name, path] triple.
func (d *Dependency) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("dependency: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("dependency needs [kind, name, path], got %d items", len(raw))
	}
	d.Kind, d.Name, d.Path = raw[0], raw[1], raw[2]
	return nil
}

// MarshalJSON encodes a link as [from_node, from_socket, to_node, to_socket].
func (l LinkRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{l.FromNode, l.FromSocket, l.ToNode, l.ToSocket})
}

// UnmarshalJSON decodes a [from_node, from_socket, to_node, to_socket] tuple.
func (l *LinkRecord) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	if len(raw) != 4 {
		return fmt.Errorf("link needs 4 items, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &l.FromNode); err != nil {
		return fmt.Errorf("link from node: %w", err)
	}
	if err := json.Unmarshal(raw[1], &l.FromSocket); err != nil {
		return fmt.Errorf("link from socket: %w", err)
	}
	if err := json.Unmarshal(raw[2], &l.ToNode); err != nil {
		return fmt.Errorf("link to node: %w", err)
	}
	if err := json.Unmarshal(raw[3], &l.ToSocket); err != nil {
		return fmt.Errorf("link to socket: %w", err)
	}
	return nil
}

// WriteJSON encodes a document and writes it to w. With indent set the
// output is indented by two spaces.
//
// Attributes are written as a flat [key, value, key, value, ...] list in
// capture order. Floats always carry a decimal point so that integer and
// float values survive a round-trip.
func WriteJSON(d *Document, w io.Writer, indent bool) error {
	out := wireDocument{
		Header: wireHeader{
			Version:      d.Header.Version,
			ID:           d.Header.ID,
			Name:         d.Header.Name,
			GraphKind:    d.Header.GraphKind,
			PathMode:     d.Header.PathMode,
			Dependencies: d.Header.Dependencies,
			GroupOrder:   d.Header.GroupOrder,
			NodeCount:    d.Header.NodeCount,
			Created:      d.Header.Created,
			Generator:    d.Header.Generator,
		},
		Groups: make(map[string]wireGroup, len(d.Groups)),
	}
	if out.Header.Dependencies == nil {
		out.Header.Dependencies = []Dependency{}
	}

	for name, g := range d.Groups {
		wg := wireGroup{Nodes: make([]wireNode, len(g.Nodes)), Links: g.Links}
		if wg.Links == nil {
			wg.Links = []LinkRecord{}
		}
		for i, n := range g.Nodes {
			wn, err := encodeNode(n)
			if err != nil {
				return fmt.Errorf("encode %s/%s: %w", name, n.Name, err)
			}
			wg.Nodes[i] = wn
		}
		out.Groups[name] = wg
	}

	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func encodeNode(n NodeRecord) (wireNode, error) {
	wn := wireNode{Name: n.Name, Type: n.Type, Attributes: make([]json.RawMessage, 0, 2*len(n.Attributes))}
	for _, attr := range n.Attributes {
		key, _ := json.Marshal(attr.Key)
		v, err := encodeValue(attr.Value)
		if err != nil {
			return wn, fmt.Errorf("attribute %s: %w", attr.Key, err)
		}
		val, err := json.Marshal(v)
		if err != nil {
			return wn, fmt.Errorf("attribute %s: %w", attr.Key, err)
		}
		wn.Attributes = append(wn.Attributes, key, val)
	}

	var err error
	if wn.Inputs, err = encodeSockets(n.Inputs); err != nil {
		return wn, fmt.Errorf("inputs: %w", err)
	}
	if wn.Outputs, err = encodeSockets(n.Outputs); err != nil {
		return wn, fmt.Errorf("outputs: %w", err)
	}
	return wn, nil
}

func encodeSockets(records []SocketRecord) ([]wireSocket, error) {
	if len(records) == 0 {
		return nil, nil
	}
	out := make([]wireSocket, len(records))
	for i, r := range records {
		ws := wireSocket{Index: r.Index, Type: r.Type, Values: make(map[string]json.RawMessage, len(r.Values))}
		for field, v := range r.Values {
			enc, err := encodeValue(v)
			if err != nil {
				return nil, fmt.Errorf("socket %d field %s: %w", r.Index, field, err)
			}
			b, err := json.Marshal(enc)
			if err != nil {
				return nil, fmt.Errorf("socket %d field %s: %w", r.Index, field, err)
			}
			ws.Values[field] = b
		}
		out[i] = ws
	}
	return out, nil
}

// ReadJSON decodes a document from r.
//
// The input must be a JSON object with "header" and "groups" members:
//
//	{
//	  "header": {"version": 1, "group_order": ["main"], ...},
//	  "groups": {
//	    "main": {
//	      "nodes": [{"name": "A", "type": "Input", "attributes": ["location", [0.0, 0.0]]}],
//	      "links": [["A", 0, "B", 0]]
//	    }
//	  }
//	}
//
// ReadJSON only checks the shape of the data. Use [Validate] to check the
// structural invariants. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*Document, error) {
	var data wireDocument
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	d := &Document{
		Header: Header{
			Version:      data.Header.Version,
			ID:           data.Header.ID,
			Name:         data.Header.Name,
			GraphKind:    data.Header.GraphKind,
			PathMode:     data.Header.PathMode,
			Dependencies: data.Header.Dependencies,
			GroupOrder:   data.Header.GroupOrder,
			NodeCount:    data.Header.NodeCount,
			Created:      data.Header.Created,
			Generator:    data.Header.Generator,
		},
		Groups: make(map[string]*Group, len(data.Groups)),
	}

	for name, wg := range data.Groups {
		g := &Group{Nodes: make([]NodeRecord, len(wg.Nodes)), Links: wg.Links}
		for i, wn := range wg.Nodes {
			n, err := decodeNode(wn)
			if err != nil {
				return nil, fmt.Errorf("group %s node %s: %w", name, wn.Name, err)
			}
			g.Nodes[i] = n
		}
		d.Groups[name] = g
	}
	return d, nil
}

func decodeNode(wn wireNode) (NodeRecord, error) {
	n := NodeRecord{Name: wn.Name, Type: wn.Type}
	if len(wn.Attributes)%2 != 0 {
		return n, fmt.Errorf("attribute list has odd length %d", len(wn.Attributes))
	}
	n.Attributes = make(nodegraph.Attributes, 0, len(wn.Attributes)/2)
	for i := 0; i < len(wn.Attributes); i += 2 {
		var key string
		if err := json.Unmarshal(wn.Attributes[i], &key); err != nil {
			return n, fmt.Errorf("attribute key %d: %w", i/2, err)
		}
		v, err := decodeValue(wn.Attributes[i+1])
		if err != nil {
			return n, fmt.Errorf("attribute %s: %w", key, err)
		}
		n.Attributes = append(n.Attributes, nodegraph.Attribute{Key: key, Value: v})
	}

	var err error
	if n.Inputs, err = decodeSockets(wn.Inputs); err != nil {
		return n, fmt.Errorf("inputs: %w", err)
	}
	if n.Outputs, err = decodeSockets(wn.Outputs); err != nil {
		return n, fmt.Errorf("outputs: %w", err)
	}
	return n, nil
}

func decodeSockets(ws []wireSocket) ([]SocketRecord, error) {
	if len(ws) == 0 {
		return nil, nil
	}
	out := make([]SocketRecord, len(ws))
	for i, s := range ws {
		r := SocketRecord{Index: s.Index, Type: s.Type, Values: make(map[string]nodegraph.Value, len(s.Values))}
		for field, raw := range s.Values {
			v, err := decodeValue(raw)
			if err != nil {
				return nil, fmt.Errorf("socket %d field %s: %w", s.Index, field, err)
			}
			r.Values[field] = v
		}
		out[i] = r
	}
	return out, nil
}
