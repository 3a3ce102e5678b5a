package codec

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

// CaptureSockets records the value fields of every socket that carries one.
// Routing-only sockets produce no record.
func CaptureSockets(sockets []*nodegraph.Socket) []document.SocketRecord {
	var out []document.SocketRecord
	for _, s := range sockets {
		if !s.HasValue() {
			continue
		}
		values := make(map[string]nodegraph.Value, len(s.Fields()))
		for _, f := range s.Fields() {
			if v, ok := s.Field(f.Name); ok && !v.IsNone() {
				values[f.Name] = roundValue(v)
			}
		}
		if len(values) == 0 {
			continue
		}
		out = append(out, document.SocketRecord{Index: s.Index, Type: s.Type, Values: values})
	}
	return out
}

// RestoreSockets applies recorded socket values by index. Sockets are
// matched by position only; a record whose index is out of range or whose
// values do not fit the live socket is reported and skipped.
func RestoreSockets(n *nodegraph.Node, inputs, outputs []document.SocketRecord, group string) []errors.Warning {
	var warnings []errors.Warning
	apply := func(side string, live []*nodegraph.Socket, records []document.SocketRecord) {
		for _, rec := range records {
			key := fmt.Sprintf("%s[%d]", side, rec.Index)
			if rec.Index < 0 || rec.Index >= len(live) {
				warnings = append(warnings, errors.Warning{
					Code: errors.WarnSocketRejected, Group: group, Node: n.Name(), Key: key,
					Message: fmt.Sprintf("node has %d %s", len(live), side),
				})
				continue
			}
			s := live[rec.Index]
			for _, name := range slices.Sorted(maps.Keys(rec.Values)) {
				if err := setField(s, name, rec.Values[name]); err != nil {
					warnings = append(warnings, errors.Warning{
						Code: errors.WarnSocketRejected, Group: group, Node: n.Name(), Key: key + "." + name,
						Message: err.Error(),
					})
				}
			}
		}
	}
	apply("inputs", n.Inputs(), inputs)
	apply("outputs", n.Outputs(), outputs)
	return warnings
}

func setField(s *nodegraph.Socket, name string, v nodegraph.Value) error {
	for _, f := range s.Fields() {
		if f.Name != name {
			continue
		}
		coerced, err := Coerce(f.Kind, v)
		if err != nil {
			return err
		}
		return s.SetField(name, coerced)
	}
	return fmt.Errorf("%w: %s on %s", nodegraph.ErrUnknownField, name, s.Type)
}

// CaptureNode records one node. Group interface nodes carry no socket
// records: their sockets are rebuilt from the recorded interface.
func CaptureNode(n *nodegraph.Node, deps DependencySink) (document.NodeRecord, []errors.Warning) {
	attrs, warnings := CaptureAttributes(n, deps)
	rec := document.NodeRecord{
		Name:       n.Name(),
		Type:       n.Type(),
		Attributes: attrs,
	}
	if n.NodeType().Interface == "" {
		rec.Inputs = CaptureSockets(n.Inputs())
		rec.Outputs = CaptureSockets(n.Outputs())
	}
	return rec, warnings
}
