package nodegraph

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned by [Socket.SetField] for a field the
	// socket type does not declare.
	ErrUnknownField = errors.New("unknown socket field")
)

// Socket is one input or output of a node. Sockets are addressed by their
// index within the node's input or output list.
type Socket struct {
	Index    int
	Name     string
	Type     string
	IsOutput bool

	typ    *SocketType
	fields map[string]Value
}

// HasValue reports whether the socket type carries any value field.
func (s *Socket) HasValue() bool {
	return s.typ != nil && len(s.typ.Fields) > 0
}

// Fields returns the field specs of the socket type in declaration order.
func (s *Socket) Fields() []FieldSpec {
	if s.typ == nil {
		return nil
	}
	return s.typ.Fields
}

// Field returns the current value of a field.
func (s *Socket) Field(name string) (Value, bool) {
	v, ok := s.fields[name]
	if !ok {
		return Value{}, false
	}
	return v.Clone(), true
}

// SetField assigns a field value. The value kind must match the field kind.
func (s *Socket) SetField(name string, v Value) error {
	if s.typ == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	spec, ok := s.typ.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if v.Kind != spec.Kind {
		return fmt.Errorf("%w: field %s wants %s, got %s", ErrKindMismatch, name, spec.Kind, v.Kind)
	}
	if spec.Kind == KindVector && len(spec.Default.Vec) > 0 && len(v.Vec) != len(spec.Default.Vec) {
		return fmt.Errorf("%w: field %s wants %d components, got %d", ErrInvalidValue, name, len(spec.Default.Vec), len(v.Vec))
	}
	s.fields[name] = v.Clone()
	return nil
}

// buildSockets creates sockets from specs. Sockets in keep are reused at
// the same index when their type matches, so field values survive a
// resynchronization.
func (l *Library) buildSockets(specs []SocketSpec, output bool, keep []*Socket) []*Socket {
	out := make([]*Socket, 0, len(specs))
	for i, spec := range specs {
		if i < len(keep) && keep[i].Type == spec.Type {
			s := keep[i]
			s.Name = spec.Name
			out = append(out, s)
			continue
		}
		st, _ := l.catalog.SocketType(spec.Type)
		s := &Socket{
			Index:    i,
			Name:     spec.Name,
			Type:     spec.Type,
			IsOutput: output,
			typ:      st,
			fields:   make(map[string]Value),
		}
		if st != nil {
			for _, f := range st.Fields {
				s.fields[f.Name] = socketDefault(st, f, spec)
			}
		}
		out = append(out, s)
	}
	return out
}

func interfaceSpecs(sockets []InterfaceSocket) []SocketSpec {
	specs := make([]SocketSpec, len(sockets))
	for i, s := range sockets {
		specs[i] = SocketSpec{Name: s.Name, Type: s.Type}
	}
	return specs
}
