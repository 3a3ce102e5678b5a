package nodegraph

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/BurntSushi/toml"
)

//go:embed builtin.toml
var builtinCatalog []byte

// Derived property keys. These are synthesized from node type flags rather
// than declared in catalog files, and they allocate sockets, so restore
// applies them before any other attribute.
const (
	KeyGroupInput  = "group_input"
	KeyGroupOutput = "group_output"
	KeyInputCount  = "input_count"
)

// Base property keys carried by every node type.
const (
	KeyLocation   = "location"
	KeyWidth      = "width"
	KeyLabel      = "label"
	KeyHide       = "hide"
	KeyMute       = "mute"
	KeySelect     = "select"
	KeyParent     = "parent"
	KeyDimensions = "dimensions"
)

// Interface node roles.
const (
	InterfaceInputs  = "inputs"
	InterfaceOutputs = "outputs"
)

var (
	// ErrInvalidCatalog is returned when a catalog file is malformed.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// PropertySpec describes one property of a node type.
type PropertySpec struct {
	Key      string   `toml:"key"`
	Kind     Kind     `toml:"kind"`
	Asset    string   `toml:"asset"`     // asset kind for KindAsset properties
	TreeKind string   `toml:"tree_kind"` // required tree kind for KindTree properties
	Enum     []string `toml:"enum"`      // allowed values for KindString properties
	Curves   int      `toml:"curves"`    // channel count of a default KindCurve value
	ReadOnly bool     `toml:"readonly"`
	Derived  bool     `toml:"-"`
	Default  Value    `toml:"-"`

	RawDefault any `toml:"default"`
}

// Structural reports whether the property allocates sockets or binds
// another tree. Structural properties are restored before the rest.
func (p PropertySpec) Structural() bool {
	return p.Derived || p.Kind == KindTree
}

// SocketSpec describes one declared socket of a node type.
type SocketSpec struct {
	Name       string `toml:"name"`
	Type       string `toml:"type"`
	RawDefault any    `toml:"default"`
}

// FieldSpec describes one value field of a socket type.
type FieldSpec struct {
	Name       string `toml:"name"`
	Kind       Kind   `toml:"kind"`
	RawDefault any    `toml:"default"`
	Default    Value  `toml:"-"`
}

// SocketType is a registered socket type. A socket type without fields
// carries no value (shader and virtual sockets) and is never recorded.
type SocketType struct {
	ID     string      `toml:"id"`
	Fields []FieldSpec `toml:"fields"`
}

// Field returns the named field spec.
func (s *SocketType) Field(name string) (FieldSpec, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// NodeType is a registered node type and its property schema.
type NodeType struct {
	ID         string         `toml:"id"`
	Label      string         `toml:"label"`
	Category   string         `toml:"category"`
	Group      bool           `toml:"group"`     // sockets follow the bound tree's interface
	Interface  string         `toml:"interface"` // "inputs" or "outputs" for group I/O nodes
	Variadic   string         `toml:"variadic"`  // socket type of a resizable input list
	Declared   []PropertySpec `toml:"properties"`
	Inputs     []SocketSpec   `toml:"inputs"`
	Outputs    []SocketSpec   `toml:"outputs"`
	properties []PropertySpec
}

// Properties returns the full ordered schema: base properties, then
// declared properties, then derived properties.
func (t *NodeType) Properties() []PropertySpec { return t.properties }

// Property returns the spec for key.
func (t *NodeType) Property(key string) (PropertySpec, bool) {
	for _, p := range t.properties {
		if p.Key == key {
			return p, true
		}
	}
	return PropertySpec{}, false
}

// Catalog is the registry of node and socket types a host offers.
// Capture and restore consult it as the per-node-type schema.
type Catalog struct {
	nodes   map[string]*NodeType
	sockets map[string]*SocketType
}

type catalogFile struct {
	Sockets []*SocketType `toml:"socket"`
	Nodes   []*NodeType   `toml:"node"`
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		nodes:   make(map[string]*NodeType),
		sockets: make(map[string]*SocketType),
	}
}

// DefaultCatalog returns a fresh copy of the builtin catalog.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(builtinCatalog)
	if err != nil {
		panic(fmt.Sprintf("builtin catalog: %v", err))
	}
	return c
}

// LoadCatalogFile parses a TOML catalog file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog parses catalog TOML. Socket types referenced by node types
// do not have to be defined in the same file; unknown socket types are
// treated as carrying no value.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown key %q", ErrInvalidCatalog, undecoded[0].String())
	}

	c := NewCatalog()
	for _, s := range f.Sockets {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: socket type without id", ErrInvalidCatalog)
		}
		if _, dup := c.sockets[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate socket type %q", ErrInvalidCatalog, s.ID)
		}
		for i := range s.Fields {
			fs := &s.Fields[i]
			v, err := defaultValue(fs.Kind, fs.RawDefault, 0)
			if err != nil {
				return nil, fmt.Errorf("%w: socket %s field %s: %v", ErrInvalidCatalog, s.ID, fs.Name, err)
			}
			fs.Default = v
		}
		c.sockets[s.ID] = s
	}

	for _, n := range f.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node type without id", ErrInvalidCatalog)
		}
		if _, dup := c.nodes[n.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node type %q", ErrInvalidCatalog, n.ID)
		}
		if err := n.build(); err != nil {
			return nil, fmt.Errorf("%w: node %s: %v", ErrInvalidCatalog, n.ID, err)
		}
		c.nodes[n.ID] = n
	}
	return c, nil
}

func (t *NodeType) build() error {
	if t.Label == "" {
		t.Label = t.ID
	}
	switch t.Interface {
	case "", InterfaceInputs, InterfaceOutputs:
	default:
		return fmt.Errorf("interface must be %q or %q", InterfaceInputs, InterfaceOutputs)
	}

	props := baseProperties()
	seen := make(map[string]bool, len(props)+len(t.Declared))
	for _, p := range props {
		seen[p.Key] = true
	}
	for _, p := range t.Declared {
		if p.Key == "" {
			return errors.New("property without key")
		}
		if seen[p.Key] {
			return fmt.Errorf("duplicate property %q", p.Key)
		}
		seen[p.Key] = true
		if p.Kind == KindAsset && p.Asset == "" {
			return fmt.Errorf("property %s: asset kind required", p.Key)
		}
		v, err := defaultValue(p.Kind, p.RawDefault, p.Curves)
		if err != nil {
			return fmt.Errorf("property %s: %v", p.Key, err)
		}
		if len(p.Enum) > 0 && p.Kind == KindString && v.Str == "" {
			v = String(p.Enum[0])
		}
		p.Default = v
		props = append(props, p)
	}

	switch t.Interface {
	case InterfaceInputs:
		props = append(props, PropertySpec{Key: KeyGroupInput, Kind: KindStrings, Derived: true, Default: Strings()})
	case InterfaceOutputs:
		props = append(props, PropertySpec{Key: KeyGroupOutput, Kind: KindStrings, Derived: true, Default: Strings()})
	}
	if t.Variadic != "" {
		props = append(props, PropertySpec{Key: KeyInputCount, Kind: KindInt, Derived: true, Default: Int(int64(len(t.Inputs)))})
	}
	t.properties = props
	return nil
}

func baseProperties() []PropertySpec {
	return []PropertySpec{
		{Key: KeyLocation, Kind: KindVector, Default: Vector(0, 0)},
		{Key: KeyWidth, Kind: KindFloat, Default: Float(140)},
		{Key: KeyLabel, Kind: KindString, Default: String("")},
		{Key: KeyHide, Kind: KindBool, Default: Bool(false)},
		{Key: KeyMute, Kind: KindBool, Default: Bool(false)},
		{Key: KeySelect, Kind: KindBool, Default: Bool(false)},
		{Key: KeyParent, Kind: KindNode, Default: Value{Kind: KindNode}},
		{Key: KeyDimensions, Kind: KindVector, ReadOnly: true, Default: Vector(0, 0)},
	}
}

// Merge copies every type from other into c. Types already present in c
// are replaced, so add-on catalogs can override builtin definitions.
func (c *Catalog) Merge(other *Catalog) {
	for id, s := range other.sockets {
		c.sockets[id] = s
	}
	for id, n := range other.nodes {
		c.nodes[id] = n
	}
}

// NodeType returns the registered node type with the given id.
func (c *Catalog) NodeType(id string) (*NodeType, bool) {
	t, ok := c.nodes[id]
	return t, ok
}

// SocketType returns the registered socket type with the given id.
func (c *Catalog) SocketType(id string) (*SocketType, bool) {
	t, ok := c.sockets[id]
	return t, ok
}

// NodeTypes returns all node types sorted by id.
func (c *Catalog) NodeTypes() []*NodeType {
	out := make([]*NodeType, 0, len(c.nodes))
	for _, t := range c.nodes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SocketTypes returns all socket types sorted by id.
func (c *Catalog) SocketTypes() []*SocketType {
	out := make([]*SocketType, 0, len(c.sockets))
	for _, t := range c.sockets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IsTreeRef reports whether key on nodes of typeID binds another tree.
func (c *Catalog) IsTreeRef(typeID, key string) bool {
	t, ok := c.nodes[typeID]
	if !ok {
		return false
	}
	p, ok := t.Property(key)
	return ok && p.Kind == KindTree
}

// defaultValue converts a raw TOML default into a Value of the given kind.
func defaultValue(k Kind, raw any, curves int) (Value, error) {
	switch k {
	case KindNone:
		return None(), nil
	case KindOpaque:
		return Opaque(), nil
	case KindTree, KindAsset, KindNode:
		return Value{Kind: k}, nil
	case KindCurve:
		return CurveValue(defaultCurve(curves)), nil
	case KindRamp:
		return RampValue(defaultRamp()), nil
	}

	if raw == nil {
		switch k {
		case KindBool:
			return Bool(false), nil
		case KindInt:
			return Int(0), nil
		case KindFloat:
			return Float(0), nil
		case KindString:
			return String(""), nil
		case KindVector:
			return Vector(), nil
		case KindStrings:
			return Strings(), nil
		}
	}

	switch k {
	case KindBool:
		if b, ok := raw.(bool); ok {
			return Bool(b), nil
		}
	case KindInt:
		if i, ok := raw.(int64); ok {
			return Int(i), nil
		}
	case KindFloat:
		if f, ok := tomlNumber(raw); ok {
			return Float(f), nil
		}
	case KindString:
		if s, ok := raw.(string); ok {
			return String(s), nil
		}
	case KindVector:
		if list, ok := raw.([]any); ok {
			vec := make([]float64, 0, len(list))
			for _, item := range list {
				f, ok := tomlNumber(item)
				if !ok {
					return Value{}, fmt.Errorf("vector default must hold numbers, got %T", item)
				}
				vec = append(vec, f)
			}
			return Vector(vec...), nil
		}
	case KindStrings:
		if list, ok := raw.([]any); ok {
			strs := make([]string, 0, len(list))
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return Value{}, fmt.Errorf("strings default must hold strings, got %T", item)
				}
				strs = append(strs, s)
			}
			return Strings(strs...), nil
		}
	}
	return Value{}, fmt.Errorf("default %v (%T) does not fit kind %s", raw, raw, k)
}

func tomlNumber(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func defaultCurve(channels int) *CurveMapping {
	if channels <= 0 {
		channels = 1
	}
	c := &CurveMapping{
		BlackLevel: []float64{0, 0, 0},
		WhiteLevel: []float64{1, 1, 1},
		ClipMaxX:   1,
		ClipMaxY:   1,
		UseClip:    true,
	}
	for range channels {
		c.Curves = append(c.Curves, Curve{
			Extend: "EXTRAPOLATED",
			Points: []CurvePoint{{X: 0, Y: 0, Handle: "AUTO"}, {X: 1, Y: 1, Handle: "AUTO"}},
		})
	}
	return c
}

func defaultRamp() *ColorRamp {
	return &ColorRamp{
		ColorMode:     "RGB",
		Interpolation: "LINEAR",
		Stops: []ColorStop{
			{Position: 0, Color: []float64{0, 0, 0, 1}},
			{Position: 1, Color: []float64{1, 1, 1, 1}},
		},
	}
}

// socketDefault resolves the value of a socket field, honoring a per-socket
// override declared on the node type.
func socketDefault(st *SocketType, f FieldSpec, spec SocketSpec) Value {
	if spec.RawDefault != nil && st != nil && len(st.Fields) > 0 && st.Fields[0].Name == f.Name {
		if v, err := defaultValue(f.Kind, spec.RawDefault, 0); err == nil {
			return v
		}
	}
	return f.Default.Clone()
}

// hasEnum reports whether s is allowed by the spec's enum, if any.
func (p PropertySpec) hasEnum(s string) bool {
	return len(p.Enum) == 0 || slices.Contains(p.Enum, s)
}
