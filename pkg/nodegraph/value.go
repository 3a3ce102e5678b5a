package nodegraph

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the value category of a node property or socket field.
// Capture and restore dispatch on Kind rather than on the concrete node type.
type Kind uint8

const (
	// KindNone marks an absent value. None values are never recorded.
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	// KindVector is a fixed-length list of floats (locations, colors, sizes).
	KindVector
	// KindCurve is a curve-mapping structure with ordered control points.
	KindCurve
	// KindRamp is a color ramp with ordered stops.
	KindRamp
	// KindTree references another tree in the same [Library] by name.
	KindTree
	// KindAsset references an external asset (image, font, ...) by name.
	KindAsset
	// KindNode references another node in the same tree by name.
	KindNode
	// KindStrings is an ordered list of strings.
	KindStrings
	// KindOpaque marks host-internal values that cannot be serialized.
	KindOpaque
)

var kindNames = [...]string{
	KindNone:    "none",
	KindBool:    "bool",
	KindInt:     "int",
	KindFloat:   "float",
	KindString:  "string",
	KindVector:  "vector",
	KindCurve:   "curve",
	KindRamp:    "ramp",
	KindTree:    "tree",
	KindAsset:   "asset",
	KindNode:    "node",
	KindStrings: "strings",
	KindOpaque:  "opaque",
}

// String returns the lowercase name used in catalog files.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind converts a catalog kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == strings.ToLower(s) {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("unknown kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler so catalogs can name kinds.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsReference reports whether values of this kind name another entity.
func (k Kind) IsReference() bool {
	return k == KindTree || k == KindAsset || k == KindNode
}

// CurvePoint is a single control point of a [Curve].
type CurvePoint struct {
	X, Y   float64
	Handle string // "AUTO", "AUTO_CLAMPED" or "VECTOR"
}

// Curve is one channel of a [CurveMapping]. Point order is significant.
type Curve struct {
	Extend string // "EXTRAPOLATED" or "HORIZONTAL"
	Points []CurvePoint
}

// CurveMapping is the curve structure carried by RGB and vector curve nodes.
type CurveMapping struct {
	BlackLevel []float64
	WhiteLevel []float64
	ClipMinX   float64
	ClipMinY   float64
	ClipMaxX   float64
	ClipMaxY   float64
	UseClip    bool
	Curves     []Curve
}

// Clone returns a deep copy.
func (c *CurveMapping) Clone() *CurveMapping {
	if c == nil {
		return nil
	}
	out := *c
	out.BlackLevel = slices.Clone(c.BlackLevel)
	out.WhiteLevel = slices.Clone(c.WhiteLevel)
	out.Curves = make([]Curve, len(c.Curves))
	for i, cv := range c.Curves {
		out.Curves[i] = Curve{Extend: cv.Extend, Points: slices.Clone(cv.Points)}
	}
	return &out
}

// ColorStop is one element of a [ColorRamp].
type ColorStop struct {
	Position float64
	Color    []float64
}

// ColorRamp is the gradient structure carried by color ramp nodes.
type ColorRamp struct {
	ColorMode     string // "RGB", "HSV" or "HSL"
	Interpolation string // "LINEAR", "EASE", "CONSTANT", ...
	Stops         []ColorStop
}

// Clone returns a deep copy.
func (r *ColorRamp) Clone() *ColorRamp {
	if r == nil {
		return nil
	}
	out := *r
	out.Stops = make([]ColorStop, len(r.Stops))
	for i, s := range r.Stops {
		out.Stops[i] = ColorStop{Position: s.Position, Color: slices.Clone(s.Color)}
	}
	return &out
}

// Value is a tagged union over every property category the host exposes.
// Only the payload field matching Kind is meaningful. Reference kinds
// (tree, asset, node) carry the referenced name in Str.
//
// The zero Value is KindNone.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Vec   []float64
	Strs  []string
	Curve *CurveMapping
	Ramp  *ColorRamp
}

// None returns the absent value.
func None() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Vector returns a vector value. The slice is copied.
func Vector(v ...float64) Value {
	if v == nil {
		v = []float64{}
	}
	return Value{Kind: KindVector, Vec: slices.Clone(v)}
}

// Strings returns a string-list value. The slice is copied.
func Strings(s ...string) Value {
	if s == nil {
		s = []string{}
	}
	return Value{Kind: KindStrings, Strs: slices.Clone(s)}
}

// CurveValue wraps a curve mapping.
func CurveValue(c *CurveMapping) Value { return Value{Kind: KindCurve, Curve: c} }

// RampValue wraps a color ramp.
func RampValue(r *ColorRamp) Value { return Value{Kind: KindRamp, Ramp: r} }

// TreeRef references a tree by name.
func TreeRef(name string) Value { return Value{Kind: KindTree, Str: name} }

// AssetRef references an asset by name.
func AssetRef(name string) Value { return Value{Kind: KindAsset, Str: name} }

// NodeRef references a node by name.
func NodeRef(name string) Value { return Value{Kind: KindNode, Str: name} }

// Opaque returns a value the host cannot serialize.
func Opaque() Value { return Value{Kind: KindOpaque} }

// Unrecognized returns an opaque value holding a recorded form no kind
// accepts, such as a structure written by a newer node revision. Str keeps
// the recorded text.
func Unrecognized(raw string) Value { return Value{Kind: KindOpaque, Str: raw} }

// IsNone reports whether the value is absent. Reference values with an
// empty name count as absent.
func (v Value) IsNone() bool {
	if v.Kind == KindNone {
		return true
	}
	return v.Kind.IsReference() && v.Str == ""
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	out := v
	out.Vec = slices.Clone(v.Vec)
	out.Strs = slices.Clone(v.Strs)
	out.Curve = v.Curve.Clone()
	out.Ramp = v.Ramp.Clone()
	return out
}

// String renders the value for logs and inspection output.
func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return "none"
	case KindBool:
		return fmt.Sprint(v.Bool)
	case KindInt:
		return fmt.Sprint(v.Int)
	case KindFloat:
		return fmt.Sprint(v.Float)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindVector:
		return fmt.Sprint(v.Vec)
	case KindStrings:
		return fmt.Sprintf("%q", v.Strs)
	case KindCurve:
		if v.Curve == nil {
			return "curve[]"
		}
		return fmt.Sprintf("curve[%d]", len(v.Curve.Curves))
	case KindRamp:
		if v.Ramp == nil {
			return "ramp[]"
		}
		return fmt.Sprintf("ramp[%d]", len(v.Ramp.Stops))
	case KindTree, KindAsset, KindNode:
		return v.Kind.String() + ":" + v.Str
	default:
		return v.Kind.String()
	}
}

// Attribute is a single recorded property. Attribute lists are ordered so
// that restore can replay them in capture order.
type Attribute struct {
	Key   string
	Value Value
}

// Attributes is an ordered attribute list.
type Attributes []Attribute

// Get returns the first attribute with the given key.
func (a Attributes) Get(key string) (Value, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return Value{}, false
}

// Keys returns the attribute keys in order.
func (a Attributes) Keys() []string {
	keys := make([]string, len(a))
	for i, attr := range a {
		keys[i] = attr.Key
	}
	return keys
}
