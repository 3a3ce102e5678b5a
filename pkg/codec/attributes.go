package codec

import (
	stderrors "errors"
	"fmt"
	"math"

	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

// Precision is the number of decimal places floats are rounded to.
const Precision = 4

// denylist holds keys that are never recorded: computed values, transient
// editor state and host internals.
var denylist = map[string]bool{
	"__doc__":          true,
	"__module__":       true,
	"bl_description":   true,
	"bl_icon":          true,
	"bl_idname":        true,
	"bl_label":         true,
	"bl_rna":           true,
	"color_mapping":    true,
	"dimensions":       true,
	"draw_buttons":     true,
	"draw_buttons_ext": true,
	"image_user":       true,
	"inputs":           true,
	"internal_links":   true,
	"outputs":          true,
	"poll":             true,
	"poll_instance":    true,
	"rna_type":         true,
	"select":           true,
	"show_options":     true,
	"show_preview":     true,
	"show_texture":     true,
	"texture_mapping":  true,
	"type":             true,
	"update":           true,
	"width_hidden":     true,
}

// Excluded reports whether key is on the capture denylist.
func Excluded(key string) bool { return denylist[key] }

// Round rounds f to [Precision] decimal places.
func Round(f float64) float64 {
	const scale = 1e4
	r := math.Round(f*scale) / scale
	if r == 0 {
		return 0 // drop negative zero
	}
	return r
}

// DependencySink receives the external assets referenced while capturing.
type DependencySink interface {
	Add(kind, name, path string)
}

// CaptureAttributes records the properties of n in schema order. Denylisted
// keys, absent values and opaque values are skipped. Floats are rounded,
// references are recorded by name, and every referenced asset is reported
// to deps. Derived properties come last so that the generic pass never
// sees a socket allocator before the values it sizes.
func CaptureAttributes(n *nodegraph.Node, deps DependencySink) (nodegraph.Attributes, []errors.Warning) {
	var (
		attrs    nodegraph.Attributes
		warnings []errors.Warning
		lib      = n.Tree().Library()
	)

	capture := func(spec nodegraph.PropertySpec) {
		if Excluded(spec.Key) || spec.Kind == nodegraph.KindOpaque {
			return
		}
		v, err := n.Get(spec.Key)
		if err != nil {
			warnings = append(warnings, errors.Warning{
				Code: errors.WarnAttributeRejected, Group: n.Tree().Name(), Node: n.Name(), Key: spec.Key,
				Message: err.Error(),
			})
			return
		}
		if v.IsNone() || v.Kind == nodegraph.KindOpaque {
			return
		}
		if v.Kind == nodegraph.KindAsset && deps != nil && lib != nil {
			path := ""
			if a, ok := lib.Asset(spec.Asset, v.Str); ok {
				path = a.Path
			}
			deps.Add(spec.Asset, v.Str, path)
		}
		attrs = append(attrs, nodegraph.Attribute{Key: spec.Key, Value: roundValue(v)})
	}

	props := n.NodeType().Properties()
	for _, spec := range props {
		if !spec.Derived {
			capture(spec)
		}
	}
	for _, spec := range props {
		if spec.Derived {
			capture(spec)
		}
	}
	return attrs, warnings
}

// Deferred is a node reference that can only be resolved once every node
// of the group exists.
type Deferred struct {
	Key    string
	Target string
}

// RestoreContext supplies what attribute restore needs beyond the node.
type RestoreContext struct {
	// Group names the document group, for warnings.
	Group string
	// ResolveTree maps a recorded tree name to a live tree. Groups created
	// by the current restore take precedence over library trees.
	ResolveTree func(name string) (*nodegraph.Tree, bool)
}

// RestoreAttributes replays recorded attributes onto n. Structural keys
// (tree bindings, socket allocators) are applied first, then the rest in
// recorded order. Values are coerced to the live property kind. Node
// references, including the parent, are returned for a second pass.
//
// Per-attribute failures become warnings. An asset reference whose asset
// is not loaded is left unset without a warning; the failed load was
// already reported.
func RestoreAttributes(n *nodegraph.Node, attrs nodegraph.Attributes, ctx RestoreContext) ([]Deferred, []errors.Warning) {
	var (
		deferred []Deferred
		warnings []errors.Warning
	)
	warn := func(code errors.Code, key, format string, args ...any) {
		warnings = append(warnings, errors.Warning{
			Code: code, Group: ctx.Group, Node: n.Name(), Key: key, Message: fmt.Sprintf(format, args...),
		})
	}

	typ := n.NodeType()
	structural := make(nodegraph.Attributes, 0, len(attrs))
	rest := make(nodegraph.Attributes, 0, len(attrs))
	for _, attr := range attrs {
		if spec, ok := typ.Property(attr.Key); ok && spec.Structural() {
			structural = append(structural, attr)
		} else {
			rest = append(rest, attr)
		}
	}

	for _, attr := range append(structural, rest...) {
		if Excluded(attr.Key) || attr.Value.Kind == nodegraph.KindNone {
			continue
		}
		spec, ok := typ.Property(attr.Key)
		if !ok {
			warn(errors.WarnAttributeRejected, attr.Key, "%s has no property %q", typ.ID, attr.Key)
			continue
		}
		v, err := Coerce(spec.Kind, attr.Value)
		if err != nil {
			warn(errors.WarnAttributeRejected, attr.Key, "%v", err)
			continue
		}

		switch spec.Kind {
		case nodegraph.KindNode:
			deferred = append(deferred, Deferred{Key: attr.Key, Target: v.Str})
			continue
		case nodegraph.KindTree:
			t, ok := resolveTree(ctx, n, v.Str)
			if !ok {
				warn(errors.WarnReferenceUnresolved, attr.Key, "tree %q not found", v.Str)
				continue
			}
			if err := n.SetTree(attr.Key, t); err != nil {
				warn(errors.WarnAttributeRejected, attr.Key, "%v", err)
			}
			continue
		case nodegraph.KindAsset:
			if lib := n.Tree().Library(); lib != nil {
				if _, ok := lib.Asset(spec.Asset, v.Str); !ok {
					continue
				}
			}
		}

		if err := n.Set(attr.Key, v); err != nil {
			warn(errors.WarnAttributeRejected, attr.Key, "%v", err)
		}
	}
	return deferred, warnings
}

func resolveTree(ctx RestoreContext, n *nodegraph.Node, name string) (*nodegraph.Tree, bool) {
	if ctx.ResolveTree != nil {
		if t, ok := ctx.ResolveTree(name); ok {
			return t, true
		}
	}
	if lib := n.Tree().Library(); lib != nil {
		return lib.Tree(name)
	}
	return nil, false
}

// ErrShape is returned by [Coerce] when a recorded value cannot be turned
// into the live property kind.
var ErrShape = stderrors.New("value shape does not fit property")

// Coerce converts a decoded value to the given property kind. Documents
// record values by shape only, so integers may stand in for floats,
// strings for references, and an empty list for either list kind.
func Coerce(kind nodegraph.Kind, v nodegraph.Value) (nodegraph.Value, error) {
	if v.Kind == nodegraph.KindOpaque {
		return nodegraph.Value{}, fmt.Errorf("%w: want %s, got unrecognized value %.40s", ErrShape, kind, v.Str)
	}
	if v.Kind == kind {
		return v, nil
	}
	switch kind {
	case nodegraph.KindFloat:
		if v.Kind == nodegraph.KindInt {
			return nodegraph.Float(float64(v.Int)), nil
		}
	case nodegraph.KindInt:
		if v.Kind == nodegraph.KindFloat && v.Float == math.Trunc(v.Float) {
			return nodegraph.Int(int64(v.Float)), nil
		}
	case nodegraph.KindBool:
		if v.Kind == nodegraph.KindInt && (v.Int == 0 || v.Int == 1) {
			return nodegraph.Bool(v.Int == 1), nil
		}
	case nodegraph.KindTree, nodegraph.KindAsset, nodegraph.KindNode:
		if v.Kind == nodegraph.KindString || v.Kind.IsReference() {
			return nodegraph.Value{Kind: kind, Str: v.Str}, nil
		}
	case nodegraph.KindString:
		if v.Kind.IsReference() {
			return nodegraph.String(v.Str), nil
		}
	case nodegraph.KindStrings:
		if v.Kind == nodegraph.KindVector && len(v.Vec) == 0 {
			return nodegraph.Strings(), nil
		}
	case nodegraph.KindVector:
		if v.Kind == nodegraph.KindStrings && len(v.Strs) == 0 {
			return nodegraph.Vector(), nil
		}
	}
	return nodegraph.Value{}, fmt.Errorf("%w: want %s, got %s", ErrShape, kind, v.Kind)
}

// roundValue rounds every float inside v.
func roundValue(v nodegraph.Value) nodegraph.Value {
	v = v.Clone()
	switch v.Kind {
	case nodegraph.KindFloat:
		v.Float = Round(v.Float)
	case nodegraph.KindVector:
		roundAll(v.Vec)
	case nodegraph.KindCurve:
		c := v.Curve
		roundAll(c.BlackLevel)
		roundAll(c.WhiteLevel)
		c.ClipMinX, c.ClipMinY = Round(c.ClipMinX), Round(c.ClipMinY)
		c.ClipMaxX, c.ClipMaxY = Round(c.ClipMaxX), Round(c.ClipMaxY)
		for i := range c.Curves {
			for j := range c.Curves[i].Points {
				p := &c.Curves[i].Points[j]
				p.X, p.Y = Round(p.X), Round(p.Y)
			}
		}
	case nodegraph.KindRamp:
		for i := range v.Ramp.Stops {
			s := &v.Ramp.Stops[i]
			s.Position = Round(s.Position)
			roundAll(s.Color)
		}
	}
	return v
}

func roundAll(fs []float64) {
	for i, f := range fs {
		fs[i] = Round(f)
	}
}
