package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

// jsonFloat always encodes with a decimal point so that a reader can tell
// floats from integers by the literal alone.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("non-finite float %v", v)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("float %s: %w", b, err)
	}
	*f = jsonFloat(v)
	return nil
}

func floats(v []float64) []jsonFloat {
	out := make([]jsonFloat, len(v))
	for i, f := range v {
		out[i] = jsonFloat(f)
	}
	return out
}

func unfloats(v []jsonFloat) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

type curveMapping struct {
	BlackLevel []jsonFloat  `json:"black_level"`
	WhiteLevel []jsonFloat  `json:"white_level"`
	Clip       [4]jsonFloat `json:"clip"`
	UseClip    bool         `json:"use_clip"`
	Curves     []curve      `json:"curves"`
}

type curve struct {
	Extend string       `json:"extend"`
	Points []curvePoint `json:"points"`
}

// curvePoint is encoded as [x, y, handle].
type curvePoint struct {
	X, Y   jsonFloat
	Handle string
}

func (p curvePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.X, p.Y, p.Handle})
}

func (p *curvePoint) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("curve point needs [x, y, handle], got %d items", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.X); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &p.Y); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &p.Handle)
}

type colorRamp struct {
	ColorMode     string      `json:"color_mode"`
	Interpolation string      `json:"interpolation"`
	Elements      []colorStop `json:"elements"`
}

// colorStop is encoded as [position, [r, g, b, a]].
type colorStop struct {
	Position jsonFloat
	Color    []jsonFloat
}

func (s colorStop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{s.Position, s.Color})
}

func (s *colorStop) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("ramp element needs [position, color], got %d items", len(raw))
	}
	if err := json.Unmarshal(raw[0], &s.Position); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &s.Color)
}

// encodeValue converts a value to its JSON shape. Reference kinds become
// plain strings; the reader recovers their kind from the node schema.
func encodeValue(v nodegraph.Value) (any, error) {
	switch v.Kind {
	case nodegraph.KindNone:
		return nil, nil
	case nodegraph.KindOpaque:
		if v.Str != "" && json.Valid([]byte(v.Str)) {
			return json.RawMessage(v.Str), nil
		}
		return nil, nil
	case nodegraph.KindBool:
		return v.Bool, nil
	case nodegraph.KindInt:
		return v.Int, nil
	case nodegraph.KindFloat:
		return jsonFloat(v.Float), nil
	case nodegraph.KindString, nodegraph.KindTree, nodegraph.KindAsset, nodegraph.KindNode:
		return v.Str, nil
	case nodegraph.KindVector:
		return floats(v.Vec), nil
	case nodegraph.KindStrings:
		if v.Strs == nil {
			return []string{}, nil
		}
		return v.Strs, nil
	case nodegraph.KindCurve:
		if v.Curve == nil {
			return nil, fmt.Errorf("empty curve mapping")
		}
		c := v.Curve
		out := curveMapping{
			BlackLevel: floats(c.BlackLevel),
			WhiteLevel: floats(c.WhiteLevel),
			Clip:       [4]jsonFloat{jsonFloat(c.ClipMinX), jsonFloat(c.ClipMinY), jsonFloat(c.ClipMaxX), jsonFloat(c.ClipMaxY)},
			UseClip:    c.UseClip,
			Curves:     make([]curve, len(c.Curves)),
		}
		for i, cv := range c.Curves {
			pts := make([]curvePoint, len(cv.Points))
			for j, p := range cv.Points {
				pts[j] = curvePoint{X: jsonFloat(p.X), Y: jsonFloat(p.Y), Handle: p.Handle}
			}
			out.Curves[i] = curve{Extend: cv.Extend, Points: pts}
		}
		return out, nil
	case nodegraph.KindRamp:
		if v.Ramp == nil {
			return nil, fmt.Errorf("empty color ramp")
		}
		out := colorRamp{
			ColorMode:     v.Ramp.ColorMode,
			Interpolation: v.Ramp.Interpolation,
			Elements:      make([]colorStop, len(v.Ramp.Stops)),
		}
		for i, s := range v.Ramp.Stops {
			out.Elements[i] = colorStop{Position: jsonFloat(s.Position), Color: floats(s.Color)}
		}
		return out, nil
	}
	return nil, fmt.Errorf("cannot encode %s value", v.Kind)
}

// decodeValue recovers a value from its JSON shape:
//
//	null            none
//	true/false      bool
//	1               int
//	1.0, 1e3        float
//	"x"             string
//	[numbers...]    vector
//	[strings...]    strings
//	{"curves": ..}  curve
//	{"elements": ..} ramp
//
// An empty list decodes as an empty vector. Any other list or object
// decodes as an unrecognized opaque value.
func decodeValue(raw json.RawMessage) (nodegraph.Value, error) {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return nodegraph.Value{}, fmt.Errorf("empty value")
	}

	switch c := b[0]; {
	case c == 'n':
		return nodegraph.None(), nil
	case c == 't' || c == 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return nodegraph.Value{}, err
		}
		return nodegraph.Bool(v), nil
	case c == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nodegraph.Value{}, err
		}
		return nodegraph.String(s), nil
	case c == '-' || (c >= '0' && c <= '9'):
		return orUnrecognized(b)(decodeNumber(string(b)))
	case c == '[':
		return orUnrecognized(b)(decodeList(b))
	case c == '{':
		return orUnrecognized(b)(decodeObject(b))
	}
	return nodegraph.Value{}, fmt.Errorf("unexpected value %.20s", b)
}

// orUnrecognized keeps a value whose shape does not decode as an opaque
// value, so that restore rejects the one attribute instead of the whole
// document.
func orUnrecognized(b []byte) func(nodegraph.Value, error) (nodegraph.Value, error) {
	return func(v nodegraph.Value, err error) (nodegraph.Value, error) {
		if err != nil {
			return nodegraph.Unrecognized(string(b)), nil
		}
		return v, nil
	}
}

func decodeNumber(s string) (nodegraph.Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return nodegraph.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nodegraph.Value{}, fmt.Errorf("number %s: %w", s, err)
	}
	return nodegraph.Float(f), nil
}

func decodeList(b []byte) (nodegraph.Value, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return nodegraph.Value{}, err
	}
	if len(items) == 0 {
		return nodegraph.Vector(), nil
	}

	first := bytes.TrimSpace(items[0])
	if len(first) > 0 && first[0] == '"' {
		strs := make([]string, len(items))
		for i, item := range items {
			if err := json.Unmarshal(item, &strs[i]); err != nil {
				return nodegraph.Value{}, fmt.Errorf("string list item %d: %w", i, err)
			}
		}
		return nodegraph.Strings(strs...), nil
	}

	vec := make([]float64, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &vec[i]); err != nil {
			return nodegraph.Value{}, fmt.Errorf("vector item %d: %w", i, err)
		}
	}
	return nodegraph.Vector(vec...), nil
}

func decodeObject(b []byte) (nodegraph.Value, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return nodegraph.Value{}, err
	}

	if _, ok := keys["curves"]; ok {
		var c curveMapping
		if err := json.Unmarshal(b, &c); err != nil {
			return nodegraph.Value{}, fmt.Errorf("curve mapping: %w", err)
		}
		out := &nodegraph.CurveMapping{
			BlackLevel: unfloats(c.BlackLevel),
			WhiteLevel: unfloats(c.WhiteLevel),
			ClipMinX:   float64(c.Clip[0]),
			ClipMinY:   float64(c.Clip[1]),
			ClipMaxX:   float64(c.Clip[2]),
			ClipMaxY:   float64(c.Clip[3]),
			UseClip:    c.UseClip,
			Curves:     make([]nodegraph.Curve, len(c.Curves)),
		}
		for i, cv := range c.Curves {
			pts := make([]nodegraph.CurvePoint, len(cv.Points))
			for j, p := range cv.Points {
				pts[j] = nodegraph.CurvePoint{X: float64(p.X), Y: float64(p.Y), Handle: p.Handle}
			}
			out.Curves[i] = nodegraph.Curve{Extend: cv.Extend, Points: pts}
		}
		return nodegraph.CurveValue(out), nil
	}

	if _, ok := keys["elements"]; ok {
		var r colorRamp
		if err := json.Unmarshal(b, &r); err != nil {
			return nodegraph.Value{}, fmt.Errorf("color ramp: %w", err)
		}
		out := &nodegraph.ColorRamp{
			ColorMode:     r.ColorMode,
			Interpolation: r.Interpolation,
			Stops:         make([]nodegraph.ColorStop, len(r.Elements)),
		}
		for i, s := range r.Elements {
			out.Stops[i] = nodegraph.ColorStop{Position: float64(s.Position), Color: unfloats(s.Color)}
		}
		return nodegraph.RampValue(out), nil
	}

	return nodegraph.Value{}, fmt.Errorf("object value is neither a curve mapping nor a color ramp")
}
