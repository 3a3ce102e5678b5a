package nodegraph

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestTree(t *testing.T) (*Library, *Tree) {
	t.Helper()
	lib := NewLibrary(nil)
	tree, err := lib.NewTree("main", "shader")
	if err != nil {
		t.Fatal(err)
	}
	return lib, tree
}

func mustNode(t *testing.T, tree *Tree, typeID string) *Node {
	t.Helper()
	n, err := tree.NewNode(typeID)
	if err != nil {
		t.Fatalf("NewNode(%q) error: %v", typeID, err)
	}
	return n
}

func TestNewNodeNaming(t *testing.T) {
	_, tree := newTestTree(t)

	a := mustNode(t, tree, "ShaderNodeMath")
	b := mustNode(t, tree, "ShaderNodeMath")
	if a.Name() != "Math" || b.Name() != "Math.001" {
		t.Errorf("names = %q, %q, want Math, Math.001", a.Name(), b.Name())
	}

	if _, err := tree.NewNode("NoSuchNode"); !errors.Is(err, ErrUnknownNodeType) {
		t.Errorf("NewNode(NoSuchNode) error = %v, want ErrUnknownNodeType", err)
	}

	got, err := tree.RenameNode(b, "Math")
	if err != nil || got != "Math.001" {
		t.Errorf("RenameNode to taken name = %q, %v, want Math.001", got, err)
	}
	got, _ = tree.RenameNode(b, "Multiply")
	if n, ok := tree.Node("Multiply"); !ok || n != b || got != "Multiply" {
		t.Error("Node(Multiply) did not find the renamed node")
	}
}

func TestNodeSetStrict(t *testing.T) {
	lib, tree := newTestTree(t)
	n := mustNode(t, tree, "ShaderNodeTexImage")

	tests := []struct {
		name    string
		key     string
		value   Value
		wantErr error
	}{
		{"enum ok", "interpolation", String("Cubic"), nil},
		{"enum rejected", "interpolation", String("Bilinear"), ErrInvalidValue},
		{"kind mismatch", "projection_blend", Int(1), ErrKindMismatch},
		{"unknown key", "no_such_key", Bool(true), ErrUnknownProperty},
		{"read only", "dimensions", Vector(1, 2), ErrReadOnly},
		{"opaque", "image_user", Opaque(), ErrReadOnly},
		{"missing asset", "image", AssetRef("bricks.png"), ErrUnknownAsset},
		{"vector length", "location", Vector(1, 2, 3), ErrInvalidValue},
		{"clear asset", "image", Value{Kind: KindAsset}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := n.Set(tt.key, tt.value)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Set(%q) error = %v", tt.key, err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Set(%q) error = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}

	lib.AddAsset(Asset{Kind: "image", Name: "bricks.png", Path: "/tex/bricks.png"})
	if err := n.Set("image", AssetRef("bricks.png")); err != nil {
		t.Fatalf("Set(image) after AddAsset error: %v", err)
	}
	v, _ := n.Get("image")
	if v.Kind != KindAsset || v.Str != "bricks.png" {
		t.Errorf("Get(image) = %v, want asset:bricks.png", v)
	}
}

func TestSetParentKeepsEditorPosition(t *testing.T) {
	_, tree := newTestTree(t)
	frame := mustNode(t, tree, "NodeFrame")
	child := mustNode(t, tree, "ShaderNodeValue")

	if err := frame.Set(KeyLocation, Vector(100, 50)); err != nil {
		t.Fatal(err)
	}
	if err := child.Set(KeyLocation, Vector(10, 20)); err != nil {
		t.Fatal(err)
	}

	if err := child.SetParent(frame); err != nil {
		t.Fatalf("SetParent() error: %v", err)
	}

	if diff := cmp.Diff([]float64{10, 20}, child.AbsLocation()); diff != "" {
		t.Errorf("AbsLocation() after parenting (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{-90, -30}, child.Location()); diff != "" {
		t.Errorf("Location() after parenting (-want +got):\n%s", diff)
	}

	// Reapplying the recorded local position in editor space.
	if err := child.SetLocation([]float64{10 + 100, 20 + 50}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{10, 20}, child.Location()); diff != "" {
		t.Errorf("Location() after SetLocation (-want +got):\n%s", diff)
	}

	p, _ := child.Get(KeyParent)
	if p.Str != frame.Name() {
		t.Errorf("Get(parent) = %v, want %s", p, frame.Name())
	}

	if err := frame.SetParent(child); !errors.Is(err, ErrParentCycle) {
		t.Errorf("SetParent cycle error = %v, want ErrParentCycle", err)
	}
	if err := child.SetParent(nil); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{110, 70}, child.Location()); diff != "" {
		t.Errorf("Location() after unparenting (-want +got):\n%s", diff)
	}
}

func TestGroupSocketsFollowInterface(t *testing.T) {
	lib, main := newTestTree(t)
	sub, _ := lib.NewTree("Fresnel Mix", "shader")

	in := mustNode(t, sub, "NodeGroupInput")
	out := mustNode(t, sub, "NodeGroupOutput")
	if err := in.Set(KeyGroupInput, Strings("NodeSocketFloat", "Fac", "NodeSocketColor", "Tint")); err != nil {
		t.Fatalf("Set(group_input) error: %v", err)
	}
	if err := out.Set(KeyGroupOutput, Strings("NodeSocketShader", "Shader")); err != nil {
		t.Fatalf("Set(group_output) error: %v", err)
	}
	if len(in.Outputs()) != 2 || len(out.Inputs()) != 1 {
		t.Fatalf("interface nodes have %d outputs / %d inputs, want 2 / 1", len(in.Outputs()), len(out.Inputs()))
	}

	group := mustNode(t, main, "ShaderNodeGroup")
	if len(group.Inputs()) != 0 {
		t.Fatalf("unbound group has %d inputs, want 0", len(group.Inputs()))
	}
	if err := group.Set("node_tree", TreeRef(sub.Name())); err != nil {
		t.Fatalf("Set(node_tree) error: %v", err)
	}
	if len(group.Inputs()) != 2 || group.Inputs()[1].Name != "Tint" {
		t.Errorf("group inputs = %d, want 2 with Tint at 1", len(group.Inputs()))
	}
	if err := group.Inputs()[0].SetField("default_value", Float(0.25)); err != nil {
		t.Fatal(err)
	}

	src := mustNode(t, main, "ShaderNodeRGB")
	if _, err := main.Connect(src, 0, group, 1); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}

	// Shrinking the interface drops links into removed sockets but keeps
	// values of surviving ones.
	if err := in.Set(KeyGroupInput, Strings("NodeSocketFloat", "Fac")); err != nil {
		t.Fatal(err)
	}
	if len(group.Inputs()) != 1 {
		t.Errorf("group inputs after shrink = %d, want 1", len(group.Inputs()))
	}
	if v, _ := group.Inputs()[0].Field("default_value"); v.Float != 0.25 {
		t.Errorf("surviving socket value = %v, want 0.25", v)
	}
	if len(main.Links()) != 0 {
		t.Errorf("Links() after shrink = %d, want 0", len(main.Links()))
	}

	if subs := group.Subtrees(); len(subs) != 1 || subs[0] != sub {
		t.Errorf("Subtrees() = %v, want [%s]", subs, sub.Name())
	}
	if err := group.SetTree("node_tree", main); !errors.Is(err, ErrTreeKindMismatch) {
		t.Errorf("binding own tree error = %v, want ErrTreeKindMismatch", err)
	}
}

func TestVariadicInputs(t *testing.T) {
	_, tree := newTestTree(t)
	n := mustNode(t, tree, "NodeCombineList")

	if v, _ := n.Get(KeyInputCount); v.Int != 2 {
		t.Fatalf("input_count default = %d, want 2", v.Int)
	}
	if err := n.Set(KeyInputCount, Int(4)); err != nil {
		t.Fatal(err)
	}
	if len(n.Inputs()) != 4 || n.Inputs()[3].Name != "Item 4" {
		t.Errorf("inputs after resize = %d, want 4 ending in Item 4", len(n.Inputs()))
	}
	if err := n.Set(KeyInputCount, Int(-1)); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Set(input_count, -1) error = %v, want ErrInvalidValue", err)
	}
}

func TestConnect(t *testing.T) {
	lib, tree := newTestTree(t)
	other, _ := lib.NewTree("other", "shader")

	a := mustNode(t, tree, "Input")
	b := mustNode(t, tree, "Output")
	c := mustNode(t, other, "Output")

	if _, err := tree.Connect(a, 0, b, 0); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	if _, err := tree.Connect(a, 1, b, 0); !errors.Is(err, ErrSocketOutOfRange) {
		t.Errorf("Connect out of range error = %v, want ErrSocketOutOfRange", err)
	}
	if _, err := tree.Connect(a, 0, c, 0); !errors.Is(err, ErrForeignNode) {
		t.Errorf("Connect across trees error = %v, want ErrForeignNode", err)
	}

	a2 := mustNode(t, tree, "Input")
	if _, err := tree.Connect(a2, 0, b, 0); err != nil {
		t.Fatal(err)
	}
	links := tree.Links()
	want := []Link{{From: a2.ID(), FromSocket: 0, To: b.ID(), ToSocket: 0}}
	if diff := cmp.Diff(want, links); diff != "" {
		t.Errorf("Links() should hold only the replacing link (-want +got):\n%s", diff)
	}
}

func TestRemoveNode(t *testing.T) {
	_, tree := newTestTree(t)
	frame := mustNode(t, tree, "NodeFrame")
	a := mustNode(t, tree, "Input")
	b := mustNode(t, tree, "Output")

	_ = frame.Set(KeyLocation, Vector(5, 5))
	_ = a.SetParent(frame)
	_, _ = tree.Connect(a, 0, b, 0)

	if err := tree.RemoveNode(frame); err != nil {
		t.Fatal(err)
	}
	if _, ok := a.Parent(); ok {
		t.Error("child still parented after frame removal")
	}
	if err := tree.RemoveNode(a); err != nil {
		t.Fatal(err)
	}
	if len(tree.Links()) != 0 || tree.Len() != 1 {
		t.Errorf("after removals: %d links, %d nodes, want 0, 1", len(tree.Links()), tree.Len())
	}
	if err := tree.RemoveNode(a); !errors.Is(err, ErrForeignNode) {
		t.Errorf("second RemoveNode error = %v, want ErrForeignNode", err)
	}
}
