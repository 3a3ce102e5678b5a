package nodegraph

import (
	"errors"
	"testing"
)

func TestLibraryTrees(t *testing.T) {
	lib := NewLibrary(nil)

	a, _ := lib.NewTree("NodeGroup", "shader")
	b, _ := lib.NewTree("NodeGroup", "shader")
	if a.Name() != "NodeGroup" || b.Name() != "NodeGroup.001" {
		t.Errorf("names = %q, %q, want NodeGroup, NodeGroup.001", a.Name(), b.Name())
	}
	if _, err := lib.NewTree("", "shader"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("NewTree(\"\") error = %v, want ErrInvalidName", err)
	}

	if err := lib.RenameTree(b, "Other"); err != nil {
		t.Fatal(err)
	}
	if got, ok := lib.Tree("Other"); !ok || got != b {
		t.Error("Tree(Other) did not find the renamed tree")
	}
	if _, ok := lib.Tree("NodeGroup.001"); ok {
		t.Error("old name still resolves after rename")
	}

	trees := lib.Trees()
	if len(trees) != 2 || trees[0] != a || trees[1] != b {
		t.Errorf("Trees() order wrong: %v", trees)
	}
}

func TestLibraryUsersAndRemove(t *testing.T) {
	lib := NewLibrary(nil)
	main, _ := lib.NewTree("main", "shader")
	sub, _ := lib.NewTree("sub", "shader")

	g1, _ := main.NewNode("ShaderNodeGroup")
	g2, _ := main.NewNode("ShaderNodeGroup")
	_ = g1.SetTree("node_tree", sub)
	_ = g2.SetTree("node_tree", sub)

	if got := lib.Users(sub.ID()); got != 2 {
		t.Errorf("Users(sub) = %d, want 2", got)
	}
	if err := lib.RemoveTree(sub.ID()); !errors.Is(err, ErrTreeInUse) {
		t.Errorf("RemoveTree in use error = %v, want ErrTreeInUse", err)
	}

	// Renaming the bound tree is visible through the reference.
	_ = lib.RenameTree(sub, "Renamed")
	if v, _ := g1.Get("node_tree"); v.Str != "Renamed" {
		t.Errorf("Get(node_tree) after rename = %v, want Renamed", v)
	}

	_ = main.RemoveNode(g1)
	_ = g2.Set("node_tree", Value{Kind: KindTree})
	if got := lib.Users(sub.ID()); got != 0 {
		t.Errorf("Users(sub) = %d, want 0", got)
	}
	if err := lib.RemoveTree(sub.ID()); err != nil {
		t.Fatalf("RemoveTree() error: %v", err)
	}
	if _, ok := lib.TreeByID(sub.ID()); ok {
		t.Error("removed tree still resolvable")
	}
	if err := lib.RemoveTree(sub.ID()); !errors.Is(err, ErrUnknownTree) {
		t.Errorf("second RemoveTree error = %v, want ErrUnknownTree", err)
	}
}

func TestLibraryAssets(t *testing.T) {
	lib := NewLibrary(nil)
	lib.AddAsset(Asset{Kind: "text", Name: "notes", Path: "/a/notes.txt"})
	lib.AddAsset(Asset{Kind: "image", Name: "wood.png", Path: "/a/wood.png"})
	lib.AddAsset(Asset{Kind: "image", Name: "brick.png", Path: "/a/brick.png"})

	if _, ok := lib.Asset("image", "wood.png"); !ok {
		t.Error("Asset(image, wood.png) missing")
	}
	if _, ok := lib.Asset("text", "wood.png"); ok {
		t.Error("Asset lookup must be keyed by kind as well as name")
	}

	got := lib.Assets()
	if len(got) != 3 || got[0].Name != "brick.png" || got[2].Kind != "text" {
		t.Errorf("Assets() not sorted by kind then name: %+v", got)
	}
}
