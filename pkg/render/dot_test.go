package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/nodeio/pkg/document"
	"github.com/matzehuels/nodeio/pkg/errors"
	"github.com/matzehuels/nodeio/pkg/nodegraph"
)

func sampleDocument() *document.Document {
	d := document.New()
	d.Groups["Grain"] = &document.Group{
		Nodes: []document.NodeRecord{{Name: "Math", Type: "ShaderNodeMath"}},
	}
	d.Groups[document.MainGroup] = &document.Group{
		Nodes: []document.NodeRecord{
			{Name: "Frame", Type: "NodeFrame", Attributes: nodegraph.Attributes{
				{Key: nodegraph.KeyLabel, Value: nodegraph.String("Inputs")},
			}},
			{Name: "Tex", Type: "ShaderNodeTexImage", Attributes: nodegraph.Attributes{
				{Key: nodegraph.KeyParent, Value: nodegraph.NodeRef("Frame")},
				{Key: "interpolation", Value: nodegraph.String("Closest")},
			}},
			{Name: "Group", Type: "ShaderNodeGroup", Attributes: nodegraph.Attributes{
				{Key: "node_tree", Value: nodegraph.TreeRef("Grain")},
			}},
		},
		Links: []document.LinkRecord{
			{FromNode: "Tex", FromSocket: 0, ToNode: "Group", ToSocket: 1},
			{FromNode: "Ghost", FromSocket: 0, ToNode: "Group", ToSocket: 0},
		},
	}
	d.Header.GroupOrder = []string{"Grain", document.MainGroup}
	return d
}

func TestToDOT(t *testing.T) {
	dot, err := ToDOT(sampleDocument(), "", Options{})
	if err != nil {
		t.Fatalf("ToDOT() error: %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"header", `digraph "main" {`},
		{"cluster", `subgraph "cluster_Frame" {`},
		{"cluster label", `label="Inputs";`},
		{"nested child", `    "Tex" [label="Tex\nShaderNodeTexImage"];`},
		{"group binding", `"Group" [label="Group\nShaderNodeGroup\n→ Grain", fillcolor="#dbe8fb", penwidth=2];`},
		{"edge ports", `"Tex" -> "Group" [taillabel="0", headlabel="1"];`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(dot, tt.want) {
				t.Errorf("DOT missing %s\nwant substring: %s\ngot:\n%s", tt.name, tt.want, dot)
			}
		})
	}

	if strings.Contains(dot, "Ghost") {
		t.Errorf("link with a missing endpoint was drawn:\n%s", dot)
	}
	if strings.Contains(dot, "interpolation") {
		t.Errorf("attributes listed without Detailed:\n%s", dot)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot, err := ToDOT(sampleDocument(), document.MainGroup, Options{Detailed: true})
	if err != nil {
		t.Fatal(err)
	}
	want := `interpolation: \"Closest\"`
	if !strings.Contains(dot, want) {
		t.Errorf("detailed DOT missing %s:\n%s", want, dot)
	}
}

func TestToDOTGroupNotFound(t *testing.T) {
	_, err := ToDOT(sampleDocument(), "Missing", Options{})
	if !errors.Is(err, errors.ErrCodeGroupNotFound) {
		t.Errorf("ToDOT() error = %v, want GROUP_NOT_FOUND", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatSVG, false},
		{"PNG", FormatPNG, false},
		{"dot", FormatDOT, false},
		{"gif", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 40.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 40.00" width="100" height="40"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
