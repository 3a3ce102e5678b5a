package errors

import "testing"

func TestWarningString(t *testing.T) {
	tests := []struct {
		name string
		w    Warning
		want string
	}{
		{
			name: "message only",
			w:    Warning{Message: "2 dependencies failed to load"},
			want: "2 dependencies failed to load",
		},
		{
			name: "group and node",
			w:    Warning{Group: "main", Node: "Mix", Message: "unknown type"},
			want: "main/Mix: unknown type",
		},
		{
			name: "full location",
			w:    Warning{Group: "main", Node: "Mix", Key: "blend_type", Message: "kind mismatch"},
			want: "main/Mix.blend_type: kind mismatch",
		},
		{
			name: "node without group",
			w:    Warning{Node: "Mix", Message: "skipped"},
			want: "Mix: skipped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var r Report
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}

	r.Add(WarnUnsupportedNodeType, "main", "Foo", "", "node type %q is not available", "AddonNode")
	r.Add(WarnAttributeRejected, "main", "Mix", "blend_type", "bad value")
	r.Append(Warning{Code: WarnAttributeRejected, Message: "other"})

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
	if got := r.Count(WarnAttributeRejected); got != 2 {
		t.Errorf("Count(ATTRIBUTE_REJECTED) = %d, want 2", got)
	}
	if got := r.Warnings()[0].Message; got != `node type "AddonNode" is not available` {
		t.Errorf("Warnings()[0].Message = %q", got)
	}

	var nilReport *Report
	if nilReport.Warnings() != nil || nilReport.Len() != 0 {
		t.Error("nil report should be empty")
	}
}
