package cli

import (
	"strings"
	"testing"
)

func TestCompletion(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		want  []string
		avoid []string
	}{
		{
			name: "roles",
			args: []string{"__complete", "resolve", "--role", ""},
			want: []string{"optional-compile\t", "compile-and-export\t", "test-only\t", ":4"},
		},
		{
			name:  "resolve formats",
			args:  []string{"__complete", "resolve", "--format", ""},
			want:  []string{"json", "yaml", "text", "lock"},
			avoid: []string{"svg"},
		},
		{
			name:  "graph formats",
			args:  []string{"__complete", "graph", "--format", ""},
			want:  []string{"dot", "svg", "png"},
			avoid: []string{"lock"},
		},
		{
			name: "manifest argument",
			args: []string{"__complete", "resolve", ""},
			want: []string{"kts", "gradle", "xml", "yaml", ":8"},
		},
		{
			name: "bash script",
			args: []string{"completion", "bash"},
			want: []string{"depmanifest"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, newTestCLI(t), tt.args...)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
			for _, w := range tt.avoid {
				if strings.Contains(out, w) {
					t.Errorf("output has %q:\n%s", w, out)
				}
			}
		})
	}
}
