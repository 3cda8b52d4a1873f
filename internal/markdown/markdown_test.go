package markdown

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	testCases := []struct {
		name     string
		in       string
		contains []string
		excludes []string
	}{
		{name: "empty", in: ""},
		{name: "emphasis", in: "**great** and *odd*", contains: []string{"<strong>great</strong>", "<em>odd</em>"}},
		{name: "hard wraps", in: "line one\nline two", contains: []string{"<br"}},
		{name: "strikethrough", in: "~~spoiler~~", contains: []string{"<del>spoiler</del>"}},
		{name: "raw html is dropped", in: "<script>alert(1)</script>", excludes: []string{"<script>"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Render(tc.in)
			if err != nil {
				t.Fatalf("Render() failed: %v", err)
			}
			if tc.in == "" && out != "" {
				t.Errorf("Expected empty output, got %q", out)
			}
			for _, want := range tc.contains {
				if !strings.Contains(out, want) {
					t.Errorf("Expected %q in output, got %q", want, out)
				}
			}
			for _, bad := range tc.excludes {
				if strings.Contains(out, bad) {
					t.Errorf("Did not expect %q in output, got %q", bad, out)
				}
			}
		})
	}
}
