package repl

import (
	"bytes"
	"testing"

	"el/internal/interp"
)

func TestEntryComplete(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"show 1;", true},
		{"var x: integer = 1;", true},
		{"if x > 0 {", false},
		{"if x > 0 {\n  show x;\n}", true},
		{"show f(1,", false},
		{"var xs: array = [1, 2,", false},
		{`show "open`, false},
		{"/* comment", false},
		{"", true},
	}
	for _, tt := range tests {
		got, _ := entryComplete(tt.input)
		if got != tt.want {
			t.Errorf("%q: complete=%v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestCompletion(t *testing.T) {
	var buf bytes.Buffer
	i := interp.New(interp.Config{Output: &buf})
	r := New(i, &buf)

	hasSuffix := func(matches []string, want string) bool {
		for _, m := range matches {
			if m == want {
				return true
			}
		}
		return false
	}

	if matches := r.complete("the"); !hasSuffix(matches, "theorem") {
		t.Errorf("'the' completions: %v", matches)
	}
	if matches := r.complete("show forw"); !hasSuffix(matches, "show forward") {
		t.Errorf("'show forw' completions: %v", matches)
	}
	if matches := r.complete(""); matches != nil {
		t.Errorf("empty line should complete to nothing, got %v", matches)
	}
}
