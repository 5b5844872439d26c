package diff

import (
	"reflect"
	"testing"
)

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", nil},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"blank line kept", "a\n\nb\n", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitLines(tt.content); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLines(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestJoinLines(t *testing.T) {
	if got := JoinLines(nil); got != "" {
		t.Errorf("JoinLines(nil) = %q, want empty", got)
	}
	if got := JoinLines([]string{"a", "b"}); got != "a\nb\n" {
		t.Errorf("JoinLines = %q, want %q", got, "a\nb\n")
	}
}

func TestSplice(t *testing.T) {
	lines := []string{"a", "b", "c", "d"}

	got := Splice(lines, 1, 3, []string{"X"})
	want := []string{"a", "X", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Splice replace = %q, want %q", got, want)
	}

	got = Splice(lines, 2, 2, []string{"ins"})
	want = []string{"a", "b", "ins", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Splice insert = %q, want %q", got, want)
	}

	got = Splice(lines, 3, 10, nil)
	want = []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Splice clamped = %q, want %q", got, want)
	}

	if !reflect.DeepEqual(lines, []string{"a", "b", "c", "d"}) {
		t.Errorf("Splice modified its input: %q", lines)
	}
}

func TestSlice(t *testing.T) {
	lines := []string{"a", "b", "c"}
	if got := Slice(lines, 1, 5); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("Slice = %q", got)
	}
	if got := Slice(lines, 2, 1); len(got) != 0 {
		t.Errorf("Slice with end < start = %q, want empty", got)
	}
}

func TestLeadingWhitespace(t *testing.T) {
	tests := map[string]string{
		"":            "",
		"foo":         "",
		"  foo":       "  ",
		"\t\tfoo":     "\t\t",
		" \t foo bar": " \t ",
		"    ":        "    ",
	}
	for in, want := range tests {
		if got := LeadingWhitespace(in); got != want {
			t.Errorf("LeadingWhitespace(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReindent(t *testing.T) {
	in := []string{"  if x {", "    y()", "", "  }"}
	got := Reindent(in, "  ", "\t")
	want := []string{"\tif x {", "\t  y()", "", "\t}"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reindent = %q, want %q", got, want)
	}

	got = Reindent([]string{"foo", "bar"}, "", "    ")
	want = []string{"    foo", "    bar"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Reindent from empty = %q, want %q", got, want)
	}
}
