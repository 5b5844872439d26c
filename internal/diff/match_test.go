package diff

import "testing"

func TestLocate(t *testing.T) {
	lines := SplitLines("func a() {\n\treturn 1\n}\n\nfunc b() {\n\treturn 1\n}\n")

	tests := []struct {
		name   string
		search []string
		want   Window
		found  bool
	}{
		{"exact", []string{"func b() {"}, Window{Start: 4, Len: 1}, true},
		{"indent ignored", []string{"return 1", "}"}, Window{Start: 1, Len: 2}, true},
		{"first match wins", []string{"    return 1"}, Window{Start: 1, Len: 1}, true},
		{"blank edges trimmed", []string{"", "func a() {", ""}, Window{Start: 0, Len: 1}, true},
		{"not found", []string{"func c() {"}, Window{}, false},
		{"empty search", []string{"", "  "}, Window{}, false},
		{"longer than file", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}, Window{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Locate(lines, tt.search)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if got != tt.want {
				t.Errorf("Locate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLocateAll(t *testing.T) {
	lines := []string{"x", "y", "x", "y"}
	got := LocateAll(lines, []string{"x", "y"})
	if len(got) != 2 || got[0].Start != 0 || got[1].Start != 2 {
		t.Errorf("LocateAll = %+v, want starts 0 and 2", got)
	}
}

func TestFormatLineNumbers(t *testing.T) {
	if got := FormatLineNumbers([]int{0, 9}); got != "1, 10" {
		t.Errorf("FormatLineNumbers = %q, want %q", got, "1, 10")
	}
}
