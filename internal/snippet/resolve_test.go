package snippet

import (
	"errors"
	"fmt"
	"testing"
)

func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d", i+1)
	}
	return lines
}

func TestResolve_TrimsRepeatedOverlap(t *testing.T) {
	original := numbered(12)
	snippets := []Snippet{
		{Filepath: "f", Range: Range{Start: 7, End: 10}, Content: []string{"  line 7", "line 8 ", "NINE", "TEN"}},
		{Filepath: "f", Range: Range{Start: 5, End: 8}, Content: []string{"FIVE", "SIX", "SEVEN", "EIGHT"}},
	}

	got, err := Resolve("f", original, true, snippets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d snippets, want 2", len(got))
	}
	if got[0].Range != (Range{Start: 5, End: 8}) {
		t.Errorf("first range = %+v, want 5-8", got[0].Range)
	}
	if got[1].Range != (Range{Start: 9, End: 10}) {
		t.Errorf("second range = %+v, want 9-10", got[1].Range)
	}
	if len(got[1].Content) != 2 || got[1].Content[0] != "NINE" {
		t.Errorf("second content = %q, want [NINE TEN]", got[1].Content)
	}
}

func TestResolve_RejectsMismatchedOverlap(t *testing.T) {
	original := numbered(12)
	snippets := []Snippet{
		{Range: Range{Start: 5, End: 8}, Content: []string{"a", "b", "c", "d"}},
		{Range: Range{Start: 7, End: 10}, Content: []string{"line 7", "changed", "x", "y"}},
	}
	_, err := Resolve("pkg/f.go", original, true, snippets)
	var oe *OverlapError
	if !errors.As(err, &oe) {
		t.Fatalf("error = %v, want *OverlapError", err)
	}
	if oe.Filepath != "pkg/f.go" || oe.Start != 7 || oe.LastEnd != 8 {
		t.Errorf("OverlapError = %+v", oe)
	}
}

func TestResolve_NonOverlappingSorted(t *testing.T) {
	snippets := []Snippet{
		{Range: Range{Start: 9, End: 9}},
		{Range: Range{Start: 1, End: 2}},
		{Range: Range{Start: 4, End: 6}},
	}
	got, err := Resolve("f", numbered(10), true, snippets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int{1, 4, 9} {
		if got[i].Range.Start != want {
			t.Errorf("got[%d].Start = %d, want %d", i, got[i].Range.Start, want)
		}
	}
	if snippets[0].Range.Start != 9 {
		t.Errorf("Resolve reordered its input")
	}
}

func TestResolve_NestedDuplicateDropped(t *testing.T) {
	original := numbered(10)
	snippets := []Snippet{
		{Range: Range{Start: 2, End: 8}, Content: []string{"x"}},
		{Range: Range{Start: 4, End: 5}, Content: []string{"line 4", "line 5"}},
	}
	got, err := Resolve("f", original, true, snippets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d snippets, want 1", len(got))
	}
}

func TestResolve_InsertionInsidePreviousRejected(t *testing.T) {
	snippets := []Snippet{
		{Range: Range{Start: 2, End: 5}, Content: []string{"x"}},
		{Range: Range{Start: 4, End: 3}, Content: []string{"ins"}},
	}
	if _, err := Resolve("f", numbered(6), true, snippets); err == nil {
		t.Fatal("expected overlap error")
	}
}

func TestResolve_InsertionBeforeReplacementSameLine(t *testing.T) {
	snippets := []Snippet{
		{Range: Range{Start: 3, End: 2}, Content: []string{"ins"}},
		{Range: Range{Start: 3, End: 4}, Content: []string{"x"}},
	}
	got, err := Resolve("f", numbered(6), true, snippets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || !got[0].Range.Empty() {
		t.Errorf("got %+v, want insertion first", got)
	}
}

func TestResolve_MissingFile(t *testing.T) {
	one := []Snippet{{Range: Range{Start: 1, End: 0}, Content: []string{"package x"}}}
	got, err := Resolve("new.go", nil, false, one)
	if err != nil || len(got) != 1 {
		t.Fatalf("creation: got %v, %v", got, err)
	}

	two := append(one, Snippet{Range: Range{Start: 1, End: 1}, Content: []string{"y"}})
	_, err = Resolve("new.go", nil, false, two)
	var ce *CreationError
	if !errors.As(err, &ce) || ce.Count != 2 {
		t.Fatalf("error = %v, want *CreationError with count 2", err)
	}
}

func TestResolve_SortedNonOverlappingProperty(t *testing.T) {
	original := numbered(30)
	inputs := [][]Snippet{
		{{Range: Range{Start: 10, End: 12}}, {Range: Range{Start: 1, End: 3}}},
		{
			{Range: Range{Start: 5, End: 8}, Content: []string{"a", "b", "c", "d"}},
			{Range: Range{Start: 7, End: 10}, Content: []string{"line 7", "line 8", "x", "y"}},
			{Range: Range{Start: 20, End: 19}, Content: []string{"ins"}},
		},
	}
	for i, in := range inputs {
		got, err := Resolve("f", original, true, in)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		for j := 1; j < len(got); j++ {
			prev, cur := got[j-1].Range, got[j].Range
			if cur.Start <= prev.Start {
				t.Errorf("case %d: not strictly ascending: %+v then %+v", i, prev, cur)
			}
			if !prev.Empty() && cur.Start <= prev.End {
				t.Errorf("case %d: overlap: %+v and %+v", i, prev, cur)
			}
		}
	}
}
