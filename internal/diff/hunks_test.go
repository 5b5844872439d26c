package diff

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLineHunks(t *testing.T) {
	tests := []struct {
		name string
		old  []string
		new  []string
		want []Hunk
	}{
		{
			name: "identical",
			old:  []string{"a", "b"},
			new:  []string{"a", "b"},
			want: nil,
		},
		{
			name: "single line change",
			old:  []string{"a", "b", "c"},
			new:  []string{"a", "B", "c"},
			want: []Hunk{{OldStart: 2, OldCount: 1, NewStart: 2, NewCount: 1}},
		},
		{
			name: "insertion",
			old:  []string{"a", "c"},
			new:  []string{"a", "b", "c"},
			want: []Hunk{{OldStart: 2, OldCount: 0, NewStart: 2, NewCount: 1}},
		},
		{
			name: "deletion at end",
			old:  []string{"a", "b", "c"},
			new:  []string{"a", "b"},
			want: []Hunk{{OldStart: 3, OldCount: 1, NewStart: 3, NewCount: 0}},
		},
		{
			name: "two separate hunks",
			old:  []string{"a", "b", "c", "d", "e"},
			new:  []string{"A", "b", "c", "d", "E"},
			want: []Hunk{
				{OldStart: 1, OldCount: 1, NewStart: 1, NewCount: 1},
				{OldStart: 5, OldCount: 1, NewStart: 5, NewCount: 1},
			},
		},
		{
			name: "from empty",
			old:  nil,
			new:  []string{"a"},
			want: []Hunk{{OldStart: 1, OldCount: 0, NewStart: 1, NewCount: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineHunks(tt.old, tt.new)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LineHunks mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// applyHunks rebuilds new from old using only the hunks and new's lines.
func applyHunks(old, new []string, hunks []Hunk) []string {
	out := append([]string{}, old...)
	for i := len(hunks) - 1; i >= 0; i-- {
		h := hunks[i]
		out = Splice(out, h.OldStart-1, h.OldStart-1+h.OldCount, new[h.NewStart-1:h.NewStart-1+h.NewCount])
	}
	return out
}

func TestLineHunks_LongInputs(t *testing.T) {
	old := make([]string, 30)
	for i := range old {
		old[i] = fmt.Sprintf("line %d", i+1)
	}
	new := append([]string{}, old...)
	new[11] = "CHANGED"
	new = append(new[:20], append([]string{"extra"}, new[20:]...)...)

	want := []Hunk{
		{OldStart: 12, OldCount: 1, NewStart: 12, NewCount: 1},
		{OldStart: 21, OldCount: 0, NewStart: 21, NewCount: 1},
	}
	if diff := cmp.Diff(want, LineHunks(old, new)); diff != "" {
		t.Errorf("LineHunks mismatch (-want +got):\n%s", diff)
	}
}

func TestLineHunks_Randomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	words := []string{"a", "b", "c", "d", "e", "", "  f", "g;"}
	randomLines := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = words[rng.IntN(len(words))]
		}
		return out
	}

	for i := 0; i < 200; i++ {
		old := randomLines(10 + rng.IntN(40))
		new := randomLines(10 + rng.IntN(40))
		hunks := LineHunks(old, new)

		got := applyHunks(old, new, hunks)
		if diff := cmp.Diff(new, got); diff != "" {
			t.Fatalf("case %d: hunks do not rebuild new (-want +got):\n%s", i, diff)
		}
		oldPos := 0
		for _, h := range hunks {
			if h.OldStart-1 < oldPos || h.OldStart-1+h.OldCount > len(old) || h.NewStart-1+h.NewCount > len(new) {
				t.Fatalf("case %d: hunk %+v out of order or bounds", i, h)
			}
			oldPos = h.OldStart - 1 + h.OldCount
		}
	}
}
