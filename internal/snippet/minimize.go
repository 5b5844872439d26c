package snippet

import (
	"github.com/youruser/snipstage/internal/diff"
)

// Minimize shrinks a snippet to the sub-ranges that actually change. Each
// diff hunk between the original range and the proposed content becomes
// its own snippet; a snippet that changes nothing yields none.
// Pure insertions are returned unchanged.
func Minimize(original []string, s Snippet) []Snippet {
	if s.Range.Empty() {
		return []Snippet{s}
	}

	lo := s.Range.Start - 1
	hi := min(s.Range.End, len(original))
	var old []string
	if lo < hi {
		old = original[lo:hi]
	}

	hunks := diff.LineHunks(old, s.Content)
	out := make([]Snippet, 0, len(hunks))
	for _, h := range hunks {
		m := s
		m.Range = Range{
			Start: s.Range.Start + h.OldStart - 1,
			End:   s.Range.Start + h.OldStart + h.OldCount - 2,
		}
		m.Content = append([]string{}, s.Content[h.NewStart-1:h.NewStart-1+h.NewCount]...)
		out = append(out, m)
	}
	return out
}

// MinimizeAll minimizes every snippet of a resolved, ordered list.
func MinimizeAll(original []string, snippets []Snippet) []Snippet {
	var out []Snippet
	for _, s := range snippets {
		out = append(out, Minimize(original, s)...)
	}
	return out
}
