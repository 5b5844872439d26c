package snippet

import (
	"sort"

	"github.com/youruser/snipstage/internal/diff"
)

// Resolve orders one file's snippets by start line and trims overlaps
// against the original content. A snippet that starts inside the previous
// one is accepted only if its leading lines repeat the original text up to
// the previous snippet's end; those lines are dropped from it. Anything
// else is an *OverlapError.
//
// When the file does not exist a single snippet is accepted as a creation;
// several snippets yield a *CreationError.
func Resolve(path string, original []string, exists bool, snippets []Snippet) ([]Snippet, error) {
	sorted := make([]Snippet, len(snippets))
	copy(sorted, snippets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start < sorted[j].Range.Start
	})

	if !exists {
		switch len(sorted) {
		case 0, 1:
			return sorted, nil
		default:
			return nil, &CreationError{Filepath: path, Count: len(sorted)}
		}
	}

	out := make([]Snippet, 0, len(sorted))
	lastEnd := 0
	for _, s := range sorted {
		if s.Range.Start > lastEnd {
			out = append(out, s)
			lastEnd = max(lastEnd, s.Range.End)
			continue
		}

		overlapEnd := min(s.Range.End, lastEnd)
		k := 0
		for line := s.Range.Start; line <= overlapEnd; line++ {
			if k >= len(s.Content) || line > len(original) {
				break
			}
			if !diff.EqualTrimmed(original[line-1], s.Content[k]) {
				break
			}
			k++
		}

		trimmed := s
		trimmed.Range.Start = s.Range.Start + k
		trimmed.Content = s.Content[k:]

		if trimmed.Range.Start <= lastEnd {
			// Nested snippet that only repeats original text: nothing to stage.
			if trimmed.Range.Start > s.Range.End && len(trimmed.Content) == 0 {
				continue
			}
			return nil, &OverlapError{Filepath: path, Start: s.Range.Start, End: s.Range.End, LastEnd: lastEnd}
		}
		out = append(out, trimmed)
		lastEnd = max(lastEnd, trimmed.Range.End)
	}
	return out, nil
}
