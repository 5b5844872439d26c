package diff

import (
	"slices"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Hunk is one contiguous changed region between an old and a new line list.
// Starts are 1-indexed like unified diff headers; a zero count means the
// hunk is a pure insertion (OldCount 0) or pure deletion (NewCount 0), and
// the start then still names the first line after the change point.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
}

// LineHunks computes the changed regions between old and new, compared
// line by line. Identical inputs yield no hunks.
func LineHunks(old, new []string) []Hunk {
	if slices.Equal(old, new) {
		return nil
	}

	a, b := lineRunes(old, new)
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(a, b, false)

	var hunks []Hunk
	oldPos, newPos := 0, 0
	for i := 0; i < len(diffs); {
		if diffs[i].Type == diffmatchpatch.DiffEqual {
			n := utf8.RuneCountInString(diffs[i].Text)
			oldPos += n
			newPos += n
			i++
			continue
		}

		h := Hunk{OldStart: oldPos + 1, NewStart: newPos + 1}
		for i < len(diffs) && diffs[i].Type != diffmatchpatch.DiffEqual {
			n := utf8.RuneCountInString(diffs[i].Text)
			switch diffs[i].Type {
			case diffmatchpatch.DiffDelete:
				h.OldCount += n
				oldPos += n
			case diffmatchpatch.DiffInsert:
				h.NewCount += n
				newPos += n
			}
			i++
		}
		hunks = append(hunks, h)
	}
	return hunks
}

// lineRunes encodes every distinct line as one rune so the character diff
// runs over whole lines. Each diff chunk then holds one rune per line.
// The surrogate range is skipped since those runes are not valid in a
// Go string.
func lineRunes(old, new []string) ([]rune, []rune) {
	ids := make(map[string]rune, len(old)+len(new))
	next := rune(1)
	encode := func(lines []string) []rune {
		out := make([]rune, len(lines))
		for i, line := range lines {
			r, ok := ids[line]
			if !ok {
				if next >= 0xD800 && next <= 0xDFFF {
					next = 0xE000
				}
				r = next
				ids[line] = r
				next++
			}
			out[i] = r
		}
		return out
	}
	return encode(old), encode(new)
}
