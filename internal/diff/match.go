package diff

import (
	"fmt"
	"strings"
)

// Window is a matched region of a file: 0-indexed first line and the number
// of lines it spans.
type Window struct {
	Start int
	Len   int
}

// Locate finds the first window of lines that matches search line by line
// after trimming surrounding whitespace. Earlier positions win over later
// ones; there is no uniqueness requirement.
func Locate(lines, search []string) (Window, bool) {
	search = trimBlankEdges(search)
	if len(search) == 0 {
		return Window{}, false
	}
	matches := findConsecutive(lines, search, 0, EqualTrimmed)
	if len(matches) == 0 {
		return Window{}, false
	}
	return Window{Start: matches[0], Len: len(search)}, true
}

// LocateAll returns every window that matches search, in file order.
func LocateAll(lines, search []string) []Window {
	search = trimBlankEdges(search)
	if len(search) == 0 {
		return nil
	}
	var out []Window
	for _, pos := range findConsecutive(lines, search, 0, EqualTrimmed) {
		out = append(out, Window{Start: pos, Len: len(search)})
	}
	return out
}

// findConsecutive finds all positions where anchor lines match consecutively
// in the file starting from `from`, using the given comparison function.
func findConsecutive(lines []string, anchor []string, from int, eq func(string, string) bool) []int {
	var matches []int
	limit := len(lines) - len(anchor) + 1
	for i := from; i < limit; i++ {
		found := true
		for j, a := range anchor {
			if !eq(lines[i+j], a) {
				found = false
				break
			}
		}
		if found {
			matches = append(matches, i)
		}
	}
	return matches
}

// trimBlankEdges drops empty lines at both ends of a search block. Models
// tend to pad tag contents with blank lines that are not in the file.
func trimBlankEdges(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

// FormatLineNumbers renders 0-indexed positions as a 1-indexed list.
func FormatLineNumbers(positions []int) string {
	parts := make([]string, len(positions))
	for i, p := range positions {
		parts[i] = fmt.Sprintf("%d", p+1)
	}
	return strings.Join(parts, ", ")
}
