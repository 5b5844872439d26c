// Package stage writes snippets into a buffer as conflict marker blocks so
// the user can accept or reject each proposal in place.
package stage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/youruser/snipstage/internal/diff"
	"github.com/youruser/snipstage/internal/snippet"
)

const (
	MarkerStart = "<<<<<<<"
	MarkerMid   = "======="
	MarkerEnd   = ">>>>>>>"

	DefaultHeadLabel    = "HEAD"
	DefaultSnippetLabel = "Snippet"
)

// ErrRangeOutOfBounds is returned when a snippet starts past the end of the buffer.
var ErrRangeOutOfBounds = errors.New("snippet range outside buffer")

// Buffer is the part of an editor buffer the staging engine needs.
type Buffer interface {
	Lines() []string
	SetLines(start, end int, lines []string)
}

// Options control the emitted markers.
type Options struct {
	HeadLabel    string
	SnippetLabel string
}

func (o Options) startMarker() string {
	label := o.HeadLabel
	if label == "" {
		label = DefaultHeadLabel
	}
	return MarkerStart + " " + label
}

func (o Options) endMarker() string {
	label := o.SnippetLabel
	if label == "" {
		label = DefaultSnippetLabel
	}
	return MarkerEnd + " " + label
}

// Block is the span of one emitted conflict block in the staged buffer,
// 0-indexed and inclusive of both marker lines.
type Block struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Result describes a staging pass.
type Result struct {
	Blocks []Block `json:"blocks"`
}

// Stage replaces each snippet's original range in buf with a conflict
// block holding the original lines and the proposed ones. Snippets must
// be resolved (non-overlapping); they are applied in ascending start order
// while tracking how many lines earlier blocks added.
func Stage(buf Buffer, snippets []snippet.Snippet, opts Options) (Result, error) {
	sorted := make([]snippet.Snippet, len(snippets))
	copy(sorted, snippets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Range.Start < sorted[j].Range.Start
	})

	// Bounds are checked up front so a failing snippet leaves buf untouched.
	n := len(buf.Lines())
	for _, s := range sorted {
		if s.Range.Start < 1 || s.Range.Start-1 > n {
			return Result{}, fmt.Errorf("%w: %s lines %d-%d, buffer has %d lines",
				ErrRangeOutOfBounds, s.Filepath, s.Range.Start, s.Range.End, n)
		}
	}

	var res Result
	offset := 0
	for _, s := range sorted {
		lines := buf.Lines()
		start := s.Range.Start - 1 + offset
		end := max(start, min(s.Range.End+offset, len(lines)))

		original := diff.Slice(lines, start, end)
		content := s.Content
		if start < len(lines) {
			content = matchIndent(content, lines[start])
		}

		block := make([]string, 0, len(original)+len(content)+3)
		block = append(block, opts.startMarker())
		block = append(block, original...)
		block = append(block, MarkerMid)
		block = append(block, content...)
		block = append(block, opts.endMarker())

		buf.SetLines(start, end, block)
		res.Blocks = append(res.Blocks, Block{Start: start, End: start + len(block) - 1})
		offset += len(block) - len(original)
	}
	return res, nil
}

// matchIndent shifts content so its first line carries the indentation of
// the buffer line it lands on.
func matchIndent(content []string, anchor string) []string {
	if len(content) == 0 || strings.TrimSpace(content[0]) == "" || strings.TrimSpace(anchor) == "" {
		return content
	}
	from := diff.LeadingWhitespace(content[0])
	to := diff.LeadingWhitespace(anchor)
	if from == to {
		return content
	}
	return diff.Reindent(content, from, to)
}
