// Package buffer provides an in-memory line buffer that stands in for an
// editor buffer: ordered lines, a change counter, and a log of the edits
// applied since the log was last drained.
package buffer

import (
	"slices"

	"github.com/youruser/snipstage/internal/diff"
)

// Edit is one line replacement. Start and End are 0-indexed and End is
// exclusive, so Start == End is a pure insertion.
type Edit struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Lines []string `json:"lines"`
}

// Buffer holds the lines of a single named buffer.
type Buffer struct {
	name  string
	lines []string
	tick  int
	edits []Edit
}

// New creates a buffer with a copy of lines.
func New(name string, lines []string) *Buffer {
	return &Buffer{name: name, lines: slices.Clone(lines)}
}

// FromText creates a buffer from file content.
func FromText(name, text string) *Buffer {
	return &Buffer{name: name, lines: diff.SplitLines(text)}
}

// Name returns the buffer's stable identity.
func (b *Buffer) Name() string {
	return b.name
}

// Lines returns a copy of the current lines.
func (b *Buffer) Lines() []string {
	return slices.Clone(b.lines)
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Text returns the content joined with newlines.
func (b *Buffer) Text() string {
	return diff.JoinLines(b.lines)
}

// ChangedTick returns the mutation counter. It only ever grows.
func (b *Buffer) ChangedTick() int {
	return b.tick
}

// SetLines replaces lines [start, end) with repl, records the edit and
// advances the change counter. Out of range bounds are clamped.
func (b *Buffer) SetLines(start, end int, repl []string) {
	start = max(0, min(start, len(b.lines)))
	end = max(start, min(end, len(b.lines)))
	b.lines = diff.Splice(b.lines, start, end, repl)
	b.edits = append(b.edits, Edit{Start: start, End: end, Lines: slices.Clone(repl)})
	b.tick++
}

// Sync overwrites the content with an external copy reported by an editor
// together with its change counter. Identical content with a tick that is
// not newer is a no-op. Otherwise the counter moves to tick, or one past
// the current value when tick would not advance it. The edit log is not
// touched.
func (b *Buffer) Sync(lines []string, tick int) {
	if tick <= b.tick && slices.Equal(b.lines, lines) {
		return
	}
	b.lines = slices.Clone(lines)
	b.tick = max(tick, b.tick+1)
}

// Reload replaces the content when it differs from the current lines and
// reports whether it did. The counter advances only on a real change.
func (b *Buffer) Reload(lines []string) bool {
	if slices.Equal(b.lines, lines) {
		return false
	}
	b.lines = slices.Clone(lines)
	b.tick++
	return true
}

// TakeEdits returns the edits recorded since the last call and clears the log.
func (b *Buffer) TakeEdits() []Edit {
	out := b.edits
	b.edits = nil
	return out
}
