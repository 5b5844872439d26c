// Package conflict finds conflict marker blocks in buffers, caches their
// positions per buffer and resolves them.
package conflict

import "strings"

const (
	markStart    = "<<<<<<<"
	markAncestor = "|||||||"
	markMiddle   = "======="
	markEnd      = ">>>>>>>"
)

// Range locates one part of a conflict block. All lines are 0-indexed and
// inclusive. RangeStart..RangeEnd covers the part including its marker;
// ContentStart..ContentEnd covers only its text and is empty when
// ContentEnd < ContentStart.
type Range struct {
	RangeStart   int `json:"range_start"`
	RangeEnd     int `json:"range_end"`
	ContentStart int `json:"content_start"`
	ContentEnd   int `json:"content_end"`
}

// Position is one complete conflict block. Current starts at the
// <<<<<<< line, Middle is the ======= line and Incoming ends at the
// >>>>>>> line. Ancestor is set for diff3 style blocks.
type Position struct {
	Current  Range  `json:"current"`
	Middle   Range  `json:"middle"`
	Incoming Range  `json:"incoming"`
	Ancestor *Range `json:"ancestor,omitempty"`
}

// Start returns the line of the opening marker.
func (p Position) Start() int {
	return p.Current.RangeStart
}

// End returns the line of the closing marker.
func (p Position) End() int {
	return p.Incoming.RangeEnd
}

// Contains reports whether line falls within the block's markers.
func (p Position) Contains(line int) bool {
	return line >= p.Start() && line <= p.End()
}

type scanState int

const (
	stateIdle scanState = iota
	stateCurrent
	stateAncestor
	stateIncoming
)

// Scan returns the conflict blocks in lines in order of appearance.
// Parsing is permissive: a start marker abandons any block in progress and
// blocks missing a separator or end marker are dropped silently.
func Scan(lines []string) []Position {
	var (
		out   []Position
		pos   Position
		state = stateIdle
	)
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, markStart):
			pos = Position{Current: Range{RangeStart: i, ContentStart: i + 1}}
			state = stateCurrent

		case strings.HasPrefix(line, markAncestor) && state == stateCurrent:
			pos.Current.RangeEnd = i - 1
			pos.Current.ContentEnd = i - 1
			pos.Ancestor = &Range{RangeStart: i, ContentStart: i + 1}
			state = stateAncestor

		case strings.HasPrefix(line, markMiddle) && (state == stateCurrent || state == stateAncestor):
			if state == stateCurrent {
				pos.Current.RangeEnd = i - 1
				pos.Current.ContentEnd = i - 1
			} else {
				pos.Ancestor.RangeEnd = i - 1
				pos.Ancestor.ContentEnd = i - 1
			}
			pos.Middle = Range{RangeStart: i, RangeEnd: i, ContentStart: i + 1, ContentEnd: i}
			pos.Incoming = Range{RangeStart: i + 1, ContentStart: i + 1}
			state = stateIncoming

		case strings.HasPrefix(line, markEnd) && state == stateIncoming:
			pos.Incoming.RangeEnd = i
			pos.Incoming.ContentEnd = i - 1
			out = append(out, pos)
			pos = Position{}
			state = stateIdle
		}
	}
	return out
}

// content returns the text lines of r.
func content(lines []string, r Range) []string {
	if r.ContentEnd < r.ContentStart || r.ContentStart < 0 || r.ContentEnd >= len(lines) {
		return nil
	}
	return append([]string(nil), lines[r.ContentStart:r.ContentEnd+1]...)
}
