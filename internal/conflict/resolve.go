package conflict

import (
	"errors"
	"strings"
)

// ErrNoConflict is returned when no conflict block covers the requested line.
var ErrNoConflict = errors.New("no conflict at line")

// Editable is a buffer the resolver can rewrite. SetLines replaces the
// 0-indexed lines [start, end) with lines.
type Editable interface {
	Buffer
	SetLines(start, end int, lines []string)
}

// Resolver applies side choices to conflict blocks and keeps the registry
// current after every rewrite.
type Resolver struct {
	Registry *Registry
}

// NewResolver creates a resolver backed by reg.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{Registry: reg}
}

// Choose replaces the block at pos with the text for side and reports
// whether the buffer changed. cursor is the 0-indexed cursor line and only
// matters for SideCursor. Choices that cannot apply (Base without an
// ancestor, a cursor on the separator, a stale position) do nothing.
func (r *Resolver) Choose(buf Editable, pos Position, side Side, cursor int) bool {
	lines := buf.Lines()
	if pos.Start() < 0 || pos.End() >= len(lines) || pos.Start() > pos.End() {
		return false
	}
	if !strings.HasPrefix(lines[pos.Start()], markStart) || !strings.HasPrefix(lines[pos.End()], markEnd) {
		return false
	}

	repl, ok := replacement(lines, pos, side, cursor)
	if !ok {
		return false
	}
	buf.SetLines(pos.Start(), pos.End()+1, repl)
	r.Registry.Rescan(buf)
	return true
}

func replacement(lines []string, pos Position, side Side, cursor int) ([]string, bool) {
	switch side {
	case SideOurs:
		return nonNil(content(lines, pos.Current)), true
	case SideTheirs:
		return nonNil(content(lines, pos.Incoming)), true
	case SideBoth:
		both := content(lines, pos.Current)
		return nonNil(append(both, content(lines, pos.Incoming)...)), true
	case SideNone:
		return []string{}, true
	case SideBase:
		if pos.Ancestor == nil {
			return nil, false
		}
		return nonNil(content(lines, *pos.Ancestor)), true
	case SideCursor:
		resolved, ok := sideAt(pos, cursor)
		if !ok {
			return nil, false
		}
		return replacement(lines, pos, resolved, cursor)
	}
	return nil, false
}

// sideAt maps a cursor line to the part of pos that holds it.
func sideAt(pos Position, line int) (Side, bool) {
	within := func(r Range) bool { return line >= r.RangeStart && line <= r.RangeEnd }
	switch {
	case within(pos.Current):
		return SideOurs, true
	case within(pos.Incoming):
		return SideTheirs, true
	case pos.Ancestor != nil && within(*pos.Ancestor):
		return SideBase, true
	}
	return 0, false
}

func nonNil(lines []string) []string {
	if lines == nil {
		return []string{}
	}
	return lines
}

// ChooseAtCursor resolves the block containing the 0-indexed cursor line.
func (r *Resolver) ChooseAtCursor(buf Editable, cursor int, side Side) (bool, error) {
	for _, p := range r.Registry.Refresh(buf) {
		if p.Contains(cursor) {
			return r.Choose(buf, p, side, cursor), nil
		}
	}
	return false, ErrNoConflict
}

// ChooseRange resolves every block lying fully inside the 0-indexed lines
// [start, end] and returns how many were resolved. The range end follows
// the line count changes of each resolution. The loop runs at most once
// per block that was in range at the start.
func (r *Resolver) ChooseRange(buf Editable, start, end int, side Side) int {
	bound := len(inRange(r.Registry.Refresh(buf), start, end))
	resolved, skipped := 0, 0
	for n := 0; n < bound; n++ {
		candidates := inRange(r.Registry.Refresh(buf), start, end)
		if skipped >= len(candidates) {
			break
		}
		p := candidates[skipped]
		before := len(buf.Lines())
		if !r.Choose(buf, p, side, -1) {
			skipped++
			continue
		}
		end += len(buf.Lines()) - before
		resolved++
	}
	return resolved
}

// ChooseAll resolves every block in buf with side.
func (r *Resolver) ChooseAll(buf Editable, side Side) int {
	lines := buf.Lines()
	return r.ChooseRange(buf, 0, max(len(lines)-1, 0), side)
}

func inRange(positions []Position, start, end int) []Position {
	var out []Position
	for _, p := range positions {
		if p.Start() >= start && p.End() <= end {
			out = append(out, p)
		}
	}
	return out
}

// FindNext returns the first block whose opening marker is at or after
// the 0-indexed line from. There is no wraparound.
func (r *Resolver) FindNext(buf Buffer, from int) (Position, bool) {
	for _, p := range r.Registry.Refresh(buf) {
		if p.Start() >= from {
			return p, true
		}
	}
	return Position{}, false
}

// FindPrev returns the last block whose opening marker is at or before
// the 0-indexed line from. There is no wraparound.
func (r *Resolver) FindPrev(buf Buffer, from int) (Position, bool) {
	positions := r.Registry.Refresh(buf)
	for i := len(positions) - 1; i >= 0; i-- {
		if positions[i].Start() <= from {
			return positions[i], true
		}
	}
	return Position{}, false
}
