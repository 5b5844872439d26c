package conflict

// Side selects which part of a conflict block survives resolution.
type Side int

const (
	// SideOurs keeps the current (original) text.
	SideOurs Side = iota
	// SideTheirs keeps the incoming (proposed) text.
	SideTheirs
	// SideBoth keeps the current text followed by the incoming text.
	SideBoth
	// SideNone drops the whole block.
	SideNone
	// SideBase keeps the ancestor text of a diff3 block.
	SideBase
	// SideCursor resolves to whichever part holds the cursor.
	SideCursor
)

var sideNames = [...]string{
	SideOurs:   "ours",
	SideTheirs: "theirs",
	SideBoth:   "both",
	SideNone:   "none",
	SideBase:   "base",
	SideCursor: "cursor",
}

func (s Side) String() string {
	if s < 0 || int(s) >= len(sideNames) {
		return "unknown"
	}
	return sideNames[s]
}

// ParseSide maps a side name to a Side. ok is false for unknown names.
func ParseSide(name string) (Side, bool) {
	for i, n := range sideNames {
		if n == name {
			return Side(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
