package conflict

import (
	"sort"
	"strings"
	"sync"
)

// Buffer is the read side of an editor buffer: a stable name, its lines and
// a change counter that grows on every mutation.
type Buffer interface {
	Name() string
	ChangedTick() int
	Lines() []string
}

type entry struct {
	positions []Position
	labels    []string
	tick      int
}

// QuickfixEntry is one conflict in the flat cross-buffer summary.
// Line is 1-indexed.
type QuickfixEntry struct {
	Filepath string `json:"filepath" yaml:"filepath"`
	Line     int    `json:"line" yaml:"line"`
	Text     string `json:"text" yaml:"text"`
}

// Registry caches conflict positions per buffer name and skips rescanning
// buffers whose change counter has not moved. It is safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*entry
	listeners []func(name string, hasConflicts bool)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// OnStateChange registers fn to be called whenever a buffer flips between
// having conflicts and having none.
func (r *Registry) OnStateChange(fn func(name string, hasConflicts bool)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

// Watch starts tracking buf and returns its positions.
func (r *Registry) Watch(buf Buffer) []Position {
	return r.refresh(buf, true)
}

// Unwatch drops the cached state for name.
func (r *Registry) Unwatch(name string) {
	r.mu.Lock()
	e, ok := r.entries[name]
	delete(r.entries, name)
	var fire []func(string, bool)
	if ok && len(e.positions) > 0 {
		fire = r.listeners
	}
	r.mu.Unlock()
	for _, fn := range fire {
		fn(name, false)
	}
}

// Refresh returns buf's positions, rescanning only when its change counter
// differs from the cached one.
func (r *Registry) Refresh(buf Buffer) []Position {
	return r.refresh(buf, false)
}

// Rescan rescans buf regardless of its change counter.
func (r *Registry) Rescan(buf Buffer) []Position {
	return r.refresh(buf, true)
}

func (r *Registry) refresh(buf Buffer, force bool) []Position {
	name := buf.Name()
	tick := buf.ChangedTick()

	r.mu.Lock()
	e, ok := r.entries[name]
	if ok && !force && e.tick == tick {
		out := clonePositions(e.positions)
		r.mu.Unlock()
		return out
	}

	lines := buf.Lines()
	positions := Scan(lines)
	had := ok && len(e.positions) > 0
	if !ok {
		e = &entry{}
		r.entries[name] = e
	}
	e.positions = positions
	e.tick = tick
	e.labels = e.labels[:0]
	for _, p := range positions {
		e.labels = append(e.labels, strings.TrimSpace(lines[p.Start()]))
	}

	has := len(positions) > 0
	var fire []func(string, bool)
	if had != has {
		fire = r.listeners
	}
	out := clonePositions(positions)
	r.mu.Unlock()

	for _, fn := range fire {
		fn(name, has)
	}
	return out
}

// Watched reports whether name is tracked.
func (r *Registry) Watched(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[name]
	return ok
}

// Positions returns the cached positions for name without rescanning.
func (r *Registry) Positions(name string) []Position {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		return clonePositions(e.positions)
	}
	return nil
}

// HasConflicts reports whether name had conflicts at its last scan.
func (r *Registry) HasConflicts(name string) bool {
	return r.Count(name) > 0
}

// Count returns the number of cached conflicts for name.
func (r *Registry) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[name]; ok {
		return len(e.positions)
	}
	return 0
}

// Names returns the tracked buffer names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Quickfix lists every cached conflict across all buffers, sorted by
// buffer name and then line.
func (r *Registry) Quickfix() []QuickfixEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []QuickfixEntry
	for name, e := range r.entries {
		for i, p := range e.positions {
			out = append(out, QuickfixEntry{Filepath: name, Line: p.Start() + 1, Text: e.labels[i]})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Filepath != out[j].Filepath {
			return out[i].Filepath < out[j].Filepath
		}
		return out[i].Line < out[j].Line
	})
	return out
}

func clonePositions(in []Position) []Position {
	if in == nil {
		return nil
	}
	out := make([]Position, len(in))
	for i, p := range in {
		out[i] = p
		if p.Ancestor != nil {
			a := *p.Ancestor
			out[i].Ancestor = &a
		}
	}
	return out
}
