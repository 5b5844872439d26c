package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/snipstage/internal/buffer"
)

// countingBuffer counts full reads so tests can tell cache hits from scans.
type countingBuffer struct {
	*buffer.Buffer
	reads int
}

func (c *countingBuffer) Lines() []string {
	c.reads++
	return c.Buffer.Lines()
}

var staged = []string{"a", "<<<<<<< HEAD", "b", "=======", "B", ">>>>>>> Snippet", "c"}

func TestRegistry_CachesByTick(t *testing.T) {
	reg := NewRegistry()
	buf := &countingBuffer{Buffer: buffer.New("a.go", staged)}

	require.Len(t, reg.Watch(buf), 1)
	assert.Equal(t, 1, buf.reads)

	reg.Refresh(buf)
	reg.Refresh(buf)
	assert.Equal(t, 1, buf.reads, "unchanged buffer was rescanned")

	buf.SetLines(0, 1, []string{"z"})
	require.Len(t, reg.Refresh(buf), 1)
	assert.Equal(t, 2, buf.reads)

	reg.Rescan(buf)
	assert.Equal(t, 3, buf.reads)
}

func TestRegistry_StateChange(t *testing.T) {
	reg := NewRegistry()
	type event struct {
		name string
		has  bool
	}
	var events []event
	reg.OnStateChange(func(name string, has bool) { events = append(events, event{name, has}) })

	buf := buffer.New("a.go", staged)
	reg.Watch(buf)
	buf.SetLines(0, 1, []string{"still conflicted"})
	reg.Refresh(buf)
	buf.SetLines(1, 6, []string{"b"})
	reg.Refresh(buf)
	reg.Unwatch("a.go")

	assert.Equal(t, []event{{"a.go", true}, {"a.go", false}}, events)
	assert.False(t, reg.Watched("a.go"))
}

func TestRegistry_Counts(t *testing.T) {
	reg := NewRegistry()
	reg.Watch(buffer.New("a.go", staged))
	reg.Watch(buffer.New("clean.go", []string{"package clean"}))

	assert.True(t, reg.HasConflicts("a.go"))
	assert.Equal(t, 1, reg.Count("a.go"))
	assert.False(t, reg.HasConflicts("clean.go"))
	assert.Zero(t, reg.Count("missing.go"))
	assert.Nil(t, reg.Positions("missing.go"))
	assert.Equal(t, []string{"a.go", "clean.go"}, reg.Names())
}

func TestRegistry_Quickfix(t *testing.T) {
	reg := NewRegistry()
	two := append(append([]string{}, staged...), staged...)
	reg.Watch(buffer.New("z.go", staged))
	reg.Watch(buffer.New("a.go", two))

	got := reg.Quickfix()
	want := []QuickfixEntry{
		{Filepath: "a.go", Line: 2, Text: "<<<<<<< HEAD"},
		{Filepath: "a.go", Line: 9, Text: "<<<<<<< HEAD"},
		{Filepath: "z.go", Line: 2, Text: "<<<<<<< HEAD"},
	}
	assert.Equal(t, want, got)
}

func TestRegistry_PositionsAreCopies(t *testing.T) {
	reg := NewRegistry()
	reg.Watch(buffer.New("a.go", []string{"<<<<<<< a", "x", "||||||| b", "o", "=======", "y", ">>>>>>> c"}))
	p := reg.Positions("a.go")
	p[0].Ancestor.RangeStart = 99
	assert.Equal(t, 2, reg.Positions("a.go")[0].Ancestor.RangeStart)
}
