// Package workspace maps response file paths onto a project directory. It
// serves original file content to the extractor, keeps one buffer per
// touched file and writes buffers back to disk.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/youruser/snipstage/internal/buffer"
	"github.com/youruser/snipstage/internal/diff"
	"github.com/youruser/snipstage/internal/stage"
)

// skipDirs are never offered as SEARCH candidates.
var skipDirs = map[string]bool{
	".git":         true,
	".snipstage":   true,
	"node_modules": true,
	"vendor":       true,
}

// Workspace is a project root plus the buffers opened under it.
type Workspace struct {
	root       string
	buffers    map[string]*buffer.Buffer
	candidates []string
}

// New opens the project rooted at root, which must be a directory.
func New(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w: not a directory", root, ErrInvalidPath)
	}
	return &Workspace{root: abs, buffers: make(map[string]*buffer.Buffer)}, nil
}

// Root returns the absolute project root.
func (w *Workspace) Root() string {
	return w.root
}

// Name converts a path from a response or the command line into the
// buffer name used for it: slash separated and relative to the root.
func (w *Workspace) Name(path string) (string, error) {
	abs, err := SafeJoin(w.root, path)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return Rel(w.root, abs)
}

// SetCandidates restricts the files tried for SEARCH blocks without a
// FILEPATH. With no explicit list every file under the root is a candidate.
func (w *Workspace) SetCandidates(paths []string) {
	w.candidates = append([]string(nil), paths...)
}

// Candidates implements snippet.Source.
func (w *Workspace) Candidates() []string {
	if w.candidates != nil {
		return append([]string(nil), w.candidates...)
	}
	var out []string
	_ = filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if rel, err := Rel(w.root, path); err == nil {
			out = append(out, rel)
		}
		return nil
	})
	sort.Strings(out)
	return out
}

// ReadOriginal implements snippet.Source. An open buffer wins over the
// file on disk; a missing file reports exists=false.
func (w *Workspace) ReadOriginal(path string) ([]string, bool, error) {
	name, err := w.Name(path)
	if err != nil {
		return nil, false, err
	}
	if b, ok := w.buffers[name]; ok {
		return b.Lines(), true, nil
	}
	data, err := os.ReadFile(filepath.Join(w.root, filepath.FromSlash(name)))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return diff.SplitLines(string(data)), true, nil
}

// Buffer returns the buffer for path, loading it from disk on first use.
// A file that does not exist yet opens as an empty buffer.
func (w *Workspace) Buffer(path string) (*buffer.Buffer, error) {
	name, err := w.Name(path)
	if err != nil {
		return nil, err
	}
	if b, ok := w.buffers[name]; ok {
		return b, nil
	}
	lines, _, err := w.ReadOriginal(name)
	if err != nil {
		return nil, err
	}
	b := buffer.New(name, lines)
	w.buffers[name] = b
	return b, nil
}

// Open implements stage.Target.
func (w *Workspace) Open(path string) (stage.Buffer, error) {
	b, err := w.Buffer(path)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Reload rereads path from disk into its buffer, opening it if needed,
// and reports whether the content changed.
func (w *Workspace) Reload(path string) (*buffer.Buffer, bool, error) {
	name, err := w.Name(path)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(filepath.Join(w.root, filepath.FromSlash(name)))
	if err != nil && !os.IsNotExist(err) {
		return nil, false, err
	}
	b, ok := w.buffers[name]
	if !ok {
		b = buffer.New(name, diff.SplitLines(string(data)))
		w.buffers[name] = b
		return b, true, nil
	}
	return b, b.Reload(diff.SplitLines(string(data))), nil
}

// Forget drops the buffer for path without saving it.
func (w *Workspace) Forget(path string) {
	if name, err := w.Name(path); err == nil {
		delete(w.buffers, name)
	}
}

// Buffers returns the open buffers sorted by name.
func (w *Workspace) Buffers() []*buffer.Buffer {
	out := make([]*buffer.Buffer, 0, len(w.buffers))
	for _, b := range w.buffers {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Save writes the buffer for path to disk, creating parent directories.
func (w *Workspace) Save(path string) error {
	name, err := w.Name(path)
	if err != nil {
		return err
	}
	b, ok := w.buffers[name]
	if !ok {
		return fmt.Errorf("%s: no open buffer", name)
	}
	dest := filepath.Join(w.root, filepath.FromSlash(name))
	if err := CheckWritable(w.root, dest); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(b.Text()), 0644)
}
