package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Path validation errors.
var (
	ErrPathEscape  = errors.New("path escapes project root")
	ErrInvalidPath = errors.New("invalid path")
)

// SafeJoin joins root with a path named in a response and returns the
// absolute result. Absolute paths are accepted only when they already lie
// under root.
func SafeJoin(root, path string) (string, error) {
	if path == "" || strings.ContainsRune(path, '\x00') {
		return "", ErrInvalidPath
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	joined := path
	if !filepath.IsAbs(path) {
		joined = filepath.Join(absRoot, path)
	}
	joined = filepath.Clean(joined)
	if _, err := relInside(absRoot, joined); err != nil {
		return "", err
	}
	return joined, nil
}

// Rel returns target relative to root using forward slashes, the form
// buffer names and quickfix entries use.
func Rel(root, target string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	rel, err := relInside(absRoot, absTarget)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// CheckWritable follows symlinks on both sides and fails with
// ErrPathEscape when target would land outside root.
func CheckWritable(root, target string) error {
	realRoot, err := resolveExisting(root)
	if err != nil {
		return err
	}
	realTarget, err := resolveExisting(target)
	if err != nil {
		return err
	}
	_, err = relInside(realRoot, realTarget)
	return err
}

func relInside(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	// "..foo" is a valid name, only a leading ".." element escapes.
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrPathEscape
	}
	return rel, nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of
// path and re-attaches the missing tail.
func resolveExisting(path string) (string, error) {
	current, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}
