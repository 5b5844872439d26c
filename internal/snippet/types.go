// Package snippet turns assistant responses into file edit proposals and
// reconciles them against the files they target.
package snippet

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Range is a 1-indexed inclusive line range over the original file.
// End < Start denotes an empty range: an insertion before line Start.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Empty reports whether the range covers no original lines.
func (r Range) Empty() bool {
	return r.End < r.Start
}

// Len returns the number of original lines covered.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Snippet is one proposed contiguous replacement of original-file lines.
type Snippet struct {
	Filepath    string   `json:"filepath"`
	Range       Range    `json:"range"`
	Content     []string `json:"content"`
	Language    string   `json:"language,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Provenance  Range    `json:"provenance"` // line range in the response text
}

// Extraction is the result of parsing one response.
type Extraction struct {
	Files    []string             `json:"files"` // paths in order of first appearance
	Snippets map[string][]Snippet `json:"snippets"`
	Errors   []error              `json:"-"`
	Warnings []string             `json:"warnings,omitempty"`
}

func newExtraction() *Extraction {
	return &Extraction{Snippets: make(map[string][]Snippet)}
}

func (e *Extraction) add(s Snippet) {
	if _, ok := e.Snippets[s.Filepath]; !ok {
		e.Files = append(e.Files, s.Filepath)
	}
	e.Snippets[s.Filepath] = append(e.Snippets[s.Filepath], s)
}

// Count returns the total number of snippets across all files.
func (e *Extraction) Count() int {
	n := 0
	for _, list := range e.Snippets {
		n += len(list)
	}
	return n
}

// Source supplies original file content to the extractor.
type Source interface {
	// ReadOriginal returns the file's lines. exists is false when the file
	// is not on disk yet; that is not an error.
	ReadOriginal(path string) (lines []string, exists bool, err error)
	// Candidates lists files a SEARCH block without a FILEPATH may target.
	Candidates() []string
}

// MatchError reports a SEARCH block that matched nothing in its file.
type MatchError struct {
	Filepath string
	Search   []string
}

func (e *MatchError) Error() string {
	target := e.Filepath
	if target == "" {
		target = "any candidate file"
	}
	msg := fmt.Sprintf("%s: search block not found", target)
	if len(e.Search) > 0 {
		msg += fmt.Sprintf(" (first line: %q)", strings.TrimSpace(e.Search[0]))
	}
	return msg
}

// ReadError reports a failure to load a file's original content.
type ReadError struct {
	Filepath string
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: read original: %v", e.Filepath, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// OverlapError reports a snippet whose range overlaps an earlier one in a
// way the original text cannot reconcile.
type OverlapError struct {
	Filepath string
	Start    int
	End      int
	LastEnd  int
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%s: snippet lines %d-%d overlap previous snippet ending at line %d",
		e.Filepath, e.Start, e.End, e.LastEnd)
}

// CreationError reports several snippets targeting a file that does not
// exist, which leaves nothing to reconcile them against.
type CreationError struct {
	Filepath string
	Count    int
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("%s: file does not exist and has %d snippets (creation needs exactly one)",
		e.Filepath, e.Count)
}

var extLanguages = map[string]string{
	".go":    "go",
	".lua":   "lua",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascriptreact",
	".ts":    "typescript",
	".tsx":   "typescriptreact",
	".rs":    "rust",
	".rb":    "ruby",
	".java":  "java",
	".kt":    "kotlin",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "cs",
	".sh":    "sh",
	".bash":  "bash",
	".zsh":   "zsh",
	".md":    "markdown",
	".json":  "json",
	".yaml":  "yaml",
	".yml":   "yaml",
	".toml":  "toml",
	".html":  "html",
	".css":   "css",
	".sql":   "sql",
	".vim":   "vim",
	".swift": "swift",
	".php":   "php",
}

// LanguageForPath infers a fence language from the file extension.
// Unknown extensions map to "text".
func LanguageForPath(path string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "text"
}
