package stage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/youruser/snipstage/internal/logging"
	"github.com/youruser/snipstage/internal/snippet"
)

// Target supplies original content and the buffers snippets are staged into.
type Target interface {
	snippet.Source
	Open(path string) (Buffer, error)
}

// PipelineOptions configure Apply.
type PipelineOptions struct {
	Options
	Minimize        bool
	DefaultFilepath string
}

// FileResult is the outcome of staging one file.
type FileResult struct {
	Path     string            `json:"path"`
	Snippets []snippet.Snippet `json:"snippets"`
	Blocks   []Block           `json:"blocks"`
	Created  bool              `json:"created,omitempty"`
}

// FileErrors collects hard errors by file path. The empty path holds
// errors that could not be tied to a file.
type FileErrors map[string]error

func (fe FileErrors) add(path string, err error) {
	if prev, ok := fe[path]; ok {
		fe[path] = errors.Join(prev, err)
		return
	}
	fe[path] = err
}

func (fe FileErrors) Error() string {
	paths := make([]string, 0, len(fe))
	for p := range fe {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	msgs := make([]string, 0, len(paths))
	for _, p := range paths {
		msgs = append(msgs, fe[p].Error())
	}
	return strings.Join(msgs, "; ")
}

// Err returns fe as an error, or nil when it is empty.
func (fe FileErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Report is the outcome of a full pipeline run.
type Report struct {
	Extraction *snippet.Extraction `json:"extraction"`
	Files      []FileResult        `json:"files"`
	Errors     FileErrors          `json:"-"`
}

// Apply extracts snippets from response, resolves overlaps per file,
// optionally minimizes them, and stages them into the target's buffers.
// A file with a hard error is reported in Report.Errors and left as it
// is; other files are still staged.
func Apply(response string, target Target, opts PipelineOptions) *Report {
	log := logging.Get()
	x := snippet.Extract(response, target, snippet.Options{DefaultFilepath: opts.DefaultFilepath})
	rep := &Report{Extraction: x, Errors: GroupErrors(x.Errors)}

	for _, w := range x.Warnings {
		log.Debug("extract: %s", w)
	}

	for _, path := range x.Files {
		if _, failed := rep.Errors[path]; failed {
			continue
		}
		fr, err := stageFile(target, path, x.Snippets[path], opts)
		if err != nil {
			log.Error("stage %s: %v", path, err)
			rep.Errors.add(path, err)
			continue
		}
		if fr != nil {
			rep.Files = append(rep.Files, *fr)
		}
	}
	return rep
}

func stageFile(target Target, path string, snippets []snippet.Snippet, opts PipelineOptions) (*FileResult, error) {
	original, exists, err := target.ReadOriginal(path)
	if err != nil {
		return nil, &snippet.ReadError{Filepath: path, Err: err}
	}
	resolved, err := snippet.Resolve(path, original, exists, snippets)
	if err != nil {
		return nil, err
	}
	if opts.Minimize && exists {
		resolved = snippet.MinimizeAll(original, resolved)
	}
	if len(resolved) == 0 {
		logging.Get().Debug("stage %s: no changes after minimizing", path)
		return nil, nil
	}

	buf, err := target.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: open buffer: %w", path, err)
	}
	res, err := Stage(buf, resolved, opts.Options)
	if err != nil {
		return nil, err
	}
	return &FileResult{Path: path, Snippets: resolved, Blocks: res.Blocks, Created: !exists}, nil
}

// GroupErrors keys extraction errors by the file they concern. Errors
// that name no file are kept under the empty path.
func GroupErrors(errs []error) FileErrors {
	fe := FileErrors{}
	for _, err := range errs {
		fe.add(errorPath(err), err)
	}
	return fe
}

func errorPath(err error) string {
	var me *snippet.MatchError
	if errors.As(err, &me) {
		return me.Filepath
	}
	var re *snippet.ReadError
	if errors.As(err, &re) {
		return re.Filepath
	}
	return ""
}
