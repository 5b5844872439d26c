package snippet

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/youruser/snipstage/internal/diff"
)

var (
	replaceLinesRe = regexp.MustCompile(`^\s*\d*[.)\s]*(?:[Aa]nd\s+)?[Rr]eplace\s+[Ll]ines:?\s*(\d+)\s*-\s*(\d+)`)
	replaceLineRe  = regexp.MustCompile(`^\s*\d*[.)\s]*(?:[Aa]nd\s+)?[Rr]eplace\s+[Ll]ine:?\s*(\d+)`)
	afterLineRe    = regexp.MustCompile(`^\s*\d*[.)\s]*(?:[Aa]nd\s+)?(?:(?:[Ii]nsert|[Aa]dd|[Aa]ppend)\s+)?[Aa]fter\s+[Ll]ine:?\s*(\d+)`)
	filepathRe     = regexp.MustCompile("^\\s*\\d*[.)\\s]*[Ff]ilepath:\\s*`?([^`]+?)`?\\s*$")
	fenceRe        = regexp.MustCompile("^\\s*```\\s*([\\w+#.-]*)")
	filepathTagRe  = regexp.MustCompile(`<FILEPATH>\s*(.*?)\s*</FILEPATH>`)
)

const (
	tagSearch  = "SEARCH"
	tagReplace = "REPLACE"
	tagThink   = "think"
)

// Options tune extraction.
type Options struct {
	// DefaultFilepath is used for legacy blocks that appear before any
	// Filepath line. Blocks without a path are skipped when it is empty.
	DefaultFilepath string
}

type blockMode int

const (
	modeProse blockMode = iota
	modeFence
	modeSearch
	modeReplace
	modeThink
)

type extractor struct {
	src  Source
	opts Options
	out  *Extraction

	mode        blockMode
	filepath    string
	explanation strings.Builder

	// legacy form
	directive  *Range
	fenceLang  string
	fenceStart int
	body       []string

	// tagged form
	search      []string
	haveSearch  bool
	searchStart int
}

// Extract parses a full (possibly partial, still streaming) response into
// per-file snippets. It only returns syntactically complete snippets and
// never fails on malformed input; matching failures are collected in
// Extraction.Errors. src may be nil when only the legacy form is expected.
func Extract(response string, src Source, opts Options) *Extraction {
	x := &extractor{src: src, opts: opts, out: newExtraction(), filepath: opts.DefaultFilepath}
	for i, line := range strings.Split(strings.ReplaceAll(response, "\r\n", "\n"), "\n") {
		x.line(i+1, line)
	}
	return x.out
}

func (x *extractor) line(n int, line string) {
	switch x.mode {
	case modeThink:
		if _, ok := closeTag(line, tagThink); ok {
			x.mode = modeProse
		}
		return

	case modeSearch:
		if before, ok := closeTag(line, tagSearch); ok {
			if before != "" {
				x.body = append(x.body, before)
			}
			x.search = stripFence(x.body)
			x.haveSearch = true
			x.body = nil
			x.mode = modeProse
			return
		}
		x.body = append(x.body, line)
		return

	case modeReplace:
		if before, ok := closeTag(line, tagReplace); ok {
			if before != "" {
				x.body = append(x.body, before)
			}
			x.emitTagged(n, stripFence(x.body))
			x.body = nil
			x.mode = modeProse
			return
		}
		x.body = append(x.body, line)
		return

	case modeFence:
		if fenceRe.MatchString(line) {
			x.emitLegacy(n)
			x.mode = modeProse
			return
		}
		x.body = append(x.body, line)
		return
	}

	if m := filepathTagRe.FindStringSubmatch(line); m != nil {
		x.filepath = m[1]
		x.haveSearch = false
		x.directive = nil
		return
	}
	if rest, ok := openTag(line, tagThink); ok {
		if _, closed := closeTag(rest, tagThink); !closed {
			x.mode = modeThink
		}
		return
	}
	if rest, ok := openTag(line, tagSearch); ok {
		x.searchStart = n
		x.body = nil
		if before, closed := closeTag(rest, tagSearch); closed {
			if before != "" {
				x.body = append(x.body, before)
			}
			x.search = x.body
			x.haveSearch = true
			x.body = nil
			return
		}
		if rest != "" {
			x.body = append(x.body, rest)
		}
		x.mode = modeSearch
		return
	}
	if rest, ok := openTag(line, tagReplace); ok {
		if !x.haveSearch {
			return
		}
		x.body = nil
		if before, closed := closeTag(rest, tagReplace); closed {
			var content []string
			if before != "" {
				content = []string{before}
			}
			x.emitTagged(n, content)
			return
		}
		if rest != "" {
			x.body = append(x.body, rest)
		}
		x.mode = modeReplace
		return
	}
	if m := filepathRe.FindStringSubmatch(line); m != nil {
		x.filepath = m[1]
		x.directive = nil
		return
	}
	if m := fenceRe.FindStringSubmatch(line); m != nil {
		x.fenceLang = m[1]
		if x.fenceLang == "" {
			x.fenceLang = "text"
		}
		x.fenceStart = n
		x.body = nil
		x.mode = modeFence
		return
	}
	// A directive only applies to the fence right after it.
	if r := parseDirective(line); r != nil {
		x.directive = r
	} else if strings.TrimSpace(line) != "" {
		x.directive = nil
	}
	x.explanation.WriteString(line)
	x.explanation.WriteString("\n")
}

// parseDirective recognizes "Replace lines: a-b", "Replace line: n" and
// "after line n" directives.
func parseDirective(line string) *Range {
	if m := replaceLinesRe.FindStringSubmatch(line); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return &Range{Start: start, End: end}
	}
	if m := replaceLineRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		return &Range{Start: n, End: n}
	}
	if m := afterLineRe.FindStringSubmatch(line); m != nil {
		n, _ := strconv.Atoi(m[1])
		return &Range{Start: n + 1, End: n}
	}
	return nil
}

func (x *extractor) emitLegacy(closeLine int) {
	r := x.directive
	body := x.body
	x.directive = nil
	x.body = nil
	if r == nil {
		return
	}
	if r.Start < 1 || r.End < r.Start-1 {
		x.out.Warnings = append(x.out.Warnings, fmt.Sprintf("skipping invalid line range %d-%d", r.Start, r.End))
		return
	}
	if x.filepath == "" {
		x.out.Warnings = append(x.out.Warnings, fmt.Sprintf("skipping block at response line %d: no filepath", x.fenceStart))
		return
	}
	x.out.add(Snippet{
		Filepath:    x.filepath,
		Range:       *r,
		Content:     body,
		Language:    x.fenceLang,
		Explanation: x.takeExplanation(),
		Provenance:  Range{Start: x.fenceStart, End: closeLine},
	})
}

func (x *extractor) emitTagged(closeLine int, content []string) {
	search := x.search
	x.search = nil
	x.haveSearch = false

	path, r, err := x.locate(x.filepath, search)
	if err != nil {
		x.out.Errors = append(x.out.Errors, err)
		return
	}
	if content == nil {
		content = []string{}
	}
	x.out.add(Snippet{
		Filepath:    path,
		Range:       r,
		Content:     content,
		Language:    LanguageForPath(path),
		Explanation: x.takeExplanation(),
		Provenance:  Range{Start: x.searchStart, End: closeLine},
	})
}

// locate resolves a SEARCH block to a line range. With no path, candidate
// files are tried in lexicographic order and the first match wins.
func (x *extractor) locate(path string, search []string) (string, Range, error) {
	if path != "" {
		r, err := x.locateIn(path, search)
		return path, r, err
	}
	if x.src == nil {
		return "", Range{}, &MatchError{Search: search}
	}
	candidates := append([]string(nil), x.src.Candidates()...)
	sort.Strings(candidates)
	for _, c := range candidates {
		if r, err := x.locateIn(c, search); err == nil {
			return c, r, nil
		}
	}
	return "", Range{}, &MatchError{Search: search}
}

func (x *extractor) locateIn(path string, search []string) (Range, error) {
	var (
		lines  []string
		exists bool
	)
	if x.src != nil {
		var err error
		lines, exists, err = x.src.ReadOriginal(path)
		if err != nil {
			return Range{}, &ReadError{Filepath: path, Err: err}
		}
	}

	if isBlank(search) {
		if !exists {
			return Range{Start: 1, End: 0}, nil
		}
		return Range{Start: len(lines) + 1, End: len(lines)}, nil
	}

	windows := diff.LocateAll(lines, search)
	if len(windows) == 0 {
		return Range{}, &MatchError{Filepath: path, Search: search}
	}
	if len(windows) > 1 {
		starts := make([]int, len(windows))
		for i, w := range windows {
			starts[i] = w.Start
		}
		x.out.Warnings = append(x.out.Warnings, fmt.Sprintf("%s: search block matched at lines %s; using line %d",
			path, diff.FormatLineNumbers(starts), windows[0].Start+1))
	}
	w := windows[0]
	return Range{Start: w.Start + 1, End: w.Start + w.Len}, nil
}

func (x *extractor) takeExplanation() string {
	s := strings.TrimSpace(x.explanation.String())
	x.explanation.Reset()
	return s
}

// openTag reports whether line opens <tag> and returns the text after it.
func openTag(line, tag string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	open := "<" + tag + ">"
	if !strings.HasPrefix(trimmed, open) {
		return "", false
	}
	return trimmed[len(open):], true
}

// closeTag reports whether line ends with </tag> and returns the text before it.
func closeTag(line, tag string) (string, bool) {
	trimmed := strings.TrimRight(line, " \t")
	end := "</" + tag + ">"
	if !strings.HasSuffix(trimmed, end) {
		return "", false
	}
	before := trimmed[:len(trimmed)-len(end)]
	if strings.TrimSpace(before) == "" {
		before = ""
	}
	return before, true
}

// stripFence removes a code fence wrapping an entire tag body.
func stripFence(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if end-start >= 2 && fenceRe.MatchString(lines[start]) && strings.TrimSpace(lines[end-1]) == "```" {
		return lines[start+1 : end-1]
	}
	return lines
}

func isBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
