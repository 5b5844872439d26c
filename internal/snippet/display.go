package snippet

import (
	"strings"
)

// DefaultSpinner is the indicator animation used while a block is open.
var DefaultSpinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// DisplayOptions tune the transcript rendering.
type DisplayOptions struct {
	Spinner []string
}

// Display rebuilds the user-facing transcript for the accumulated raw
// response text. It is re-derived from scratch for every chunk.
//
// SEARCH bodies are hidden; while a SEARCH block is still open the
// transcript stops before it and ends in a "searching" indicator. REPLACE
// bodies are shown as fenced code. Finished think blocks become a quoted
// aside; an open one is quoted and followed by a "thinking" indicator.
func Display(raw string, opts DisplayOptions) string {
	frames := opts.Spinner
	if len(frames) == 0 {
		frames = DefaultSpinner
	}
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	frame := frames[len(lines)%len(frames)]

	var (
		out       []string
		thought   []string
		lang      = "text"
		inSearch  bool
		inReplace bool
		inThink   bool
	)

	for _, line := range lines {
		switch {
		case inThink:
			if before, ok := closeTag(line, tagThink); ok {
				if before != "" {
					thought = append(thought, before)
				}
				out = append(out, quoteThought(thought)...)
				thought = nil
				inThink = false
				continue
			}
			thought = append(thought, line)
			continue

		case inSearch:
			if _, ok := closeTag(line, tagSearch); ok {
				inSearch = false
			}
			continue

		case inReplace:
			if before, ok := closeTag(line, tagReplace); ok {
				if before != "" {
					out = append(out, before)
				}
				out = append(out, "```")
				inReplace = false
				continue
			}
			out = append(out, line)
			continue
		}

		if m := filepathTagRe.FindStringSubmatch(line); m != nil {
			lang = LanguageForPath(m[1])
			out = append(out, "Filepath: "+m[1])
			continue
		}
		if rest, ok := openTag(line, tagThink); ok {
			if before, closed := closeTag(rest, tagThink); closed {
				out = append(out, quoteThought([]string{before})...)
				continue
			}
			if rest != "" {
				thought = append(thought, rest)
			}
			inThink = true
			continue
		}
		if rest, ok := openTag(line, tagSearch); ok {
			if _, closed := closeTag(rest, tagSearch); !closed {
				inSearch = true
			}
			continue
		}
		if rest, ok := openTag(line, tagReplace); ok {
			out = append(out, "```"+lang)
			if before, closed := closeTag(rest, tagReplace); closed {
				if before != "" {
					out = append(out, before)
				}
				out = append(out, "```")
				continue
			}
			if rest != "" {
				out = append(out, rest)
			}
			inReplace = true
			continue
		}
		out = append(out, line)
	}

	switch {
	case inSearch:
		out = append(out, frame+" searching...")
	case inThink:
		out = append(out, quoteLines(thought)...)
		out = append(out, frame+" thinking...")
	case inReplace:
		out = append(out, "```")
	}
	return strings.Join(out, "\n")
}

func quoteThought(lines []string) []string {
	return append([]string{"> Thought:"}, quoteLines(lines)...)
}

func quoteLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l == "" {
			out = append(out, ">")
			continue
		}
		out = append(out, "> "+l)
	}
	return out
}
