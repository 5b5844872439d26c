package diff

import "strings"

// SplitLines splits file content into lines. Handles both LF and CRLF.
// A trailing newline does not produce an extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}

// JoinLines joins lines back into file content with a trailing newline.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Splice replaces lines[start:end] (0-indexed, end exclusive) with
// replacement and returns the new slice. The input is not modified.
// Out-of-range bounds are clamped.
func Splice(lines []string, start, end int, replacement []string) []string {
	start, end = clamp(start, end, len(lines))
	out := make([]string, 0, len(lines)-(end-start)+len(replacement))
	out = append(out, lines[:start]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)
	return out
}

// Slice returns a copy of lines[start:end] with clamped bounds.
func Slice(lines []string, start, end int) []string {
	start, end = clamp(start, end, len(lines))
	out := make([]string, end-start)
	copy(out, lines[start:end])
	return out
}

func clamp(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}

// LeadingWhitespace returns the run of spaces and tabs at the start of line.
func LeadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// Reindent swaps the indentation prefix from on every line that carries it
// for to. Lines that do not start with from (blank lines, dedented
// trailers) are kept as they are.
func Reindent(lines []string, from, to string) []string {
	if from == to {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.HasPrefix(line, from) && strings.TrimSpace(line) != "" {
			out[i] = to + line[len(from):]
		} else {
			out[i] = line
		}
	}
	return out
}

// EqualTrimmed compares two lines ignoring leading and trailing whitespace.
func EqualTrimmed(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
