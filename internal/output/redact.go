package output

import "strings"

// isDumpLine reports whether a line belongs to the instance dump: the dump
// header itself, or a line starting with one of the dump keys once leading
// whitespace is dropped. It does not depend on section state, so lines that
// look like dump content are removed wherever they appear.
func isDumpLine(line string) bool {
	if strings.TrimSpace(line) == markerDumpStart {
		return true
	}
	left := strings.TrimLeft(line, " \t")
	for _, m := range dumpKinds {
		if strings.HasPrefix(left, m.marker) {
			return true
		}
	}
	return setLine.MatchString(left)
}

// Redact returns text with every instance-dump line removed. Remaining lines
// are kept verbatim and in order, and the result always ends with exactly one
// newline. Redact(Redact(x)) == Redact(x).
func Redact(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 1)
	for _, line := range splitLines(text) {
		if isDumpLine(line) {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return "\n"
	}
	return b.String()
}

// RedactedCount returns how many lines Redact would remove from text.
func RedactedCount(text string) int {
	n := 0
	for _, line := range splitLines(text) {
		if isDumpLine(line) {
			n++
		}
	}
	return n
}
