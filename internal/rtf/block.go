// Package rtf locates embedded RTF payloads in a line stream and reduces
// them to plain text for display. It never interprets formatting.
package rtf

import "strings"

// Signature opens every RTF payload.
const Signature = `{\rtf`

// IsRTF reports whether s starts with the RTF signature, ignoring leading
// blanks.
func IsRTF(s string) bool {
	return strings.HasPrefix(strings.TrimLeft(s, " \t\r\n"), Signature)
}

// Depth returns the net brace balance of line and whether the line holds a
// closing brace. Escaped braces (\{ and \}) are text, not structure, so the
// balance can differ from a raw count of every brace character.
func Depth(line string) (delta int, closes bool) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '{':
			delta++
		case '}':
			delta--
			closes = true
		}
	}
	return delta, closes
}

// Block accumulates the lines of one RTF payload.
type Block struct {
	depth int
	lines []string
	open  bool
}

// Begin starts a block with its first line and reports whether that line
// already closes it.
func (b *Block) Begin(line string) bool {
	b.depth = 0
	b.lines = b.lines[:0]
	b.open = true
	return b.Feed(line)
}

// Feed adds a line and reports whether the block closed on it. The block
// closes when the balance returns to zero on a line containing a '}'.
func (b *Block) Feed(line string) bool {
	if !b.open {
		return true
	}
	b.lines = append(b.lines, line)
	delta, closes := Depth(line)
	b.depth += delta
	if b.depth <= 0 && closes {
		b.open = false
	}
	return !b.open
}

// Open reports whether the block still waits for its closing brace.
func (b *Block) Open() bool {
	return b.open
}

// Depth returns the current nesting depth.
func (b *Block) Depth() int {
	return b.depth
}

// Content returns the accumulated lines joined with newlines.
func (b *Block) Content() string {
	return strings.Join(b.lines, "\n")
}
