package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFC normalization and collapses runs of whitespace into
// single spaces, preserving paragraph breaks as single newlines.
func Normalize(text string) string {
	text = norm.NFC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	newline := false
	for _, r := range text {
		switch {
		case r == '\n':
			newline = true
			space = false
		case unicode.IsSpace(r):
			space = true
		default:
			if newline {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				newline = false
				space = false
			} else if space {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				space = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SplitOverlapping slices text into rune-aligned chunks of at most size
// runes, with consecutive chunks sharing overlap runes. Empty input yields
// no chunks. overlap must be smaller than size; the config layer enforces
// this, and the function clamps defensively.
func SplitOverlapping(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	step := size - overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
