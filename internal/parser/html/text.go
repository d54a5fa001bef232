// Package html extracts the bank table from the downloaded page.
//
// Parsing is done with golang.org/x/net/html; this file holds the small text
// helpers applied to values read out of the tree.
package html

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CollapseWhitespace replaces consecutive whitespace characters with a single
// ASCII space (' ') and trims leading and trailing whitespace.
//
// Whitespace is treated as any of: space, tab, newline, or carriage return.
func CollapseWhitespace(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	seenSpace := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
			if !seenSpace {
				b.WriteByte(' ')
				seenSpace = true
			}
		default:
			b.WriteRune(r)
			seenSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

// nbspToSpace maps U+00A0 and U+202F (narrow no-break space) to ' '.
var nbspToSpace = runes.Map(func(r rune) rune {
	if r == '\u00a0' || r == '\u202f' {
		return ' '
	}
	return r
})

// NormalizeName canonicalizes a bank name read from a title attribute:
// Unicode NFC (composed and decomposed accents compare equal), no-break
// spaces turned into spaces, and whitespace collapsed.
func NormalizeName(s string) string {
	if s == "" {
		return s
	}
	t := transform.Chain(nbspToSpace, norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return CollapseWhitespace(out)
}
