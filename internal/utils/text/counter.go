// Package text provides rune-aware helpers shared by the extractor and the synthesizer.
package text

import (
	"strings"
	"unicode/utf8"
)

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Length limits throughout the pipeline are expressed in characters, not bytes.
//
// Examples:
//
//	CountRunes("hello")     // returns 5
//	CountRunes("Zürich")    // returns 6
//	CountRunes("")          // returns 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// Truncate returns at most maxRunes characters of text.
// It never splits a multi-byte character.
func Truncate(text string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == maxRunes {
			return text[:i]
		}
		n++
	}
	return text
}

// CollapseSpace replaces every run of Unicode whitespace with a single
// ASCII space and trims both ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
