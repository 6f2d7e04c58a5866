package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IndexRunes is strings.Index measured in runes instead of bytes.
func IndexRunes(s, sub string) int {
	i := strings.Index(s, sub)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}

// WholeWordMatches returns the rune offsets of the non-overlapping,
// leftmost occurrences of needle in haystack that sit on word boundaries.
func WholeWordMatches(haystack, needle string) []int {
	if needle == "" || len(needle) > len(haystack) {
		return nil
	}
	first, _ := utf8.DecodeRuneInString(needle)
	last, _ := utf8.DecodeLastRuneInString(needle)

	var offsets []int
	pos := 0
	for pos <= len(haystack)-len(needle) {
		i := strings.Index(haystack[pos:], needle)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(needle)
		if boundaryBefore(haystack, start, first) && boundaryAfter(haystack, end, last) {
			offsets = append(offsets, utf8.RuneCountInString(haystack[:start]))
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		pos = start + size
	}
	return offsets
}

// ContainsWholeWord reports whether needle occurs in haystack on word boundaries.
func ContainsWholeWord(haystack, needle string) bool {
	return len(WholeWordMatches(haystack, needle)) > 0
}

func boundaryBefore(s string, at int, next rune) bool {
	prevWord := false
	if at > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:at])
		prevWord = isWordRune(r)
	}
	return prevWord != isWordRune(next)
}

func boundaryAfter(s string, at int, prev rune) bool {
	nextWord := false
	if at < len(s) {
		r, _ := utf8.DecodeRuneInString(s[at:])
		nextWord = isWordRune(r)
	}
	return isWordRune(prev) != nextWord
}
