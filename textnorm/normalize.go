package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiPunctuation mirrors the printable ASCII punctuation set.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// NormalizeText decomposes s (NFKD), drops combining marks and lowercases the result.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		// transform only fails on invalid chains; fall back to plain lowercasing
		out = s
	}
	return strings.ToLower(out)
}

// NormalizeSentence splits s on whitespace, strips a trailing possessive from
// each word, normalizes each word and joins them with single spaces.
func NormalizeSentence(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		words = append(words, NormalizeText(StripPossessive(f)))
	}
	return strings.Join(words, " ")
}

// StripPossessive removes a trailing "'s", "s'" or "s" from word.
// Only a lowercase s is stripped; words are folded afterwards.
func StripPossessive(word string) string {
	for _, suffix := range []string{"'s", "’s", "s'", "s’"} {
		if strings.HasSuffix(word, suffix) {
			return word[:len(word)-len(suffix)]
		}
	}
	return strings.TrimSuffix(word, "s")
}

// StripPunctuation deletes every ASCII punctuation character from s.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, s)
}

// KeepLetters deletes every rune that is neither an ASCII letter nor whitespace.
func KeepLetters(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// MatchForm is the canonical form both queries and catalog names are
// compared in: punctuation removed, then sentence-normalized.
func MatchForm(s string) string {
	return NormalizeSentence(StripPunctuation(s))
}
