package resolver

import (
	"math"
	"strings"

	"tas-agent/textnorm"
)

// probeLength is how many leading characters of a query the selector looks at.
const probeLength = 50

// extendedStopWords adds pronouns and auxiliaries to the resolver's stop words.
var extendedStopWords = map[string]struct{}{
	"in": {}, "to": {}, "a": {}, "the": {}, "and": {}, "or": {},
	"of": {}, "is": {}, "are": {}, "on": {}, "at": {}, "for": {},
	"was": {}, "were": {}, "has": {}, "have": {}, "had": {}, "did": {},
	"do": {}, "does": {}, "it": {}, "its": {}, "his": {}, "him": {},
	"her": {}, "an": {}, "they": {}, "their": {}, "them": {},
}

func isExtendedStopWord(w string) bool {
	_, ok := extendedStopWords[w]
	return ok
}

// BestMatchID returns the single best id for text, or false when none matches.
func BestMatchID(ids []string, text string) (string, bool) {
	id, score := BestMatchIDWithScore(ids, text)
	return id, !math.IsInf(score, 1)
}

// BestMatchIDWithScore picks the id whose non-stop sub-words all appear in the
// probe built from text, minimising the sum of their positions. An equal
// score never replaces an earlier candidate. With no match it returns
// ("", +Inf).
func BestMatchIDWithScore(ids []string, text string) (string, float64) {
	p := probe(text)

	best, bestScore := "", math.Inf(1)
	for _, id := range ids {
		total, ok := probeScore(p, id)
		if ok && float64(total) < bestScore {
			best, bestScore = id, float64(total)
		}
	}
	return best, bestScore
}

// probe reduces the head of text to its content words in reverse order,
// joined like an id.
func probe(text string) string {
	head := []rune(text)
	if len(head) > probeLength {
		head = head[:probeLength]
	}
	s := strings.ReplaceAll(string(head), "\n", "")
	s = textnorm.NormalizeSentence(s)
	s = textnorm.StripPunctuation(s)
	s = textnorm.KeepLetters(s)

	var words []string
	for _, w := range strings.Fields(s) {
		if !isExtendedStopWord(strings.ToLower(w)) {
			words = append(words, w)
		}
	}
	for i, j := 0, len(words)-1; i < j; i, j = i+1, j-1 {
		words[i], words[j] = words[j], words[i]
	}
	return strings.Join(words, "_")
}

func probeScore(probe, id string) (int, bool) {
	total := 0
	for _, w := range strings.Split(textnorm.NormalizeText(id), "_") {
		if isExtendedStopWord(w) {
			continue
		}
		pos := strings.Index(probe, w)
		if pos < 0 {
			return 0, false
		}
		total += pos
	}
	return total, true
}
