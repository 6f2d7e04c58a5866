package resolver

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"tas-agent/catalog"
	"tas-agent/textnorm"

	"go.uber.org/zap"
)

// stopWords are never matched on their own by either resolver pass.
var stopWords = map[string]struct{}{
	"in": {}, "to": {}, "a": {}, "the": {}, "and": {}, "or": {},
	"of": {}, "is": {}, "are": {}, "on": {}, "at": {}, "for": {},
}

func isStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Candidate is one catalog entry matched against a piece of text.
type Candidate struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Occurrences int    `json:"occurrences"`
}

// preparedEntry holds the match forms of one catalog entry.
type preparedEntry struct {
	entry      catalog.Entry
	nameForm   string
	nameIsStop bool
	aliasWords []string
	idWords    []string
}

type preparedIndex struct {
	source  *catalog.Index
	entries []preparedEntry
}

// Resolver maps free text onto catalog entries.
type Resolver struct {
	source   catalog.Source
	logger   *zap.Logger
	prepared atomic.Pointer[preparedIndex]
}

// New returns a Resolver reading its catalog from source.
func New(source catalog.Source, logger *zap.Logger) *Resolver {
	return &Resolver{source: source, logger: logger}
}

// ResolveEntities runs the name-containment and alias-word passes over text
// and returns the deduplicated candidates ordered by ascending score.
func (r *Resolver) ResolveEntities(ctx context.Context, text string) ([]Candidate, error) {
	return r.resolve(ctx, text, true)
}

// ResolveEntitiesMultiwordOnly is ResolveEntities without the alias-word pass.
func (r *Resolver) ResolveEntitiesMultiwordOnly(ctx context.Context, text string) ([]Candidate, error) {
	return r.resolve(ctx, text, false)
}

func (r *Resolver) resolve(ctx context.Context, text string, withAliases bool) ([]Candidate, error) {
	variant := "multiword"
	if withAliases {
		variant = "full"
	}

	idx, err := r.source.Snapshot(ctx)
	if err != nil {
		resolveCalls.WithLabelValues(variant, "error").Inc()
		return nil, err
	}
	prepared := r.prepare(idx)

	sentence := textnorm.MatchForm(text)
	if sentence == "" {
		resolveCalls.WithLabelValues(variant, "ok").Inc()
		return nil, nil
	}

	hits := nameHits(prepared, sentence)
	if withAliases {
		hits = appendAliasHits(hits, prepared, sentence)
	}
	candidates := score(dedupe(hits), sentence)

	resolveCalls.WithLabelValues(variant, "ok").Inc()
	r.logger.Debug("Resolved entities",
		zap.String("variant", variant),
		zap.Int("hits", len(hits)),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// prepare computes match forms once per catalog snapshot.
func (r *Resolver) prepare(idx *catalog.Index) *preparedIndex {
	if p := r.prepared.Load(); p != nil && p.source == idx {
		return p
	}
	p := &preparedIndex{source: idx, entries: make([]preparedEntry, 0, idx.Len())}
	for _, e := range idx.Entries() {
		nameForm := textnorm.MatchForm(e.Name)
		plainName := strings.TrimSpace(textnorm.NormalizeText(textnorm.StripPunctuation(e.Name)))

		// same form as the sentence words they are compared against
		aliasWords := strings.Fields(textnorm.MatchForm(e.UniqueName))

		var idWords []string
		for _, w := range strings.Split(e.ID, "_") {
			idWords = append(idWords, textnorm.NormalizeText(w))
		}

		p.entries = append(p.entries, preparedEntry{
			entry:      e,
			nameForm:   nameForm,
			nameIsStop: isStopWord(plainName) || isStopWord(nameForm),
			aliasWords: aliasWords,
			idWords:    idWords,
		})
	}
	r.prepared.Store(p)
	return p
}

type hitKey struct {
	typ, id, name string
}

func keyOf(e *preparedEntry) hitKey {
	return hitKey{typ: e.entry.Type, id: e.entry.ID, name: e.entry.Name}
}

// nameHits records every entry whose name form occurs as a whole word.
func nameHits(p *preparedIndex, sentence string) []*preparedEntry {
	var hits []*preparedEntry
	seen := make(map[hitKey]struct{})
	for i := range p.entries {
		e := &p.entries[i]
		if e.nameIsStop || e.nameForm == "" {
			continue
		}
		if !textnorm.ContainsWholeWord(sentence, e.nameForm) {
			continue
		}
		if _, ok := seen[keyOf(e)]; ok {
			continue
		}
		seen[keyOf(e)] = struct{}{}
		hits = append(hits, e)
	}
	return hits
}

// appendAliasHits adds entries whose alias words contain a sentence word.
func appendAliasHits(hits []*preparedEntry, p *preparedIndex, sentence string) []*preparedEntry {
	seen := make(map[hitKey]struct{}, len(hits))
	for _, h := range hits {
		seen[keyOf(h)] = struct{}{}
	}

	for _, word := range strings.Fields(sentence) {
		if isStopWord(word) {
			continue
		}
		for i := range p.entries {
			e := &p.entries[i]
			if _, ok := seen[keyOf(e)]; ok {
				continue
			}
			for _, alias := range e.aliasWords {
				if textnorm.ContainsWholeWord(alias, word) {
					seen[keyOf(e)] = struct{}{}
					hits = append(hits, e)
					break
				}
			}
		}
	}
	return hits
}

// dedupe collapses identical ids (first wins) and drops any id that is a
// strict substring of another candidate's id.
func dedupe(hits []*preparedEntry) []*preparedEntry {
	byID := make(map[string]struct{}, len(hits))
	unique := make([]*preparedEntry, 0, len(hits))
	for _, h := range hits {
		if _, ok := byID[h.entry.ID]; ok {
			continue
		}
		byID[h.entry.ID] = struct{}{}
		unique = append(unique, h)
	}

	kept := make([]*preparedEntry, 0, len(unique))
	for _, h := range unique {
		id := h.entry.ID
		shadowed := false
		for _, other := range unique {
			otherID := other.entry.ID
			if otherID != id && strings.Contains(otherID, id) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			kept = append(kept, h)
		}
	}
	return kept
}

// score computes positional scores and occurrence counts and orders the
// candidates by ascending score, keeping encounter order on ties.
func score(hits []*preparedEntry, sentence string) []Candidate {
	candidates := make([]Candidate, 0, len(hits))
	for _, e := range hits {
		total := 0
		for _, w := range e.idWords {
			if pos := textnorm.IndexRunes(sentence, w); pos >= 0 {
				total += pos
			}
		}
		candidates = append(candidates, Candidate{
			Type:        e.entry.Type,
			ID:          e.entry.ID,
			Name:        e.entry.Name,
			Score:       total,
			Occurrences: len(textnorm.WholeWordMatches(sentence, e.nameForm)),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score < candidates[j].Score
	})
	return candidates
}
