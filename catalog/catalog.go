package catalog

// Entry is one named entity of the reference dataset. Identity is (Type, ID).
type Entry struct {
	Type       string `yaml:"type"`
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	UniqueName string `yaml:"unique_name"`
}

// Index is an immutable, insertion-ordered collection of catalog entries.
// It is safe for concurrent readers; reloading means building a new Index.
type Index struct {
	entries []Entry
	byType  map[string][]int
}

// NewIndex builds an index over a private copy of entries.
func NewIndex(entries []Entry) *Index {
	copied := make([]Entry, len(entries))
	copy(copied, entries)

	byType := make(map[string][]int)
	for i, e := range copied {
		byType[e.Type] = append(byType[e.Type], i)
	}
	return &Index{entries: copied, byType: byType}
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Entries returns all entries in load order. The slice must not be modified.
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}
	return idx.entries
}

// EntriesOfType returns the entries whose type equals typ exactly, in load order.
func (idx *Index) EntriesOfType(typ string) []Entry {
	if idx == nil {
		return nil
	}
	positions := idx.byType[typ]
	out := make([]Entry, 0, len(positions))
	for _, p := range positions {
		out = append(out, idx.entries[p])
	}
	return out
}

// IDsOfType returns the ids of EntriesOfType(typ).
func (idx *Index) IDsOfType(typ string) []string {
	entries := idx.EntriesOfType(typ)
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
