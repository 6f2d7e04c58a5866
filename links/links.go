package links

import (
	"context"
	"fmt"
	"strings"

	"tas-agent/resolver"
)

// DefaultBaseURL is the site the generated links point at.
const DefaultBaseURL = "https://www.theartstory.org"

// EntityResolver is the subset of resolver.Resolver the formatter needs.
type EntityResolver interface {
	ResolveEntities(ctx context.Context, text string) ([]resolver.Candidate, error)
	ResolveEntitiesMultiwordOnly(ctx context.Context, text string) ([]resolver.Candidate, error)
}

// Formatter turns resolved catalog matches into citation strings and URLs.
type Formatter struct {
	resolver EntityResolver
	baseURL  string
}

// NewFormatter returns a Formatter building links under baseURL.
func NewFormatter(r EntityResolver, baseURL string) *Formatter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Formatter{resolver: r, baseURL: strings.TrimRight(baseURL, "/")}
}

// Slug converts a catalog id to its URL path form.
func Slug(id string) string {
	return strings.ReplaceAll(id, "_", "-")
}

// IframeURL is the embeddable card for one entry.
func (f *Formatter) IframeURL(typ, id string) string {
	return fmt.Sprintf("%s/data/content/dynamic_content/ai-card/%s/%s", f.baseURL, typ, Slug(id))
}

// SourceURL is the article page for one entry.
func (f *Formatter) SourceURL(typ, id string) string {
	return fmt.Sprintf("%s/%s/%s/", f.baseURL, typ, Slug(id))
}

// ImageURL is the tooltip portrait for an artist id.
func (f *Formatter) ImageURL(id string) string {
	return fmt.Sprintf("%s/images20/ttip/%s.jpg", f.baseURL, id)
}

// IframeLinks returns one card URL per distinct entry matched by the
// multi-word resolver, in ranking order.
func (f *Formatter) IframeLinks(ctx context.Context, sentence string) ([]string, error) {
	candidates, err := f.resolver.ResolveEntitiesMultiwordOnly(ctx, sentence)
	if err != nil {
		return nil, err
	}
	urls := newURLSet(len(candidates))
	for _, c := range candidates {
		urls.add(f.IframeURL(c.Type, c.ID))
	}
	return urls.items, nil
}

// SourceLinks returns the Markdown citation block for sentence.
func (f *Formatter) SourceLinks(ctx context.Context, sentence string) (string, error) {
	candidates, err := f.resolver.ResolveEntities(ctx, sentence)
	if err != nil {
		return "", err
	}
	refs := make([]Reference, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, Reference{
			Type:  c.Type,
			Label: TitleWords(c.Name),
			URL:   f.SourceURL(c.Type, c.ID),
		})
	}
	return Group(refs), nil
}

// ArtistImageLinks returns the portrait URLs of matched artists.
func (f *Formatter) ArtistImageLinks(ctx context.Context, sentence string) ([]string, error) {
	candidates, err := f.resolver.ResolveEntities(ctx, sentence)
	if err != nil {
		return nil, err
	}
	urls := newURLSet(len(candidates))
	for _, c := range candidates {
		if c.Type == "artist" {
			urls.add(f.ImageURL(c.ID))
		}
	}
	return urls.items, nil
}

// TitleWords capitalizes every whitespace separated word of s and
// lowercases the rest of it.
func TitleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

type urlSet struct {
	seen  map[string]struct{}
	items []string
}

func newURLSet(n int) *urlSet {
	return &urlSet{seen: make(map[string]struct{}, n), items: make([]string, 0, n)}
}

func (s *urlSet) add(u string) {
	if _, ok := s.seen[u]; ok {
		return
	}
	s.seen[u] = struct{}{}
	s.items = append(s.items, u)
}
