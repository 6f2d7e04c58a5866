package links

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"tas-agent/resolver"
)

type stubResolver struct {
	full  []resolver.Candidate
	multi []resolver.Candidate
	err   error
}

func (s stubResolver) ResolveEntities(context.Context, string) ([]resolver.Candidate, error) {
	return s.full, s.err
}

func (s stubResolver) ResolveEntitiesMultiwordOnly(context.Context, string) ([]resolver.Candidate, error) {
	return s.multi, s.err
}

var candidates = []resolver.Candidate{
	{Type: "artist", ID: "frida_kahlo", Name: "frida KAHLO"},
	{Type: "movement", ID: "cubism", Name: "Cubism"},
	{Type: "artist", ID: "claude_monet", Name: "Claude Monet"},
}

func TestSourceLinks(t *testing.T) {
	f := NewFormatter(stubResolver{full: candidates}, "https://example.org/")
	got, err := f.SourceLinks(context.Background(), "ignored")
	if err != nil {
		t.Fatal(err)
	}
	want := "Artists: [Frida Kahlo](https://example.org/artist/frida-kahlo/), [Claude Monet](https://example.org/artist/claude-monet/)\n" +
		"Movement: [Cubism](https://example.org/movement/cubism/)"
	if got != want {
		t.Errorf("SourceLinks() =\n%s\nwant\n%s", got, want)
	}
}

func TestSourceLinksEmpty(t *testing.T) {
	f := NewFormatter(stubResolver{}, "")
	got, err := f.SourceLinks(context.Background(), "nothing")
	if err != nil || got != "" {
		t.Errorf("SourceLinks() = %q, %v", got, err)
	}
}

func TestIframeLinks(t *testing.T) {
	multi := append([]resolver.Candidate{}, candidates...)
	multi = append(multi, resolver.Candidate{Type: "movement", ID: "cubism", Name: "Cubism"})
	f := NewFormatter(stubResolver{multi: multi}, "")

	got, err := f.IframeLinks(context.Background(), "ignored")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"https://www.theartstory.org/data/content/dynamic_content/ai-card/artist/frida-kahlo",
		"https://www.theartstory.org/data/content/dynamic_content/ai-card/movement/cubism",
		"https://www.theartstory.org/data/content/dynamic_content/ai-card/artist/claude-monet",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("IframeLinks() = %v, want %v", got, want)
	}
}

func TestArtistImageLinks(t *testing.T) {
	f := NewFormatter(stubResolver{full: candidates}, "")
	got, err := f.ArtistImageLinks(context.Background(), "ignored")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"https://www.theartstory.org/images20/ttip/frida_kahlo.jpg",
		"https://www.theartstory.org/images20/ttip/claude_monet.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ArtistImageLinks() = %v, want %v", got, want)
	}
}

func TestResolverErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	f := NewFormatter(stubResolver{err: boom}, "")
	ctx := context.Background()

	if _, err := f.IframeLinks(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("IframeLinks() error = %v", err)
	}
	if _, err := f.SourceLinks(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("SourceLinks() error = %v", err)
	}
	if _, err := f.ArtistImageLinks(ctx, "x"); !errors.Is(err, boom) {
		t.Errorf("ArtistImageLinks() error = %v", err)
	}
}

func TestGroup(t *testing.T) {
	tests := []struct {
		name string
		refs []Reference
		want string
	}{
		{name: "empty", refs: nil, want: ""},
		{
			name: "single",
			refs: []Reference{{Type: "artwork", Label: "Guernica", URL: "u1"}},
			want: "Artwork: [Guernica](u1)",
		},
		{
			name: "first_seen_type_order",
			refs: []Reference{
				{Type: "movement", Label: "Cubism", URL: "u1"},
				{Type: "artist", Label: "Picasso", URL: "u2"},
				{Type: "movement", Label: "Fauvism", URL: "u3"},
			},
			want: "Movements: [Cubism](u1), [Fauvism](u3)\nArtist: [Picasso](u2)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Group(tt.refs); got != tt.want {
				t.Errorf("Group() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitleWords(t *testing.T) {
	tests := map[string]string{
		"frida KAHLO":      "Frida Kahlo",
		"  claude  monet":  "Claude Monet",
		"vincent van-gogh": "Vincent Van-gogh",
		"georgia o'KEEFFE": "Georgia O'keeffe",
		"édouard manet":    "Édouard Manet",
		"":                 "",
	}
	for in, want := range tests {
		if got := TitleWords(in); got != want {
			t.Errorf("TitleWords(%q) = %q, want %q", in, got, want)
		}
	}
}
