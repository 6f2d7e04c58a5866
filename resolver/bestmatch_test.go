package resolver

import (
	"math"
	"strings"
	"testing"
)

func TestBestMatchIDWithScore(t *testing.T) {
	tests := []struct {
		name      string
		ids       []string
		text      string
		wantID    string
		wantScore float64
	}{
		{
			name:      "possessive_query",
			ids:       []string{"pablo_picasso", "frida_kahlo"},
			text:      "Tell me about Frida Kahlo's paintings",
			wantID:    "frida_kahlo",
			wantScore: 24,
		},
		{
			name:      "lowest_score_wins",
			ids:       []string{"claude_monet", "monet"},
			text:      "Claude Monet",
			wantID:    "monet",
			wantScore: 0,
		},
		{
			name:      "tie_keeps_first",
			ids:       []string{"monet_claude", "claude_monet"},
			text:      "Claude Monet",
			wantID:    "monet_claude",
			wantScore: 6,
		},
		{
			name:      "tie_keeps_first_reversed",
			ids:       []string{"claude_monet", "monet_claude"},
			text:      "Claude Monet",
			wantID:    "claude_monet",
			wantScore: 6,
		},
		{
			name:      "stop_word_sub_words_skipped",
			ids:       []string{"the_scream"},
			text:      "Munch painted The Scream",
			wantID:    "the_scream",
			wantScore: 0,
		},
		{
			name:      "no_candidate_matches",
			ids:       []string{"pablo_picasso"},
			text:      "Frida",
			wantID:    "",
			wantScore: math.Inf(1),
		},
		{
			name:      "only_first_fifty_characters",
			ids:       []string{"frida_kahlo"},
			text:      strings.Repeat("x ", 30) + "Frida Kahlo",
			wantID:    "",
			wantScore: math.Inf(1),
		},
		{
			name:      "no_candidates",
			ids:       nil,
			text:      "Frida Kahlo",
			wantID:    "",
			wantScore: math.Inf(1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, score := BestMatchIDWithScore(tt.ids, tt.text)
			if id != tt.wantID || score != tt.wantScore {
				t.Errorf("BestMatchIDWithScore() = (%q, %v), want (%q, %v)", id, score, tt.wantID, tt.wantScore)
			}

			gotID, ok := BestMatchID(tt.ids, tt.text)
			if gotID != tt.wantID || ok != (tt.wantID != "") {
				t.Errorf("BestMatchID() = (%q, %v)", gotID, ok)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "Tell me about Frida Kahlo's paintings", want: "painting_kahlo_frida_about_me_tell"},
		{text: "Did they paint\nin 1872?", want: "paintin"},
		{text: "", want: ""},
	}
	for _, tt := range tests {
		if got := probe(tt.text); got != tt.want {
			t.Errorf("probe(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
