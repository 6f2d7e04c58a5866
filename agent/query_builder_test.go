package agent

import (
	"testing"

	"tas-agent/web/types"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Envelope
	}{
		{
			name: "full",
			raw:  "%info% You are a museum guide. % %query% Who was Frida Kahlo? % %instructions% Answer briefly. %",
			want: Envelope{Prefix: "You are a museum guide.", Question: "Who was Frida Kahlo?", Instructions: "Answer briefly."},
		},
		{
			name: "multiline",
			raw:  "%info%Guide\nline two%\n%query%Tell me\nabout Cubism%%instructions%Long%",
			want: Envelope{Prefix: "Guide\nline two", Question: "Tell me\nabout Cubism", Instructions: "Long"},
		},
		{name: "missing", raw: "Who was Frida Kahlo?", want: Envelope{}},
		{name: "empty", raw: "", want: Envelope{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseEnvelope(tt.raw); got != tt.want {
				t.Errorf("ParseEnvelope() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRetrievalDepth(t *testing.T) {
	tests := map[string]int{"short": 4, "medium": 8, "long": 12, "": 7, "SHORT": 7}
	for in, want := range tests {
		if got := RetrievalDepth(in); got != want {
			t.Errorf("RetrievalDepth(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFoldHistory(t *testing.T) {
	history := []types.ChatMessage{
		{Role: "HUMAN", Content: "Who painted Guernica?"},
		{Role: "AI", Content: `{"action": "Final Answer", "action_input": "Pablo Picasso."}`},
		{Role: "human", Content: "When?"},
		{Role: "ai", Content: "In 1937."},
	}

	got := FoldHistory(history, 10)
	if want := "\nPablo Picasso.\n\nIn 1937.\n"; got.AIContext != want {
		t.Errorf("AIContext = %q, want %q", got.AIContext, want)
	}
	if want := "\nWho painted Guernica?\n\nWhen?\n"; got.UserContext != want {
		t.Errorf("UserContext = %q, want %q", got.UserContext, want)
	}

	if got := FoldHistory(history, 4); got != (FoldedHistory{}) {
		t.Errorf("FoldHistory at the session limit = %+v, want empty", got)
	}
	if got := FoldHistory(nil, 10); got != (FoldedHistory{}) {
		t.Errorf("FoldHistory(nil) = %+v, want empty", got)
	}
}

func TestPromptParts(t *testing.T) {
	parts := PromptParts{
		Envelope:  Envelope{Prefix: "PREFIX", Question: "Q", Instructions: "INSTR"},
		History:   FoldedHistory{AIContext: "\nA\n", UserContext: "\nU\n"},
		Documents: []string{"doc one", "doc two"},
	}

	if got, want := parts.Query(), "Q\nU\n"; got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
	wantContext := "\n\nINSTR\n\n\nA\n\n\ndoc one\ndoc two\n\nQ\nU\n"
	if got := parts.Context(); got != wantContext {
		t.Errorf("Context() = %q, want %q", got, wantContext)
	}
	if got := parts.AgentPrompt(); got != "PREFIX"+wantContext {
		t.Errorf("AgentPrompt() = %q", got)
	}
}
