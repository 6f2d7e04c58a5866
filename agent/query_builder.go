package agent

import (
	"regexp"
	"strings"

	"tas-agent/web/types"
)

var envelopePattern = regexp.MustCompile(`(?s)%info%(.*?)%\s*%query%(.*?)%\s*%instructions%(.*?)%`)

// Envelope is the structured query a client sends:
// %info%<prefix>% %query%<question>% %instructions%<length instruction>%
type Envelope struct {
	Prefix       string
	Question     string
	Instructions string
}

// ParseEnvelope extracts the three envelope sections. A query without the
// envelope yields an empty Envelope.
func ParseEnvelope(raw string) Envelope {
	m := envelopePattern.FindStringSubmatch(raw)
	if m == nil {
		return Envelope{}
	}
	return Envelope{
		Prefix:       strings.TrimSpace(m[1]),
		Question:     strings.TrimSpace(m[2]),
		Instructions: strings.TrimSpace(m[3]),
	}
}

// RetrievalDepth maps the requested response length to the number of
// documents retrieved.
func RetrievalDepth(responseLength string) int {
	switch responseLength {
	case "short":
		return 4
	case "medium":
		return 8
	case "long":
		return 12
	default:
		return 7
	}
}

// FoldedHistory is recent conversation turns flattened into prompt text.
type FoldedHistory struct {
	AIContext   string
	UserContext string
}

// FoldHistory flattens history when the session is shorter than
// maxSessionIteration turns; longer sessions contribute nothing.
func FoldHistory(history []types.ChatMessage, maxSessionIteration int) FoldedHistory {
	var folded FoldedHistory
	if len(history) == 0 || len(history) >= maxSessionIteration {
		return folded
	}

	var ai, user strings.Builder
	for _, msg := range history {
		switch strings.ToUpper(msg.Role) {
		case "AI":
			ai.WriteString("\n" + answerText(msg.Content) + "\n")
		case "HUMAN":
			user.WriteString("\n" + msg.Content + "\n")
		}
	}
	folded.AIContext = ai.String()
	folded.UserContext = user.String()
	return folded
}

// answerText returns the action_input of a stored action blob, or the text
// itself when it is plain prose.
func answerText(stored string) string {
	if action, err := ParseAction(stored); err == nil {
		return action.Input
	}
	return stored
}

// PromptParts holds everything the final prompt is built from.
type PromptParts struct {
	Envelope  Envelope
	History   FoldedHistory
	Documents []string
}

// Query is the question followed by the folded human turns.
func (p PromptParts) Query() string {
	return p.Envelope.Question + p.History.UserContext
}

// Context joins instructions, earlier answers, documents and query.
func (p PromptParts) Context() string {
	return strings.Join([]string{
		"",
		p.Envelope.Instructions,
		p.History.AIContext,
		strings.Join(p.Documents, "\n"),
		p.Query(),
	}, "\n\n")
}

// AgentPrompt is the single user input of an agent run.
func (p PromptParts) AgentPrompt() string {
	return p.Envelope.Prefix + p.Context()
}
