package agent

import (
	"regexp"
	"strings"
)

// FinalAnswerMarker is the text that switches the extractor from reasoning
// to answer extraction.
const FinalAnswerMarker = "Final Answer"

// actionInputMarker opens the text field of the action payload.
var actionInputMarker = regexp.MustCompile(`"action_input"\s*:\s*"`)

// Phase is the extractor's position in the agent output.
type Phase int

const (
	PhaseReasoning Phase = iota
	PhaseFinalAnswer
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseReasoning:
		return "reasoning"
	case PhaseFinalAnswer:
		return "final_answer"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// State is the per-invocation extractor state. The zero value is the
// initial reasoning state.
type State struct {
	Phase Phase
	// Raw accumulates tokens since the last reset.
	Raw string
	// Answer is the text forwarded so far.
	Answer string
	// InPayload is set once the action_input string has opened.
	InPayload bool
	// PayloadClosed is set at the unescaped quote ending action_input.
	PayloadClosed bool
	// escape carries a backslash split across two tokens.
	escape bool
}

// Advance feeds one token through the state machine and returns the new
// state and the text to forward, if any.
func Advance(s State, token string) (State, string, bool) {
	switch s.Phase {
	case PhaseReasoning:
		s.Raw += token
		if strings.Contains(s.Raw, FinalAnswerMarker) {
			s.Phase = PhaseFinalAnswer
			s.Raw = ""
		}
		return s, "", false

	case PhaseFinalAnswer:
		s.Raw += token
		if s.PayloadClosed {
			return s, "", false
		}
		text := token
		if !s.InPayload {
			loc := actionInputMarker.FindStringIndex(s.Raw)
			if loc == nil {
				return s, "", false
			}
			s.InPayload = true
			// Raw only grows while the marker is incomplete, so everything
			// after it belongs to this token.
			text = s.Raw[loc[1]:]
		}
		if !s.escape && isStructural(text) {
			if strings.Contains(text, `"`) {
				s.PayloadClosed = true
			}
			return s, "", false
		}
		var out string
		s, out = decodePayload(s, text)
		if out == "" {
			return s, "", false
		}
		s.Answer += out
		return s, out, true

	default:
		return s, "", false
	}
}

// Finish marks the state complete. It reports whether an answer phase was
// reached and so should be persisted.
func Finish(s State) (State, bool) {
	reached := s.Phase == PhaseFinalAnswer
	s.Phase = PhaseDone
	return s, reached
}

// isStructural reports tokens that are only payload envelope noise.
func isStructural(token string) bool {
	t := strings.TrimSpace(token)
	if t == "" {
		return false
	}
	return strings.Trim(t, `"}`) == ""
}

var payloadEscapes = map[byte]string{
	'n': "\n", 't': "\t", 'r': "\r", 'b': "\b", 'f': "\f",
	'"': `"`, '\\': `\`, '/': "/",
}

// decodePayload unescapes JSON string text up to the closing quote.
func decodePayload(s State, text string) (State, string) {
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		if s.escape {
			s.escape = false
			if r, ok := payloadEscapes[c]; ok {
				b.WriteString(r)
			} else {
				b.WriteByte('\\')
				b.WriteByte(c)
			}
			continue
		}
		switch c {
		case '\\':
			s.escape = true
		case '"':
			s.PayloadClosed = true
			return s, b.String()
		default:
			b.WriteByte(c)
		}
	}
	return s, b.String()
}
