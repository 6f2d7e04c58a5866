package agent

import (
	"sync"
)

// TokenSink receives an agent's output one token at a time. End is called
// once when the agent loop finishes.
type TokenSink interface {
	Token(token string)
	End()
}

// AnswerStream forwards only the final-answer text of an agent run to a
// bounded channel and hands the complete answer to onComplete when the run
// ends. One AnswerStream serves one invocation.
type AnswerStream struct {
	mu         sync.Mutex
	state      State
	out        chan string
	gone       chan struct{}
	goneOnce   sync.Once
	endOnce    sync.Once
	onComplete func(answer string)
}

// NewAnswerStream returns the sink for an agent run and the channel its
// consumer reads. The channel is closed by End.
func NewAnswerStream(onComplete func(answer string), bufSize int) (*AnswerStream, <-chan string) {
	if bufSize < 0 {
		bufSize = 0
	}
	s := &AnswerStream{
		out:        make(chan string, bufSize),
		gone:       make(chan struct{}),
		onComplete: onComplete,
	}
	streamsStarted.Inc()
	return s, s.out
}

// Token advances the state machine and forwards answer text in order.
// After Discard the text is dropped instead of blocking the producer.
func (s *AnswerStream) Token(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		forwarded string
		ok        bool
	)
	s.state, forwarded, ok = Advance(s.state, token)
	if !ok {
		return
	}
	forwardedTokens.Inc()
	select {
	case s.out <- forwarded:
	case <-s.gone:
	}
}

// End closes the output channel and, when an answer phase was reached,
// calls onComplete with the answer text. Only the first call has effect.
func (s *AnswerStream) End() {
	s.endOnce.Do(func() {
		s.mu.Lock()
		var reached bool
		s.state, reached = Finish(s.state)
		answer := s.state.Answer
		close(s.out)
		s.mu.Unlock()

		if !reached {
			streamsCompleted.WithLabelValues("no_answer").Inc()
			return
		}
		streamsCompleted.WithLabelValues("answered").Inc()
		if s.onComplete != nil {
			s.onComplete(answer)
		}
	})
}

// Restart clears the extractor before another generation of the same run.
// It reports false once answer text has reached the consumer; that text
// cannot be withdrawn, so the run has to end on it.
func (s *AnswerStream) Restart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Answer != "" {
		return false
	}
	s.state = State{}
	return true
}

// Discard tells the stream its consumer has gone away. The producer keeps
// running and End still persists the answer.
func (s *AnswerStream) Discard() {
	s.goneOnce.Do(func() { close(s.gone) })
}

// Snapshot returns a copy of the current state.
func (s *AnswerStream) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
