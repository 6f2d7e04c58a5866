package agent

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

var referenceTokens = []string{
	"Thought", ":", " x", "Final Answer",
	`{"action":"Final Answer","action_input":"`, "Hi", `"`, "}",
}

func collect(ch <-chan string) <-chan []string {
	done := make(chan []string, 1)
	go func() {
		var got []string
		for tok := range ch {
			got = append(got, tok)
		}
		done <- got
	}()
	return done
}

func TestAnswerStreamForwardsAndPersistsOnce(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	sink, out := NewAnswerStream(func(answer string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, answer)
	}, 0)
	result := collect(out)

	for _, tok := range referenceTokens {
		sink.Token(tok)
	}
	sink.End()
	sink.End()

	if got := <-result; !reflect.DeepEqual(got, []string{"Hi"}) {
		t.Errorf("forwarded = %q, want [Hi]", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(calls, []string{"Hi"}) {
		t.Errorf("onComplete calls = %q, want exactly one \"Hi\"", calls)
	}
}

func TestAnswerStreamWithoutMarker(t *testing.T) {
	called := false
	sink, out := NewAnswerStream(func(string) { called = true }, 4)
	result := collect(out)

	for _, tok := range []string{"Thought", ": still", " thinking"} {
		sink.Token(tok)
	}
	sink.End()

	select {
	case got := <-result:
		if len(got) != 0 {
			t.Errorf("forwarded = %q, want nothing", got)
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after End")
	}
	if called {
		t.Error("onComplete called without a final answer")
	}
	if s := sink.Snapshot(); s.Phase != PhaseDone {
		t.Errorf("Phase = %v, want done", s.Phase)
	}
}

func TestAnswerStreamDiscardDoesNotBlockProducer(t *testing.T) {
	answers := make(chan string, 1)
	sink, _ := NewAnswerStream(func(answer string) { answers <- answer }, 0)
	sink.Discard()

	done := make(chan struct{})
	go func() {
		defer close(done)
		tokens := append([]string{}, referenceTokens[:6]...)
		tokens = append(tokens, " there", `"`, "}")
		for _, tok := range tokens {
			sink.Token(tok)
		}
		sink.End()
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer blocked after Discard")
	}
	if got := <-answers; got != "Hi there" {
		t.Errorf("persisted %q, want %q", got, "Hi there")
	}
}

func TestAnswerStreamNilCallback(t *testing.T) {
	sink, out := NewAnswerStream(nil, 8)
	for _, tok := range referenceTokens {
		sink.Token(tok)
	}
	sink.End()

	var got []string
	for tok := range out {
		got = append(got, tok)
	}
	if !reflect.DeepEqual(got, []string{"Hi"}) {
		t.Errorf("forwarded = %q", got)
	}
}

func TestAnswerStreamRestart(t *testing.T) {
	sink, out := NewAnswerStream(nil, 8)

	sink.Token("Final Answer")
	if !sink.Restart() {
		t.Fatal("Restart() = false before any answer text")
	}
	if got := sink.Snapshot(); got.Phase != PhaseReasoning || got.Raw != "" {
		t.Errorf("state after Restart = %+v, want initial", got)
	}

	for _, tok := range referenceTokens[3:6] {
		sink.Token(tok)
	}
	if sink.Restart() {
		t.Error("Restart() = true after answer text was forwarded")
	}
	if got := sink.Snapshot().Answer; got != "Hi" {
		t.Errorf("answer = %q, want it kept", got)
	}
	sink.End()
	if got := <-collect(out); !reflect.DeepEqual(got, []string{"Hi"}) {
		t.Errorf("forwarded = %q", got)
	}
}
