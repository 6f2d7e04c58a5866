package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tas-agent/llmclient"

	"go.uber.org/zap"
)

// ErrNoActionBlob is returned when a generation holds no parseable action.
var ErrNoActionBlob = errors.New("no action blob in response")

// Action is the JSON blob a ReAct generation ends with.
type Action struct {
	Name  string
	Input string
}

// ResponseHandler collects streamed generations and parses their actions.
type ResponseHandler struct {
	logger *zap.Logger
}

// NewResponseHandler creates a new response handler instance.
func NewResponseHandler(logger *zap.Logger) *ResponseHandler {
	return &ResponseHandler{logger: logger}
}

// CollectStreamedResponse drains responseChan, passing every chunk to sink,
// and returns the complete generation.
func (r *ResponseHandler) CollectStreamedResponse(responseChan <-chan llmclient.Chunk, sink TokenSink) string {
	var b strings.Builder
	chunkCount := 0
	for chunk := range responseChan {
		chunkCount++
		if sink != nil {
			sink.Token(chunk.Content)
		}
		b.WriteString(chunk.Content)
	}

	response := b.String()
	r.logger.Debug("LLM response collected",
		zap.Int("total_chunks", chunkCount),
		zap.Int("total_length", len(response)))
	return response
}

// IsEmpty checks if the response is empty or only whitespace.
func (r *ResponseHandler) IsEmpty(response string) bool {
	return strings.TrimSpace(response) == ""
}

// ParseAction extracts {"action": ..., "action_input": ...} from a
// generation, with or without a ```json fence around it.
func ParseAction(text string) (Action, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Action{}, ErrNoActionBlob
	}

	var blob struct {
		Action      string          `json:"action"`
		ActionInput json.RawMessage `json:"action_input"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &blob); err != nil {
		return Action{}, fmt.Errorf("%w: %v", ErrNoActionBlob, err)
	}
	if blob.Action == "" {
		return Action{}, fmt.Errorf("%w: missing action", ErrNoActionBlob)
	}

	input := string(blob.ActionInput)
	var s string
	if err := json.Unmarshal(blob.ActionInput, &s); err == nil {
		input = s
	}
	return Action{Name: blob.Action, Input: input}, nil
}
