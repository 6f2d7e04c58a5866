package llmclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tas-agent/config"
	apperrors "tas-agent/errors"
	"tas-agent/web/types"

	"go.uber.org/zap"
)

// ErrContextWindowExceeded is returned when the model reports the prompt
// exceeds the available context size.
var ErrContextWindowExceeded = errors.New("context window exceeded")

// Chunk is one streamed delta of a chat completion.
type Chunk struct {
	ID      string
	Content string
}

type streamChoice struct {
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
	Index int `json:"index"`
}

type streamResponse struct {
	ID      string         `json:"id"`
	Choices []streamChoice `json:"choices"`
}

type chatRequest struct {
	Model       string               `json:"model,omitempty"`
	Messages    []types.AgentMessage `json:"messages"`
	Stream      bool                 `json:"stream"`
	Stop        []string             `json:"stop,omitempty"`
	Temperature *float64             `json:"temperature,omitempty"`
}

type embeddingRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	// Streaming requests rely on context cancellation or the server closing the stream.
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.LLMRequestTimeout},
		logger:     logger,
	}
}

// post sends body to url, retrying while the server answers 503.
func (c *Client) post(ctx context.Context, url string, body []byte, stream bool) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if stream {
			req.Header.Set("Accept", "text/event-stream")
		}
		if c.cfg.LLMAPIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.LLMAPIKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// Do not retry on context cancellation/deadline
			if ctx.Err() != nil {
				break
			}
			c.backoffSleep(attempt)
			continue
		}
		if resp.StatusCode == http.StatusServiceUnavailable {
			// Model loading; retry with backoff
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("status %s", resp.Status)
			c.logger.Warn("LLM service unavailable, retrying", zap.String("url", url), zap.Int("attempt", attempt+1))
			c.backoffSleep(attempt)
			continue
		}
		return resp, nil
	}
	return nil, apperrors.Join(apperrors.ErrLLMCommunication, lastErr, "no response from %s", url)
}

func statusError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	body := strings.TrimSpace(string(bodyBytes))
	if strings.Contains(body, "exceeds the available context size") ||
		strings.Contains(body, "context_length_exceeded") {
		return ErrContextWindowExceeded
	}
	return apperrors.Join(apperrors.ErrLLMCommunication, nil, "server status %s: %s", resp.Status, body)
}

func (c *Client) chatURL(host string) string {
	return fmt.Sprintf("%s/v1/chat/completions", strings.TrimRight(host, "/"))
}

// ChatStream performs a streaming chat completion call and returns a channel
// of chunks. The channel is closed when the stream ends or ctx is done.
// Connection and status errors are returned before any chunk is produced.
func (c *Client) ChatStream(ctx context.Context, host string, messages []types.AgentMessage, temperature *float64) (<-chan Chunk, error) {
	jsonBody, err := json.Marshal(chatRequest{
		Model:       c.cfg.LLMModel,
		Messages:    messages,
		Stream:      true,
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	resp, err := c.post(ctx, c.chatURL(host), jsonBody, true)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			chunk, done, ok := parseStreamLine(scanner.Text())
			if done {
				return
			}
			if !ok || chunk.Content == "" {
				continue
			}
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.logger.Error("read chat stream", zap.Error(err))
		}
	}()

	return out, nil
}

// parseStreamLine decodes one SSE line of a chat completion stream.
func parseStreamLine(line string) (chunk Chunk, done, ok bool) {
	data, found := strings.CutPrefix(line, "data:")
	if !found {
		return Chunk{}, false, false
	}
	data = strings.TrimSpace(data)
	if data == "[DONE]" {
		return Chunk{}, true, false
	}
	var sr streamResponse
	if err := json.Unmarshal([]byte(data), &sr); err != nil || len(sr.Choices) == 0 {
		return Chunk{}, false, false
	}
	return Chunk{ID: sr.ID, Content: sr.Choices[0].Delta.Content}, false, true
}

func (c *Client) backoffSleep(attempt int) {
	// Exponential backoff with configurable jitter and cap
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second
	}
	d := base * time.Duration(1<<attempt)
	maxWait := c.cfg.LLMBackoffMaxSeconds
	if maxWait > 0 && d > maxWait {
		d = maxWait
	}
	jitterRatio := c.cfg.LLMBackoffJitterRatio
	if jitterRatio < 0 || jitterRatio > 1 {
		jitterRatio = 0.1
	}
	jitter := time.Duration(float64(d) * jitterRatio)
	time.Sleep(d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1)))
}

// Embed generates an embedding vector for doc using the OpenAI-compatible
// embeddings endpoint.
func (c *Client) Embed(ctx context.Context, host string, doc string) ([]float32, error) {
	jsonBody, err := json.Marshal(embeddingRequest{Model: c.cfg.EmbeddingModel, Input: doc})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/embeddings", strings.TrimRight(host, "/"))
	resp, err := c.post(ctx, url, jsonBody, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var er embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(er.Data) == 0 || len(er.Data[0].Embedding) == 0 {
		return nil, apperrors.Join(apperrors.ErrLLMCommunication, nil, "embedding response was empty")
	}
	return er.Data[0].Embedding, nil
}
