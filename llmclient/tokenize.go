package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TokenizeRequest represents the payload for a /tokenize call
type TokenizeRequest struct {
	Content string `json:"content"`
}

// TokenizeResponse represents the response from a /tokenize call
type TokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

// Tokenize requests tokenization for text at the given host and returns the token count.
func (c *Client) Tokenize(ctx context.Context, host string, text string) (int, error) {
	jsonBody, err := json.Marshal(TokenizeRequest{Content: text})
	if err != nil {
		return 0, fmt.Errorf("marshal tokenize request: %w", err)
	}

	url := fmt.Sprintf("%s/tokenize", strings.TrimRight(host, "/"))
	resp, err := c.post(ctx, url, jsonBody, false)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, statusError(resp)
	}

	var tr TokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return 0, fmt.Errorf("decode tokenize response: %w", err)
	}
	return len(tr.Tokens), nil
}
