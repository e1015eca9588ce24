package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to an OpenAI-compatible chat completion gateway.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: 120 * time.Second},
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) post(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	b, err := json.Marshal(completionRequest{
		Model:    c.Model,
		Messages: messages,
		Stream:   stream,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ai gateway: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		resp.Body.Close()
		return nil, ErrRateLimited
	case http.StatusPaymentRequired:
		resp.Body.Close()
		return nil, ErrQuotaExhausted
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("ai gateway error (status %d)", resp.StatusCode)
	}

	return resp, nil
}

// Complete performs a non-streamed completion and returns the first choice's
// message content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ai decode: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("ai gateway returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

// StreamCompletion starts a streamed completion. The caller owns the returned
// Stream and must Close it.
func (c *Client) StreamCompletion(ctx context.Context, messages []Message) (*Stream, error) {
	resp, err := c.post(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	return newStream(resp.Body), nil
}
