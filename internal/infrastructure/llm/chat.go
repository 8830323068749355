package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"AutoPublisher/internal/config"
	"AutoPublisher/internal/ports"
)

// Client implements ports.ChatClient against OpenAI-compatible or Anthropic
// APIs. The backend kind is resolved at configuration load, not per call.
type Client struct {
	endpoint   string
	model      string
	apiKey     string
	backend    config.BackendKind
	httpClient *http.Client
}

var _ ports.ChatClient = (*Client)(nil)

// NewClient builds a chat client from normalized configuration. The timeout
// is generous: a single run may wait on several sequential generations.
func NewClient(cfg config.ChatConfig, backend config.BackendKind) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		backend:  backend,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Chat sends the payload as a user message and returns the text response.
func (c *Client) Chat(ctx context.Context, payload string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chat client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("chat client misconfigured")
	}

	switch c.backend {
	case config.BackendAnthropic:
		return c.chatAnthropic(ctx, payload)
	default:
		// Google exposes an OpenAI-compatible endpoint, so both kinds
		// share the request shape.
		return c.chatOpenAI(ctx, payload)
	}
}

func (c *Client) chatOpenAI(ctx context.Context, payload string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": payload},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.post(ctx, body, map[string]string{"Authorization": "Bearer " + c.apiKey}, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) chatAnthropic(ctx context.Context, payload string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":      c.model,
		"max_tokens": 4096,
		"messages": []map[string]string{
			{"role": "user", "content": payload},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}
	if err := c.post(ctx, body, headers, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("chat response has no content")
	}
	return parsed.Content[0].Text, nil
}

func (c *Client) post(ctx context.Context, body []byte, headers map[string]string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("chat backend error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode chat response: %w", err)
	}
	return nil
}
