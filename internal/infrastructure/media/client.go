package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"AutoPublisher/internal/ports"
)

// Client requests generated media (thumbnails, stills) from an external
// generation service and streams the binary back.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.MediaGenerator = (*Client)(nil)

// NewClient creates a reusable media client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 5 * time.Minute},
	}
}

// Generate posts the prompt and returns the produced binary. The caller owns
// closing the reader.
func (c *Client) Generate(ctx context.Context, prompt string) (io.ReadCloser, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("media endpoint not configured")
	}

	body, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, fmt.Errorf("marshal media payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate media: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("media backend returned %s: %s", resp.Status, bytes.TrimSpace(payload))
	}

	return resp.Body, nil
}
