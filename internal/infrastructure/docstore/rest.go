package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// RestStore talks to the target document platform over its REST API.
type RestStore struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ ports.DocumentStore = (*RestStore)(nil)

// NewRestStore creates a reusable client. Writes may be slow; the timeout is
// sized for network-bound store calls, not interactive use.
func NewRestStore(baseURL, apiKey string) *RestStore {
	return &RestStore{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// FindOrCreateDocument resolves the document for a publication, creating it
// when the external key is unknown to the store.
func (s *RestStore) FindOrCreateDocument(ctx context.Context, pub *domain.Publication) (ports.DocumentHandle, error) {
	payload := map[string]any{
		"external_id":  pub.ID,
		"title":        pub.Title,
		"content_type": pub.ContentType,
		"parent_id":    pub.ParentID,
		"published_at": pub.PublishedAt.UTC().Format(time.RFC3339),
	}

	var resp struct {
		ID        string `json:"id"`
		Permalink string `json:"permalink"`
	}
	if err := s.postJSON(ctx, "/documents", payload, &resp); err != nil {
		return ports.DocumentHandle{}, fmt.Errorf("find or create document: %w", err)
	}
	return ports.DocumentHandle{ID: resp.ID, Permalink: resp.Permalink}, nil
}

// WriteContent replaces the document body with the serialized sections.
func (s *RestStore) WriteContent(ctx context.Context, handle ports.DocumentHandle, content string) error {
	payload := map[string]any{"content": content}
	if err := s.postJSON(ctx, "/documents/"+handle.ID+"/content", payload, nil); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}

// AttachMedia uploads a binary blob and returns the store's media reference.
func (s *RestStore) AttachMedia(ctx context.Context, handle ports.DocumentHandle, name string, blob io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, blob); err != nil {
		return "", fmt.Errorf("copy media blob: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/documents/"+handle.ID+"/media", &buf)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("media upload returned %s", resp.Status)
	}

	var parsed struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode media response: %w", err)
	}
	return parsed.Ref, nil
}

// SetTaxonomy assigns categories and tags on the document.
func (s *RestStore) SetTaxonomy(ctx context.Context, handle ports.DocumentHandle, categories, tags []string) error {
	payload := map[string]any{"categories": categories, "tags": tags}
	if err := s.postJSON(ctx, "/documents/"+handle.ID+"/taxonomy", payload, nil); err != nil {
		return fmt.Errorf("set taxonomy: %w", err)
	}
	return nil
}

// SetSEOFields writes platform-specific search metadata.
func (s *RestStore) SetSEOFields(ctx context.Context, handle ports.DocumentHandle, seo domain.SEOFields) error {
	payload := map[string]any{
		"title":       seo.Title,
		"description": seo.Description,
		"keywords":    seo.Keywords,
	}
	if err := s.postJSON(ctx, "/documents/"+handle.ID+"/seo", payload, nil); err != nil {
		return fmt.Errorf("set seo fields: %w", err)
	}
	return nil
}

// SetCustomField writes one arbitrary key/value pair on the document.
func (s *RestStore) SetCustomField(ctx context.Context, handle ports.DocumentHandle, key, value string) error {
	payload := map[string]any{"key": key, "value": value}
	if err := s.postJSON(ctx, "/documents/"+handle.ID+"/fields", payload, nil); err != nil {
		return fmt.Errorf("set custom field %s: %w", key, err)
	}
	return nil
}

func (s *RestStore) postJSON(ctx context.Context, path string, payload any, v any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("store returned %s: %s", resp.Status, bytes.TrimSpace(payload))
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *RestStore) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}
