package cleanup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// HTTPBackend posts the tables array as the request body and expects the
// cleaned array as the response body.
type HTTPBackend struct {
	url        string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPBackend(url, apiKey string) *HTTPBackend {
	return &HTTPBackend{url: url, apiKey: apiKey, httpClient: newHTTPClient()}
}

func (b *HTTPBackend) Name() string  { return "http" }
func (b *HTTPBackend) Model() string { return "" }

func (b *HTTPBackend) Rewrite(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cleanup service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError("cleanup service", resp.StatusCode, body)
	}
	return body, nil
}
