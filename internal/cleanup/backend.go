package cleanup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Backend sends the JSON-encoded tables to a cleanup service and returns
// its raw JSON answer.
type Backend interface {
	Name() string
	Model() string
	Rewrite(ctx context.Context, payload []byte) ([]byte, error)
}

// Options select and configure a backend.
type Options struct {
	Provider string // http, ollama, openai, anthropic, gemini; empty disables cleanup
	URL      string
	Model    string
	APIKey   string
}

const (
	defaultOllamaURL      = "http://localhost:11434"
	defaultOllamaModel    = "llama3"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicURL   = "https://api.anthropic.com"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	defaultGeminiModel    = "gemini-1.5-flash"

	maxResponseBytes = 8 << 20
)

// NewBackend returns the backend named by opts.Provider, or nil when
// cleanup is disabled.
func NewBackend(opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "none", "off":
		return nil, nil
	case "http":
		if opts.URL == "" {
			return nil, fmt.Errorf("cleanup provider http requires a URL")
		}
		return NewHTTPBackend(opts.URL, opts.APIKey), nil
	case "ollama":
		return NewOllamaBackend(or(opts.URL, defaultOllamaURL), or(opts.Model, defaultOllamaModel)), nil
	case "openai":
		if opts.APIKey == "" && opts.URL == "" {
			return nil, fmt.Errorf("cleanup provider openai requires an API key or a compatible base URL")
		}
		return NewOpenAIBackend(opts.APIKey, opts.URL, or(opts.Model, defaultOpenAIModel)), nil
	case "anthropic":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("cleanup provider anthropic requires an API key")
		}
		return NewAnthropicBackend(opts.APIKey, or(opts.URL, defaultAnthropicURL), or(opts.Model, defaultAnthropicModel)), nil
	case "gemini":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("cleanup provider gemini requires an API key")
		}
		return NewGeminiBackend(opts.APIKey, or(opts.Model, defaultGeminiModel)), nil
	default:
		return nil, fmt.Errorf("unknown cleanup provider: %s", opts.Provider)
	}
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// newHTTPClient has no overall timeout; the adapter bounds every call
// through its context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
