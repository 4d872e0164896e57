package cleanup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiBackend uses the Gemini API in JSON response mode. A client is
// opened per call, so the backend holds no connection state.
type GeminiBackend struct {
	apiKey string
	model  string
}

func NewGeminiBackend(apiKey, model string) *GeminiBackend {
	return &GeminiBackend{apiKey: apiKey, model: model}
}

func (b *GeminiBackend) Name() string  { return "gemini" }
func (b *GeminiBackend) Model() string { return b.model }

func (b *GeminiBackend) Rewrite(ctx context.Context, payload []byte) ([]byte, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(b.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer cl.Close()

	temp := float32(0)
	m := cl.GenerativeModel(b.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(cleanupPrompt)}}

	resp, err := m.GenerateContent(ctx, genai.Text(string(payload)))
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500) {
			return nil, &RetryableError{StatusCode: gerr.Code, Message: gerr.Message}
		}
		return nil, fmt.Errorf("gemini: %w", err)
	}
	text := firstText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty response from gemini")
	}
	return []byte(stripCodeBlock(text)), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
