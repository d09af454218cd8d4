// Package llm wraps the text-generation service behind a one-method interface
// so workflow components and tests never depend on the SDK directly.
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// TextGenerator produces a single completion for a system instruction plus prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, system, prompt string) (string, error)
}

// GeminiClient generates text using Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini text-generation client.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("generation API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	return &GeminiClient{client: client, model: model}, nil
}

// GenerateText performs one completion call. There is no retry: malformed
// output is the caller's concern, and transport failures propagate.
func (c *GeminiClient) GenerateText(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	return resp.Text(), nil
}

// Disabled is a TextGenerator that always fails. It stands in when the
// generation credential is absent so the service still starts and requests
// fail with a clear diagnostic instead of a nil dereference.
type Disabled struct{}

func (Disabled) GenerateText(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("text generation is not configured (missing API key)")
}
