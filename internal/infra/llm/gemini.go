package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiModels maps friendly names to Gemini model IDs.
var geminiModels = map[string]string{
	"gemini-flash": "gemini-3-flash-preview",
	"gemini-pro":   "gemini-2.5-pro",
}

// GeminiGenerator generates feedback with the Google Gemini SDK.
type GeminiGenerator struct {
	client    *genai.Client
	model     string
	maxTokens int
}

func NewGeminiGenerator(ctx context.Context, cfg Config) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:    client,
		model:     resolveModel(cfg.Model, geminiModels, "gemini-flash"),
		maxTokens: maxTokens(cfg),
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	budget := int32(0)
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxTokens),
		ThinkingConfig:  &genai.ThinkingConfig{ThinkingBudget: &budget},
	}
	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", mapGeminiError(err)
	}
	return strings.TrimSpace(result.Text()), nil
}

func (g *GeminiGenerator) ModelID() string {
	return g.model
}

func mapGeminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
