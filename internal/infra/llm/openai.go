package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// openaiModels maps friendly names to OpenAI model IDs.
var openaiModels = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
}

// OpenAIGenerator generates feedback with the OpenAI SDK. It also serves
// OpenAI-compatible APIs via BaseURL.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAIGenerator(cfg Config) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(config),
		model:     resolveModel(cfg.Model, openaiModels, "gpt-4o-mini"),
		maxTokens: maxTokens(cfg),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: g.maxTokens,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &ErrProviderUnavailable{Err: fmt.Errorf("no choices in OpenAI response")}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *OpenAIGenerator) ModelID() string {
	return g.model
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
