package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"assessment-service/internal/domain"
)

// Generator is the minimal text-completion surface each vendor SDK is adapted to.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelID() string
}

// Config selects and configures the feedback generator.
type Config struct {
	// Provider is one of "gemini", "openai", "anthropic", "static".
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string // OpenAI-compatible endpoints only.
	MaxTokens int
	// Text is returned verbatim by the static provider.
	Text string
}

// FeedbackProvider turns a scored result into mentor feedback through a Generator.
type FeedbackProvider struct {
	gen    Generator
	logger *slog.Logger
}

func NewFeedbackProvider(gen Generator, logger *slog.Logger) *FeedbackProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackProvider{gen: gen, logger: logger}
}

func (p *FeedbackProvider) Feedback(ctx context.Context, result domain.AssessmentResult) (string, error) {
	start := time.Now()
	text, err := p.gen.Generate(ctx, BuildPrompt(result))
	p.logger.Debug("feedback generated",
		"model", p.gen.ModelID(),
		"email", result.Email,
		"duration", time.Since(start),
		"ok", err == nil,
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

// New builds the configured provider.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*FeedbackProvider, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case "", "gemini":
		gen, err = NewGeminiGenerator(ctx, cfg)
	case "openai":
		gen, err = NewOpenAIGenerator(cfg)
	case "anthropic":
		gen, err = NewAnthropicGenerator(cfg)
	case "static":
		gen = NewStaticGenerator(cfg.Text)
	default:
		return nil, fmt.Errorf("unknown feedback provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return NewFeedbackProvider(gen, logger), nil
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, models map[string]string, fallback string) string {
	if name == "" {
		name = fallback
	}
	if id, ok := models[name]; ok {
		return id
	}
	// If not in the map, use as-is (allows direct model IDs).
	return name
}

func maxTokens(cfg Config) int {
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 512
}
