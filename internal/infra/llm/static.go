package llm

import (
	"context"
	"sync"
)

// StaticGenerator returns fixed text; used offline and when no API key is available.
type StaticGenerator struct {
	text string
}

func NewStaticGenerator(text string) *StaticGenerator {
	return &StaticGenerator{text: text}
}

func (g *StaticGenerator) Generate(context.Context, string) (string, error) {
	return g.text, nil
}

func (g *StaticGenerator) ModelID() string {
	return "static"
}

// MockResponse is a canned response for the MockGenerator.
type MockResponse struct {
	Text string
	Err  error
}

// MockGenerator returns canned responses in FIFO order and records every prompt.
type MockGenerator struct {
	mu        sync.Mutex
	responses []MockResponse
	Prompts   []string
}

func NewMockGenerator(responses ...MockResponse) *MockGenerator {
	return &MockGenerator{responses: responses}
}

func (m *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if len(m.responses) == 0 {
		return "", &ErrProviderUnavailable{}
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp.Text, resp.Err
}

func (m *MockGenerator) ModelID() string {
	return "mock"
}
