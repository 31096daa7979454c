package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real. Registra el último
// prompt y modelo recibidos.
type MockClient struct {
	Response string
	Err      error

	mu         sync.Mutex
	LastPrompt string
	LastModel  string
	Calls      int
}

func (m *MockClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	m.mu.Lock()
	m.LastPrompt = prompt
	m.LastModel = o.model
	m.Calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Response, m.Err
}
