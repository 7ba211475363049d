package llm

import (
	"context"
	"sync"
)

// MockClient is a scriptable Client for tests.
type MockClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int

	// CompleteFunc overrides the scripted responses when set.
	CompleteFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NewMockClient returns a mock that replays responses in order,
// repeating the last one once exhausted.
func NewMockClient(responses ...string) *MockClient {
	return &MockClient{responses: responses}
}

// NewMockClientErr returns a mock that always fails with err.
func NewMockClientErr(err error) *MockClient {
	return &MockClient{err: err}
}

func (m *MockClient) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteWithSystem(ctx, "", prompt)
}

func (m *MockClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.CompleteFunc != nil {
		m.mu.Lock()
		m.calls++
		m.mu.Unlock()
		return m.CompleteFunc(ctx, systemPrompt, userPrompt)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	idx := m.calls - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *MockClient) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string, schema map[string]any) (string, error) {
	return m.CompleteWithSystem(ctx, systemPrompt, userPrompt)
}

// Calls reports how many completions were requested.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
