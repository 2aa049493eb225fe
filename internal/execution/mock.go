package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/promptbench/promptbench/internal/models"
)

var _ Engine = (*MockEngine)(nil)

// MockEngine is a scriptable implementation for testing. Results are served
// in order; when the script runs out (or none was given) it echoes the
// prompt back as a successful response.
type MockEngine struct {
	ModelName string
	InitErr   error
	Results   []models.ExecutionResult

	// Fn, when set, overrides the scripted results entirely.
	Fn func(prompt string) models.ExecutionResult

	mu      sync.Mutex
	prompts []string
	next    int
}

func (m *MockEngine) Initialize(ctx context.Context) error {
	return m.InitErr
}

func (m *MockEngine) Execute(ctx context.Context, prompt string) models.ExecutionResult {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	scripted := m.next < len(m.Results)
	var result models.ExecutionResult
	if scripted {
		result = m.Results[m.next]
		m.next++
	}
	m.mu.Unlock()

	if m.Fn != nil {
		return m.Fn(prompt)
	}
	if scripted {
		return result
	}
	return models.ExecutionResult{
		Response: fmt.Sprintf("mock response for: %s", prompt),
		Model:    m.Model(),
		Success:  true,
		Metrics:  models.Metrics{TotalTokens: 50, ElapsedTime: 2},
	}
}

func (m *MockEngine) Shutdown(ctx context.Context) error {
	return nil
}

func (m *MockEngine) Model() string {
	if m.ModelName != "" {
		return m.ModelName
	}
	return "mock"
}

// Prompts returns every prompt Execute has seen, in order.
func (m *MockEngine) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
