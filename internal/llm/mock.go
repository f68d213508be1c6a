package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/mfierro/gastos/internal/model"
)

// MockClient is a test implementation of the Client interface. It replays
// scripted results and errors in call order.
type MockClient struct {
	Results []model.ClassificationResult
	Errors  []error
	calls   int
	mu      sync.Mutex
}

// Classify returns the next scripted result or error.
func (m *MockClient) Classify(_ context.Context, _ string) (model.ClassificationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++

	if idx < len(m.Errors) && m.Errors[idx] != nil {
		return model.ClassificationResult{}, m.Errors[idx]
	}
	if idx < len(m.Results) {
		return m.Results[idx], nil
	}
	return model.ClassificationResult{}, fmt.Errorf("no more mock results (call %d)", idx)
}

// Calls reports how many times Classify was invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
