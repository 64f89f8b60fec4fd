package mock

import (
	"context"
	"sync"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/schema"
)

// MockGenerator is a test double for ai.Generator and ai.StructuredGenerator.
// It allows custom behavior injection via function fields and supports
// scripting a sequence of responses for retry tests.
type MockGenerator struct {
	// GenerateFunc is called by Generate if set.
	// If nil, scripted responses (or the default) are used.
	GenerateFunc func(ctx context.Context, req ai.Request) (string, error)

	// GenerateStructuredFunc is called by GenerateStructured if set.
	// If nil, falls back to the same behavior as Generate.
	GenerateStructuredFunc func(ctx context.Context, req ai.Request, record *schema.Record) (string, error)

	mu        sync.Mutex
	responses []string
	errs      []error
	callCount int
	requests  []ai.Request
}

// NewMockGenerator creates a mock generator returning "{}" by default.
// Note: Returns concrete type to allow test assertions and scripting.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Script queues responses returned by successive calls, in order. After
// the script is exhausted the last entry repeats.
func (m *MockGenerator) Script(responses ...string) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, responses...)
	return m
}

// ScriptError queues an error returned by the next call, before any
// scripted responses are consumed.
func (m *MockGenerator) ScriptError(errs ...error) *MockGenerator {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, errs...)
	return m
}

// Generate returns the next scripted response.
func (m *MockGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	if m.GenerateFunc != nil {
		m.record(req)
		return m.GenerateFunc(ctx, req)
	}
	return m.next(req)
}

// GenerateStructured behaves like Generate unless a structured function is
// injected, so the same script drives both code paths.
func (m *MockGenerator) GenerateStructured(ctx context.Context, req ai.Request, record *schema.Record) (string, error) {
	if m.GenerateStructuredFunc != nil {
		m.record(req)
		return m.GenerateStructuredFunc(ctx, req, record)
	}
	if m.GenerateFunc != nil {
		m.record(req)
		return m.GenerateFunc(ctx, req)
	}
	return m.next(req)
}

func (m *MockGenerator) record(req ai.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.requests = append(m.requests, req)
}

func (m *MockGenerator) next(req ai.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.requests = append(m.requests, req)

	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return "", err
	}
	if len(m.responses) == 0 {
		return "{}", nil
	}
	response := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return response, nil
}

// CallCount returns the number of generation calls made.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns a copy of every request seen, in call order.
func (m *MockGenerator) Requests() []ai.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ai.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset clears scripted responses, recorded requests, and call counts.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = nil
	m.errs = nil
	m.callCount = 0
	m.requests = nil
}

// PlainGenerator wraps a MockGenerator behind the base capability only,
// hiding GenerateStructured from type assertions. Use it to test the
// instruction-block fallback path.
type PlainGenerator struct {
	Mock *MockGenerator
}

// NewPlainGenerator creates a mock without the structured capability.
func NewPlainGenerator() *PlainGenerator {
	return &PlainGenerator{Mock: NewMockGenerator()}
}

// Generate delegates to the wrapped mock.
func (p *PlainGenerator) Generate(ctx context.Context, req ai.Request) (string, error) {
	return p.Mock.Generate(ctx, req)
}
